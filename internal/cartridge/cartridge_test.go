package cartridge

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidHeader_ShouldParseFields(t *testing.T) {
	tests := []struct {
		name        string
		cartType    uint8
		romCode     uint8
		ramCode     uint8
		expectedROM int
		expectedRAM int
	}{
		{"32KB ROM only", TypeROMOnly, 0, 0, 0x8000, 0},
		{"64KB MBC1", TypeMBC1, 1, 0, 0x10000, 0},
		{"128KB MBC1 with 8KB RAM", TypeMBC1RAM, 2, 2, 0x20000, 0x2000},
		{"ROM with 2KB RAM", TypeROMRAM, 0, 1, 0x8000, 0x800},
		{"MBC1 with 32KB RAM", TypeMBC1RAMBattery, 3, 3, 0x40000, 0x8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := NewTestROMBuilder().
				WithTitle("TETRIS").
				WithType(tt.cartType).
				WithROMSizeCode(tt.romCode).
				WithRAMSizeCode(tt.ramCode).
				Build()

			cart, err := Load(data)
			if err != nil {
				t.Fatalf("Expected successful load, got error: %v", err)
			}

			header := cart.Header()
			if header.Title != "TETRIS" {
				t.Errorf("Expected title TETRIS, got %q", header.Title)
			}
			if header.Type != tt.cartType {
				t.Errorf("Expected type $%02X, got $%02X", tt.cartType, header.Type)
			}
			if header.ROMSize() != tt.expectedROM || len(cart.rom) != tt.expectedROM {
				t.Errorf("Expected ROM size %d, got header %d / loaded %d", tt.expectedROM, header.ROMSize(), len(cart.rom))
			}
			if len(cart.ram) != tt.expectedRAM {
				t.Errorf("Expected RAM size %d, got %d", tt.expectedRAM, len(cart.ram))
			}
			if !header.ChecksumValid(data) {
				t.Error("Expected generated header checksum to be valid")
			}
		})
	}
}

func TestLoad_ControllerSelection_ShouldMatchType(t *testing.T) {
	tests := []struct {
		cartType uint8
		isMBC1   bool
	}{
		{TypeROMOnly, false},
		{TypeROMRAM, false},
		{TypeROMRAMBattery, false},
		{TypeMBC1, true},
		{TypeMBC1RAM, true},
		{TypeMBC1RAMBattery, true},
		{0x19, false}, // MBC5 falls back to ROM only
	}

	for _, tt := range tests {
		cart, err := NewTestROMBuilder().WithType(tt.cartType).BuildCartridge()
		if err != nil {
			t.Fatalf("type $%02X: unexpected error: %v", tt.cartType, err)
		}
		_, isMBC1 := cart.controller.(*MBC1)
		if isMBC1 != tt.isMBC1 {
			t.Errorf("type $%02X: expected MBC1=%v, got controller %T", tt.cartType, tt.isMBC1, cart.controller)
		}
	}
}

func TestLoad_TruncatedImage_ShouldFail(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"shorter than header", make([]byte, 0x14F)},
		{"shorter than declared size", NewTestROMBuilder().WithROMSizeCode(1).Build()[:0x8000]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := Load(tt.data)
			if err == nil {
				t.Fatal("Expected error for truncated image, got success")
			}
			if cart != nil {
				t.Error("Expected nil cartridge on error")
			}

			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("Expected *LoadError, got %T", err)
			}
			if !errors.Is(err, ErrTruncated) {
				t.Errorf("Expected ErrTruncated, got %v", err)
			}
		})
	}
}

func TestLoad_InvalidROMSizeCode_ShouldFail(t *testing.T) {
	data := NewTestROMBuilder().Build()
	data[romSizeOffset] = 0x09

	_, err := Load(data)

	if !errors.Is(err, ErrInvalidROMSize) {
		t.Fatalf("Expected ErrInvalidROMSize, got %v", err)
	}
}

func TestLoad_ChecksumMismatch_ShouldOnlyWarn(t *testing.T) {
	data := NewTestROMBuilder().WithBadChecksum().Build()

	cart, err := Load(data)

	if err != nil {
		t.Fatalf("Expected checksum mismatch to load, got %v", err)
	}
	if cart.Header().ChecksumValid(data) {
		t.Error("Expected checksum to be reported invalid")
	}
}

func TestComputeHeaderChecksum_KnownValue(t *testing.T) {
	data := make([]byte, headerEnd)
	// All zero bytes: 25 iterations of x = x - 0 - 1
	if got := ComputeHeaderChecksum(data); got != 0xE7 {
		t.Errorf("Expected checksum $E7, got $%02X", got)
	}
}

func TestValidateProgram(t *testing.T) {
	if err := ValidateProgram(nil); !errors.Is(err, ErrEmptyProgram) {
		t.Errorf("Expected ErrEmptyProgram, got %v", err)
	}
	if err := ValidateProgram(make([]byte, 0x8001)); !errors.Is(err, ErrProgramTooLarge) {
		t.Errorf("Expected ErrProgramTooLarge, got %v", err)
	}
	if err := ValidateProgram(make([]byte, 0x8000)); err != nil {
		t.Errorf("Expected 32KB program to be accepted, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	data := NewTestROMBuilder().WithInstructions(0x00, 0x18, 0xFD).Build()
	path := filepath.Join(t.TempDir(), "test.gb")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write ROM: %v", err)
	}

	cart, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("Expected successful load, got error: %v", err)
	}
	if cart.ReadROM(ProgramStart+1) != 0x18 {
		t.Errorf("Expected program byte 0x18, got 0x%02X", cart.ReadROM(ProgramStart+1))
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.gb")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadFromReader_EntryPoint(t *testing.T) {
	cart, err := LoadFromReader(bytes.NewReader(NewTestROMBuilder().Build()))
	if err != nil {
		t.Fatalf("Expected successful load, got error: %v", err)
	}

	// NOP; JP 0150
	expected := []uint8{0x00, 0xC3, 0x50, 0x01}
	for i, value := range expected {
		if got := cart.ReadROM(0x0100 + uint16(i)); got != value {
			t.Errorf("Entry byte %d: expected 0x%02X, got 0x%02X", i, value, got)
		}
	}
}

func TestHeader_String(t *testing.T) {
	header := Header{Title: "ZELDA", Type: TypeMBC1RAMBattery, ROMSizeCode: 4, RAMSizeCode: 3}
	expected := `"ZELDA" type=MBC1+RAM+BATTERY rom=512KB ram=32KB`
	if header.String() != expected {
		t.Errorf("Expected %s, got %s", expected, header.String())
	}
	if TypeName(0xFE) != "UNKNOWN $FE" {
		t.Errorf("Unexpected name for unknown type: %s", TypeName(0xFE))
	}
}
