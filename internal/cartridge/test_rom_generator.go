package cartridge

import (
	"bytes"
)

// TestROMBuilder provides utilities for generating minimal test ROMs with
// a valid header. The entry point at 0x0100 jumps to the program, which is
// placed at ProgramStart.

// ProgramStart is where generated ROMs place their program
const ProgramStart = 0x0150

// TestROMConfig represents configuration for test ROM generation
type TestROMConfig struct {
	Title        string
	Type         uint8
	ROMSizeCode  uint8
	RAMSizeCode  uint8
	Instructions []uint8       // Program placed at ProgramStart
	InitialData  map[int]uint8 // Data at specific ROM offsets (any bank)
	BadChecksum  bool          // Store a wrong header checksum
}

// TestROMBuilder provides a fluent interface for building test ROMs
type TestROMBuilder struct {
	config TestROMConfig
}

// NewTestROMBuilder creates a new test ROM builder with default configuration
func NewTestROMBuilder() *TestROMBuilder {
	return &TestROMBuilder{
		config: TestROMConfig{
			Title:       "TEST",
			Type:        TypeROMOnly,
			InitialData: make(map[int]uint8),
		},
	}
}

// WithTitle sets the header title
func (b *TestROMBuilder) WithTitle(title string) *TestROMBuilder {
	b.config.Title = title
	return b
}

// WithType sets the cartridge type byte
func (b *TestROMBuilder) WithType(cartType uint8) *TestROMBuilder {
	b.config.Type = cartType
	return b
}

// WithROMSizeCode sets the ROM size code (32KB << code)
func (b *TestROMBuilder) WithROMSizeCode(code uint8) *TestROMBuilder {
	b.config.ROMSizeCode = code
	return b
}

// WithRAMSizeCode sets the RAM size code
func (b *TestROMBuilder) WithRAMSizeCode(code uint8) *TestROMBuilder {
	b.config.RAMSizeCode = code
	return b
}

// WithInstructions sets the program placed at ProgramStart
func (b *TestROMBuilder) WithInstructions(instructions ...uint8) *TestROMBuilder {
	b.config.Instructions = append([]uint8(nil), instructions...)
	return b
}

// WithData sets initial data at a ROM offset
func (b *TestROMBuilder) WithData(offset int, data ...uint8) *TestROMBuilder {
	for i, value := range data {
		b.config.InitialData[offset+i] = value
	}
	return b
}

// WithBadChecksum stores an incorrect header checksum
func (b *TestROMBuilder) WithBadChecksum() *TestROMBuilder {
	b.config.BadChecksum = true
	return b
}

// Build generates the ROM data based on the current configuration
func (b *TestROMBuilder) Build() []byte {
	return GenerateTestROM(b.config)
}

// BuildCartridge generates and loads the ROM as a cartridge
func (b *TestROMBuilder) BuildCartridge() (*Cartridge, error) {
	return LoadFromReader(bytes.NewReader(b.Build()))
}

// GenerateTestROM creates a ROM image based on the provided configuration
func GenerateTestROM(config TestROMConfig) []byte {
	size := minimumROMBytes << config.ROMSizeCode
	rom := make([]byte, size)

	// Entry point: NOP; JP ProgramStart
	copy(rom[0x0100:], []byte{0x00, 0xC3, uint8(ProgramStart & 0xFF), uint8(ProgramStart >> 8)})
	copy(rom[titleStart:titleEnd], config.Title)
	rom[typeOffset] = config.Type
	rom[romSizeOffset] = config.ROMSizeCode
	rom[ramSizeOffset] = config.RAMSizeCode

	copy(rom[ProgramStart:], config.Instructions)
	for offset, value := range config.InitialData {
		if offset >= 0 && offset < size {
			rom[offset] = value
		}
	}

	rom[checksumOffset] = ComputeHeaderChecksum(rom)
	if config.BadChecksum {
		rom[checksumOffset]++
	}

	return rom
}
