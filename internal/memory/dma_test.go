package memory

import (
	"testing"
)

// TestOAMDMA_BasicTransfer tests basic OAM DMA functionality
func TestOAMDMA_BasicTransfer(t *testing.T) {
	mem := New(&MockPPU{})

	// Set up test data in work RAM
	for i := 0; i < 0x100; i++ {
		mem.Write(0xC000+uint16(i), uint8(i))
	}

	mem.Write(RegDMA, 0xC0)

	for i := 0; i < 0xA0; i++ {
		if got := mem.Read(0xFE00 + uint16(i)); got != uint8(i) {
			t.Fatalf("OAM[%02X] = %02X, want %02X", i, got, uint8(i))
		}
	}
	if got := mem.Read(RegDMA); got != 0xC0 {
		t.Errorf("DMA register = %02X, want C0", got)
	}
}

func TestOAMDMA_AllPageSources(t *testing.T) {
	testPages := []struct {
		page        uint8
		description string
	}{
		{0x00, "Page 00 (ROM)"},
		{0x40, "Page 40 (switchable ROM)"},
		{0x80, "Page 80 (VRAM)"},
		{0xA0, "Page A0 (external RAM)"},
		{0xC0, "Page C0 (work RAM)"},
		{0xDF, "Page DF (work RAM end)"},
	}

	for _, tp := range testPages {
		t.Run(tp.description, func(t *testing.T) {
			mem := New(&MockPPU{})
			cart := &MockCartridge{}
			mem.LoadCartridge(cart)

			base := uint16(tp.page) << 8
			for i := uint16(0); i < 0xA0; i++ {
				value := uint8(i) ^ tp.page
				switch {
				case base < 0x8000:
					cart.rom[base+i] = value
				case base >= 0xA000 && base < 0xC000:
					cart.ram[base-0xA000+i] = value
				default:
					mem.Write(base+i, value)
				}
			}

			mem.Write(RegDMA, tp.page)

			for i := uint16(0); i < 0xA0; i++ {
				if got := mem.Read(0xFE00 + i); got != uint8(i)^tp.page {
					t.Fatalf("OAM[%02X] = %02X, want %02X", i, got, uint8(i)^tp.page)
				}
			}
		})
	}
}

func TestOAMDMA_EchoSource(t *testing.T) {
	mem := New(&MockPPU{})
	mem.Write(0xC000, 0x77)

	mem.Write(RegDMA, 0xE0)

	if got := mem.Read(0xFE00); got != 0x77 {
		t.Errorf("OAM[00] = %02X, want 77", got)
	}
}

func TestOAMDMA_Callback(t *testing.T) {
	mem := New(&MockPPU{})
	var pages []uint8
	mem.SetDMACallback(func(page uint8) {
		pages = append(pages, page)
	})
	mem.Write(0xC000, 0x42)

	mem.Write(RegDMA, 0xC0)

	if len(pages) != 1 || pages[0] != 0xC0 {
		t.Fatalf("Expected callback with page C0, got %v", pages)
	}
	if mem.Read(0xFE00) != 0x00 {
		t.Error("Expected the callback to replace the built-in copy")
	}

	mem.CopyToOAM(0xC0)
	if mem.Read(0xFE00) != 0x42 {
		t.Errorf("Expected CopyToOAM to copy, got %02X", mem.Read(0xFE00))
	}
}

func TestOAMDMA_DoesNotTouchPastOAM(t *testing.T) {
	mem := New(&MockPPU{})
	for i := 0; i < 0x100; i++ {
		mem.Write(0xC000+uint16(i), 0xEE)
	}

	mem.Write(RegDMA, 0xC0)

	if got := mem.Read(0xFEA0); got != 0xFF {
		t.Errorf("Unusable region read = %02X, want FF", got)
	}
	if mem.data[0xFEA0] != 0x00 {
		t.Errorf("Expected no copy past OAM, got %02X", mem.data[0xFEA0])
	}
}
