package cartridge

import (
	"testing"
)

// createTestCartridge builds a cartridge with a recognisable ROM pattern
func createTestCartridge(t *testing.T, cartType, romCode, ramCode uint8) *Cartridge {
	t.Helper()

	builder := NewTestROMBuilder().WithType(cartType).WithROMSizeCode(romCode).WithRAMSizeCode(ramCode)
	cart, err := builder.BuildCartridge()
	if err != nil {
		t.Fatalf("Failed to build cartridge: %v", err)
	}
	// Tag every bank with its number in its first byte past the header
	for bank := 0; bank < len(cart.rom)/romBankSize; bank++ {
		cart.rom[bank*romBankSize+0x1000] = uint8(bank)
	}
	return cart
}

func TestROMOnly_ReadROM_ShouldMapDirectly(t *testing.T) {
	cart := createTestCartridge(t, TypeROMOnly, 0, 0)
	cart.rom[0x7FFF] = 0xAB

	if got := cart.ReadROM(0x1000); got != 0x00 {
		t.Errorf("Expected bank 0 tag, got %d", got)
	}
	if got := cart.ReadROM(0x5000); got != 0x01 {
		t.Errorf("Expected bank 1 tag, got %d", got)
	}
	if got := cart.ReadROM(0x7FFF); got != 0xAB {
		t.Errorf("Expected 0xAB at 0x7FFF, got 0x%02X", got)
	}
}

func TestROMOnly_WriteROM_ShouldBeIgnored(t *testing.T) {
	cart := createTestCartridge(t, TypeROMOnly, 0, 0)
	before := cart.ReadROM(0x2000)

	cart.WriteROM(0x2000, before+1)

	if cart.ReadROM(0x2000) != before {
		t.Error("Expected ROM write to be ignored")
	}
}

func TestROMOnly_RAM(t *testing.T) {
	t.Run("absent RAM reads open bus", func(t *testing.T) {
		cart := createTestCartridge(t, TypeROMOnly, 0, 0)
		cart.WriteRAM(0xA000, 0x12)
		if got := cart.ReadRAM(0xA000); got != 0xFF {
			t.Errorf("Expected 0xFF, got 0x%02X", got)
		}
	})

	t.Run("8KB RAM persists", func(t *testing.T) {
		cart := createTestCartridge(t, TypeROMRAM, 0, 2)
		cart.WriteRAM(0xA000, 0x12)
		cart.WriteRAM(0xBFFF, 0x34)
		if cart.ReadRAM(0xA000) != 0x12 || cart.ReadRAM(0xBFFF) != 0x34 {
			t.Errorf("Expected RAM contents to persist, got 0x%02X 0x%02X", cart.ReadRAM(0xA000), cart.ReadRAM(0xBFFF))
		}
	})

	t.Run("2KB RAM beyond size reads open bus", func(t *testing.T) {
		cart := createTestCartridge(t, TypeROMRAM, 0, 1)
		cart.WriteRAM(0xA800, 0x12)
		if got := cart.ReadRAM(0xA800); got != 0xFF {
			t.Errorf("Expected 0xFF past the end of RAM, got 0x%02X", got)
		}
	})
}
