package cartridge

// ROMOnly implements cartridges without a bank controller.
// It supports:
// - 32KB ROM mapped directly at 0x0000-0x7FFF
// - up to 8KB external RAM at 0xA000-0xBFFF (types 0x08/0x09)
type ROMOnly struct {
	cart *Cartridge
}

// NewROMOnly creates a new ROM-only controller
func NewROMOnly(cart *Cartridge) *ROMOnly {
	return &ROMOnly{
		cart: cart,
	}
}

// ReadROM reads from ROM
func (m *ROMOnly) ReadROM(address uint16) uint8 {
	if int(address) < len(m.cart.rom) {
		return m.cart.rom[address]
	}
	return 0xFF
}

// WriteROM ignores the write, there are no controller registers
func (m *ROMOnly) WriteROM(address uint16, value uint8) {}

// ReadRAM reads from external RAM, open bus (0xFF) when absent
func (m *ROMOnly) ReadRAM(address uint16) uint8 {
	offset := int(address - 0xA000)
	if offset < len(m.cart.ram) {
		return m.cart.ram[offset]
	}
	return 0xFF
}

// WriteRAM writes to external RAM
func (m *ROMOnly) WriteRAM(address uint16, value uint8) {
	offset := int(address - 0xA000)
	if offset < len(m.cart.ram) {
		m.cart.ram[offset] = value
	}
}
