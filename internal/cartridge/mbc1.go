package cartridge

// MBC1 implements the MBC1 bank controller.
//
// Register windows (writes to ROM space):
//
//	0x0000-0x1FFF  RAM enable (0x0A in the low nibble enables)
//	0x2000-0x3FFF  ROM bank, low 5 bits (0 selects 1)
//	0x4000-0x5FFF  RAM bank or ROM bank bits 5-6
//	0x6000-0x7FFF  banking mode
type MBC1 struct {
	cart *Cartridge

	ramEnabled bool
	romBank    uint8 // 5-bit register
	upperBank  uint8 // 2-bit register
	mode       uint8 // 0 simple, 1 advanced

	romBanks int
	ramBanks int
}

// NewMBC1 creates a new MBC1 controller
func NewMBC1(cart *Cartridge) *MBC1 {
	return &MBC1{
		cart:     cart,
		romBank:  1,
		romBanks: len(cart.rom) / romBankSize,
		ramBanks: len(cart.ram) / ramBankSize,
	}
}

// ReadROM reads through the current ROM bank mapping
func (m *MBC1) ReadROM(address uint16) uint8 {
	var bank int
	if address < romBankSize {
		if m.mode == 1 {
			bank = int(m.upperBank) << 5
		}
	} else {
		bank = int(m.upperBank)<<5 | int(m.romBank)
	}
	if m.romBanks > 0 {
		bank %= m.romBanks
	}

	offset := bank*romBankSize + int(address)%romBankSize
	if offset < len(m.cart.rom) {
		return m.cart.rom[offset]
	}
	return 0xFF
}

// WriteROM updates the controller registers
func (m *MBC1) WriteROM(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case address < 0x4000:
		m.romBank = value & 0x1F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address < 0x6000:
		m.upperBank = value & 0x03
	default:
		m.mode = value & 0x01
	}
}

// ramOffset returns the index into external RAM, or -1 when RAM is not
// accessible
func (m *MBC1) ramOffset(address uint16) int {
	if !m.ramEnabled || len(m.cart.ram) == 0 {
		return -1
	}
	bank := 0
	if m.mode == 1 && m.ramBanks > 1 {
		bank = int(m.upperBank) % m.ramBanks
	}
	offset := bank*ramBankSize + int(address-0xA000)
	if offset >= len(m.cart.ram) {
		return -1
	}
	return offset
}

// ReadRAM reads external RAM, 0xFF while disabled
func (m *MBC1) ReadRAM(address uint16) uint8 {
	if offset := m.ramOffset(address); offset >= 0 {
		return m.cart.ram[offset]
	}
	return 0xFF
}

// WriteRAM writes external RAM while enabled
func (m *MBC1) WriteRAM(address uint16, value uint8) {
	if offset := m.ramOffset(address); offset >= 0 {
		m.cart.ram[offset] = value
	}
}
