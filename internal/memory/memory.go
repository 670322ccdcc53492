// Package memory implements the handheld's memory bus (MMU).
package memory

import (
	"fmt"
	"io"
	"log"

	"gogb/internal/cartridge"
)

// Memory map boundaries
const (
	romEnd      = 0x8000
	extRAMStart = 0xA000
	extRAMEnd   = 0xC000
	wramStart   = 0xC000
	echoStart   = 0xE000
	echoEnd     = 0xFE00
	oamStart    = 0xFE00
	oamEnd      = 0xFEA0
	unusableEnd = 0xFF00

	// OAM DMA copies this many bytes to OAM
	oamSize = 0xA0
)

// Hardware register addresses
const (
	RegP1   = 0xFF00
	RegSB   = 0xFF01
	RegSC   = 0xFF02
	RegDIV  = 0xFF04
	RegTIMA = 0xFF05
	RegTMA  = 0xFF06
	RegTAC  = 0xFF07
	RegIF   = 0xFF0F
	RegLCDC = 0xFF40
	RegSTAT = 0xFF41
	RegSCY  = 0xFF42
	RegSCX  = 0xFF43
	RegLY   = 0xFF44
	RegLYC  = 0xFF45
	RegDMA  = 0xFF46
	RegBGP  = 0xFF47
	RegOBP0 = 0xFF48
	RegOBP1 = 0xFF49
	RegWY   = 0xFF4A
	RegWX   = 0xFF4B
	RegIE   = 0xFFFF
)

// Interrupt identifies one of the five interrupt sources, in priority order
type Interrupt uint8

const (
	VBlank Interrupt = iota
	LCDStat
	Timer
	Serial
	Joypad
)

// Mask returns the interrupt's bit in IE and IF
func (i Interrupt) Mask() uint8 {
	return 1 << i
}

func (i Interrupt) String() string {
	switch i {
	case VBlank:
		return "VBlank"
	case LCDStat:
		return "LCDStat"
	case Timer:
		return "Timer"
	case Serial:
		return "Serial"
	case Joypad:
		return "Joypad"
	default:
		return fmt.Sprintf("Interrupt(%d)", uint8(i))
	}
}

// PPUStatus is the read-only view of the PPU used to compose LY and STAT.
// Implementations must not call back into Memory.
type PPUStatus interface {
	Mode() uint8
	Scanline() uint8
	Coincidence() bool
}

// TimerInterface defines the interface for the DIV/TIMA/TMA/TAC registers
type TimerInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// InputInterface defines the interface for the P1 joypad register
type InputInterface interface {
	Read() uint8
	Write(value uint8)
}

// CartridgeInterface defines the interface for cartridge access. ROM
// writes are bank controller commands.
type CartridgeInterface interface {
	ReadROM(address uint16) uint8
	WriteROM(address uint16, value uint8)
	ReadRAM(address uint16) uint8
	WriteRAM(address uint16, value uint8)
}

// AddressError reports an address outside the region an internal helper
// was asked to translate
type AddressError struct {
	Address    uint16
	Start, End uint16
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("address 0x%04X outside region 0x%04X-0x%04X", e.Address, e.Start, e.End-1)
}

// Memory represents the 64 KiB address space
type Memory struct {
	// Backing store for every region not routed elsewhere
	data [0x10000]uint8

	// Read-only PPU status for LY/STAT
	ppu PPUStatus

	// Timer registers
	timer TimerInterface

	// Input system
	inputSystem InputInterface

	// Cartridge
	cartridge CartridgeInterface

	// DMA callback
	dmaCallback func(uint8)

	// Serial output, nil discards transferred bytes
	serialOut io.Writer

	ioLogging bool
}

// New creates a new Memory instance with post-boot register values
func New(ppu PPUStatus) *Memory {
	mem := &Memory{
		ppu: ppu,
	}
	mem.initializePowerUpState()
	return mem
}

// initializePowerUpState writes the I/O register values left by the boot ROM
func (m *Memory) initializePowerUpState() {
	m.data[RegP1] = 0xCF
	m.data[RegSC] = 0x7E
	m.data[RegIF] = 0x01
	m.data[RegLCDC] = 0x91
	m.data[RegSTAT] = 0x00
	m.data[RegBGP] = 0xFC
	m.data[RegOBP0] = 0xFF
	m.data[RegOBP1] = 0xFF
	m.data[RegDMA] = 0xFF
}

// SetPPU sets the PPU status source
func (m *Memory) SetPPU(ppu PPUStatus) {
	m.ppu = ppu
}

// SetTimer sets the timer register handler
func (m *Memory) SetTimer(timer TimerInterface) {
	m.timer = timer
}

// SetInputSystem sets the input system for joypad access
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetDMACallback sets the DMA callback function
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// SetSerialOutput sets the destination for bytes sent over the serial port
func (m *Memory) SetSerialOutput(w io.Writer) {
	m.serialOut = w
}

// EnableIOLogging logs every write to the I/O register window
func (m *Memory) EnableIOLogging(enabled bool) {
	m.ioLogging = enabled
}

// LoadCartridge routes the ROM and external RAM regions to a cartridge
func (m *Memory) LoadCartridge(cart CartridgeInterface) {
	m.cartridge = cart
}

// LoadProgram copies a raw program image to address 0x0000. The image is
// used directly as ROM with no bank controller.
func (m *Memory) LoadProgram(program []byte) error {
	if err := cartridge.ValidateProgram(program); err != nil {
		return err
	}
	m.cartridge = nil
	clear(m.data[:romEnd])
	copy(m.data[:romEnd], program)
	return nil
}

// RequestInterrupt sets the interrupt's bit in IF
func (m *Memory) RequestInterrupt(interrupt Interrupt) {
	m.data[RegIF] |= interrupt.Mask()
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	switch {
	case address < romEnd:
		if m.cartridge != nil {
			return m.cartridge.ReadROM(address)
		}
		return m.data[address]

	case address >= extRAMStart && address < extRAMEnd:
		if m.cartridge != nil {
			return m.cartridge.ReadRAM(address)
		}
		return m.data[address]

	case address < echoStart:
		// VRAM, work RAM
		return m.data[address]

	case address < echoEnd:
		return m.data[echoOffset(address)]

	case address < oamEnd:
		return m.data[address]

	case address < unusableEnd:
		return 0xFF

	case address < 0xFF80:
		return m.readIO(address)

	default:
		// High RAM and IE
		return m.data[address]
	}
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < romEnd:
		// ROM is read-only, writes are bank controller commands
		if m.cartridge != nil {
			m.cartridge.WriteROM(address, value)
		}

	case address >= extRAMStart && address < extRAMEnd:
		if m.cartridge != nil {
			m.cartridge.WriteRAM(address, value)
			return
		}
		m.data[address] = value

	case address < echoStart:
		m.data[address] = value

	case address < echoEnd:
		m.data[echoOffset(address)] = value

	case address < oamEnd:
		m.data[address] = value

	case address < unusableEnd:
		// Unusable, ignore writes

	case address < 0xFF80:
		if m.ioLogging {
			log.Printf("[MEMORY_DEBUG] I/O write $%04X = $%02X", address, value)
		}
		m.writeIO(address, value)

	default:
		m.data[address] = value
	}
}

func (m *Memory) readIO(address uint16) uint8 {
	switch address {
	case RegP1:
		if m.inputSystem != nil {
			return m.inputSystem.Read()
		}
		return m.data[RegP1] | 0xCF

	case RegSC:
		return m.data[RegSC] | 0x7E

	case RegDIV, RegTIMA, RegTMA, RegTAC:
		if m.timer != nil {
			return m.timer.Read(address)
		}
		return m.data[address]

	case RegIF:
		return m.data[RegIF] | 0xE0

	case RegSTAT:
		// Bits 3-6 are CPU-written, the rest are computed now
		value := 0x80 | m.data[RegSTAT]&0x78
		if m.ppu != nil {
			if m.ppu.Coincidence() {
				value |= 0x04
			}
			value |= m.ppu.Mode() & 0x03
		}
		return value

	case RegLY:
		if m.ppu != nil {
			return m.ppu.Scanline()
		}
		return 0

	default:
		return m.data[address]
	}
}

func (m *Memory) writeIO(address uint16, value uint8) {
	switch address {
	case RegP1:
		m.data[RegP1] = value & 0x30
		if m.inputSystem != nil {
			m.inputSystem.Write(value)
		}

	case RegSC:
		m.data[RegSC] = value
		if value&0x81 == 0x81 {
			m.completeSerialTransfer()
		}

	case RegDIV, RegTIMA, RegTMA, RegTAC:
		if m.timer != nil {
			m.timer.Write(address, value)
			return
		}
		m.data[address] = value

	case RegIF:
		m.data[RegIF] = value & 0x1F

	case RegSTAT:
		m.data[RegSTAT] = value & 0x78

	case RegLY:
		// Read-only

	case RegDMA:
		m.data[RegDMA] = value
		if m.dmaCallback != nil {
			m.dmaCallback(value)
		} else {
			m.performOAMDMA(value)
		}

	default:
		m.data[address] = value
	}
}

// completeSerialTransfer finishes an internal-clock transfer at once. With
// no link partner the received byte is 0xFF.
func (m *Memory) completeSerialTransfer() {
	if m.serialOut != nil {
		if _, err := m.serialOut.Write([]byte{m.data[RegSB]}); err != nil {
			log.Printf("[MEMORY_WARNING] serial output: %v", err)
		}
	}
	m.data[RegSB] = 0xFF
	m.data[RegSC] &^= 0x80
	m.RequestInterrupt(Serial)
}

// performOAMDMA copies 160 bytes from page<<8 to OAM
func (m *Memory) performOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < oamSize; i++ {
		m.data[oamStart+i] = m.Read(base + i)
	}
}

// CopyToOAM is the DMA entry point used by the scheduler
func (m *Memory) CopyToOAM(page uint8) {
	m.performOAMDMA(page)
}

// echoOffset maps E000-FDFF onto C000-DDFF
func echoOffset(address uint16) uint16 {
	return regionOffset(address, echoStart, echoEnd) + wramStart
}

// regionOffset returns address-start, panicking when address is not in
// [start, end)
func regionOffset(address, start, end uint16) uint16 {
	if address < start || address >= end {
		panic(&AddressError{Address: address, Start: start, End: end})
	}
	return address - start
}
