// Package cartridge implements ROM loading, header parsing and bank
// controllers for handheld cartridges.
package cartridge

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Cartridge represents a loaded cartridge
type Cartridge struct {
	// ROM data, exactly the size declared by the header
	rom []uint8

	// External RAM (empty when the header declares none)
	ram []uint8

	header     Header
	controller BankController
}

// BankController is the strategy behind the cartridge's ROM and external
// RAM windows. ROM-region writes are controller commands.
type BankController interface {
	ReadROM(address uint16) uint8
	WriteROM(address uint16, value uint8)
	ReadRAM(address uint16) uint8
	WriteRAM(address uint16, value uint8)
}

// LoadFromFile loads a cartridge from a ROM file
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}
	return Load(data)
}

// Load parses the header at 0x0100-0x014F and builds a cartridge with the
// bank controller the header asks for
func Load(data []byte) (*Cartridge, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	romSize := header.ROMSize()
	if len(data) < romSize {
		return nil, &LoadError{Op: "load ROM", Size: len(data), Err: ErrTruncated}
	}
	if len(data) > romSize {
		log.Printf("[CARTRIDGE_WARNING] ROM image is %d bytes, header declares %d; ignoring the excess", len(data), romSize)
	}

	if !header.ChecksumValid(data) {
		log.Printf("[CARTRIDGE_WARNING] header checksum mismatch: stored $%02X, computed $%02X",
			header.Checksum, ComputeHeaderChecksum(data))
	}

	cart := &Cartridge{
		rom:    make([]uint8, romSize),
		ram:    make([]uint8, header.RAMSize()),
		header: header,
	}
	copy(cart.rom, data)

	cart.controller = createController(header.Type, cart)

	return cart, nil
}

// Header returns the parsed cartridge header
func (c *Cartridge) Header() Header {
	return c.header
}

// ReadROM reads from the 0x0000-0x7FFF window
func (c *Cartridge) ReadROM(address uint16) uint8 {
	return c.controller.ReadROM(address)
}

// WriteROM forwards a ROM-region write to the bank controller
func (c *Cartridge) WriteROM(address uint16, value uint8) {
	c.controller.WriteROM(address, value)
}

// ReadRAM reads from the 0xA000-0xBFFF window
func (c *Cartridge) ReadRAM(address uint16) uint8 {
	return c.controller.ReadRAM(address)
}

// WriteRAM writes to the 0xA000-0xBFFF window
func (c *Cartridge) WriteRAM(address uint16, value uint8) {
	c.controller.WriteRAM(address, value)
}

// createController creates the bank controller for a cartridge type
func createController(cartType uint8, cart *Cartridge) BankController {
	switch cartType {
	case TypeROMOnly, TypeROMRAM, TypeROMRAMBattery:
		return NewROMOnly(cart)
	case TypeMBC1, TypeMBC1RAM, TypeMBC1RAMBattery:
		return NewMBC1(cart)
	default:
		// Default to ROM only for unsupported controllers
		log.Printf("[CARTRIDGE_WARNING] unsupported cartridge type $%02X (%s), using ROM only",
			cartType, TypeName(cartType))
		return NewROMOnly(cart)
	}
}
