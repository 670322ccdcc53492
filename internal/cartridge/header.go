package cartridge

import (
	"fmt"
	"strings"
)

// Header field offsets
const (
	headerEnd       = 0x0150
	titleStart      = 0x0134
	titleEnd        = 0x0144
	typeOffset      = 0x0147
	romSizeOffset   = 0x0148
	ramSizeOffset   = 0x0149
	checksumOffset  = 0x014D
	maxROMSizeCode  = 0x08
	romBankSize     = 0x4000
	ramBankSize     = 0x2000
	minimumROMBytes = 0x8000
)

// Cartridge types with a bank controller
const (
	TypeROMOnly        = 0x00
	TypeMBC1           = 0x01
	TypeMBC1RAM        = 0x02
	TypeMBC1RAMBattery = 0x03
	TypeROMRAM         = 0x08
	TypeROMRAMBattery  = 0x09
)

var typeNames = map[uint8]string{
	0x00: "ROM ONLY",
	0x01: "MBC1",
	0x02: "MBC1+RAM",
	0x03: "MBC1+RAM+BATTERY",
	0x05: "MBC2",
	0x06: "MBC2+BATTERY",
	0x08: "ROM+RAM",
	0x09: "ROM+RAM+BATTERY",
	0x0B: "MMM01",
	0x0F: "MBC3+TIMER+BATTERY",
	0x10: "MBC3+TIMER+RAM+BATTERY",
	0x11: "MBC3",
	0x12: "MBC3+RAM",
	0x13: "MBC3+RAM+BATTERY",
	0x19: "MBC5",
	0x1A: "MBC5+RAM",
	0x1B: "MBC5+RAM+BATTERY",
	0x1C: "MBC5+RUMBLE",
	0x1D: "MBC5+RUMBLE+RAM",
	0x1E: "MBC5+RUMBLE+RAM+BATTERY",
}

// TypeName returns the conventional name of a cartridge type byte
func TypeName(cartType uint8) string {
	if name, ok := typeNames[cartType]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN $%02X", cartType)
}

// ramSizes maps the 0x149 code to bytes
var ramSizes = map[uint8]int{
	0x00: 0,
	0x01: 0x800,
	0x02: 0x2000,
	0x03: 0x8000,
	0x04: 0x20000,
	0x05: 0x10000,
}

// Header holds the fields of the cartridge header
type Header struct {
	Title       string
	Type        uint8
	ROMSizeCode uint8
	RAMSizeCode uint8
	Checksum    uint8
}

// ParseHeader reads the header fields from a ROM image
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerEnd {
		return Header{}, &LoadError{Op: "parse header", Size: len(data), Err: ErrTruncated}
	}

	header := Header{
		Title:       parseTitle(data[titleStart:titleEnd]),
		Type:        data[typeOffset],
		ROMSizeCode: data[romSizeOffset],
		RAMSizeCode: data[ramSizeOffset],
		Checksum:    data[checksumOffset],
	}

	if header.ROMSizeCode > maxROMSizeCode {
		return Header{}, &LoadError{Op: "parse header", Size: len(data), Err: ErrInvalidROMSize}
	}

	return header, nil
}

// parseTitle trims the NUL padding of the title field
func parseTitle(raw []byte) string {
	title := string(raw)
	if i := strings.IndexByte(title, 0); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

// ROMSize returns the declared ROM size in bytes (32 KiB << code)
func (h Header) ROMSize() int {
	return minimumROMBytes << h.ROMSizeCode
}

// ROMBanks returns the number of 16 KiB ROM banks
func (h Header) ROMBanks() int {
	return h.ROMSize() / romBankSize
}

// RAMSize returns the declared external RAM size in bytes. Unknown codes
// are treated as no RAM.
func (h Header) RAMSize() int {
	return ramSizes[h.RAMSizeCode]
}

// TypeName returns the name of the cartridge type
func (h Header) TypeName() string {
	return TypeName(h.Type)
}

// ChecksumValid reports whether the stored header checksum matches
func (h Header) ChecksumValid(data []byte) bool {
	return ComputeHeaderChecksum(data) == h.Checksum
}

// ComputeHeaderChecksum computes the header checksum over 0x0134-0x014C
func ComputeHeaderChecksum(data []byte) uint8 {
	var x uint8
	for i := titleStart; i < checksumOffset; i++ {
		x = x - data[i] - 1
	}
	return x
}

// String returns a one-line summary of the header
func (h Header) String() string {
	return fmt.Sprintf("%q type=%s rom=%dKB ram=%dKB", h.Title, h.TypeName(), h.ROMSize()/1024, h.RAMSize()/1024)
}
