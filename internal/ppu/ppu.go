// Package ppu implements the handheld's Pixel Processing Unit.
package ppu

import (
	"gogb/internal/memory"
)

// Screen dimensions
const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// Timing in T-cycles (dots)
const (
	DotsPerLine   = 456
	LinesPerFrame = 154
	DotsPerFrame  = DotsPerLine * LinesPerFrame

	oamSearchEnd  = 80
	transferEnd   = oamSearchEnd + 172
	vblankStart   = ScreenHeight
	lastFrameLine = LinesPerFrame - 1
)

// PPU modes as reported in STAT bits 0-1
const (
	ModeHBlank    uint8 = 0
	ModeVBlank    uint8 = 1
	ModeOAMSearch uint8 = 2
	ModeTransfer  uint8 = 3
)

// LCDC bits
const (
	lcdcBGEnable      = 0x01
	lcdcSpriteEnable  = 0x02
	lcdcSpriteSize    = 0x04
	lcdcBGMap         = 0x08
	lcdcTileData      = 0x10
	lcdcWindowEnable  = 0x20
	lcdcWindowMap     = 0x40
	lcdcDisplayEnable = 0x80
)

// STAT interrupt source bits
const (
	statHBlankSource = 0x08
	statVBlankSource = 0x10
	statOAMSource    = 0x20
	statLYCSource    = 0x40
)

// MemoryInterface is the PPU's view of the bus: plain reads of VRAM, OAM
// and its configuration registers, plus interrupt requests
type MemoryInterface interface {
	Read(address uint16) uint8
	RequestInterrupt(interrupt memory.Interrupt)
}

// Tracer receives optional PPU hooks
type Tracer interface {
	ModeChanged(scanline uint8, mode uint8)
	FrameCompleted(frame uint64)
}

// Option configures a PPU at construction time
type Option func(*PPU)

// WithTracer injects a PPU tracer
func WithTracer(tracer Tracer) Option {
	return func(p *PPU) {
		p.tracer = tracer
	}
}

// WithStrictAddressing makes tile fetches outside VRAM panic instead of
// producing a transparent pixel
func WithStrictAddressing(strict bool) Option {
	return func(p *PPU) {
		p.strict = strict
	}
}

// PPU represents the Pixel Processing Unit
type PPU struct {
	memory MemoryInterface

	// Rendering State
	scanline   uint8 // Current scanline (0 to 153)
	dots       int   // Dot within the scanline (0 to 455)
	mode       uint8
	enabled    bool
	frameCount uint64
	frameReady bool

	// STAT interrupt line, requests fire on its rising edge
	statLine bool

	// LY == LYC as of the last evaluated dot
	coincidence bool

	// Internal window line counter
	windowLine int

	// Frame Buffer (palette-applied shades 0-3)
	frameBuffer [ScreenWidth * ScreenHeight]uint8

	// Raw background colour indices of the current line, used for sprite
	// priority
	bgIndex [ScreenWidth]uint8

	tracer Tracer
	strict bool
}

// New creates a new PPU instance at the start of line 0
func New(mem MemoryInterface, opts ...Option) *PPU {
	p := &PPU{
		memory: mem,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

// Reset resets the PPU to the start of a frame
func (p *PPU) Reset() {
	p.scanline = 0
	p.dots = 0
	p.mode = ModeOAMSearch
	p.enabled = true
	p.frameCount = 0
	p.frameReady = false
	p.statLine = false
	p.coincidence = false
	p.windowLine = 0
	p.frameBuffer = [ScreenWidth * ScreenHeight]uint8{}
}

// Step advances the PPU by the given number of T-cycles
func (p *PPU) Step(cycles int) {
	if p.memory.Read(memory.RegLCDC)&lcdcDisplayEnable == 0 {
		if p.enabled {
			p.disable()
		}
		p.coincidence = p.scanline == p.memory.Read(memory.RegLYC)
		return
	}
	if !p.enabled {
		p.enable()
	}

	for i := 0; i < cycles; i++ {
		p.tick()
	}
}

// disable holds the PPU at line 0 in H-Blank
func (p *PPU) disable() {
	p.enabled = false
	p.scanline = 0
	p.dots = 0
	p.mode = ModeHBlank
	p.statLine = false
	p.windowLine = 0
}

// enable restarts the display at the beginning of line 0
func (p *PPU) enable() {
	p.enabled = true
	p.scanline = 0
	p.dots = 0
	p.windowLine = 0
	p.setMode(ModeOAMSearch)
	p.updateStatLine()
}

// tick advances a single dot
func (p *PPU) tick() {
	p.dots++

	if p.scanline < vblankStart {
		switch p.dots {
		case oamSearchEnd:
			p.setMode(ModeTransfer)
		case transferEnd:
			p.renderScanline()
			p.setMode(ModeHBlank)
		}
	}

	if p.dots == DotsPerLine {
		p.dots = 0
		p.nextLine()
	}

	p.updateStatLine()
}

func (p *PPU) nextLine() {
	if p.scanline == lastFrameLine {
		p.scanline = 0
		p.windowLine = 0
	} else {
		p.scanline++
	}

	switch {
	case p.scanline == vblankStart:
		p.setMode(ModeVBlank)
		p.memory.RequestInterrupt(memory.VBlank)
		p.frameReady = true
		p.frameCount++
		if p.tracer != nil {
			p.tracer.FrameCompleted(p.frameCount)
		}
	case p.scanline < vblankStart:
		p.setMode(ModeOAMSearch)
	}
}

func (p *PPU) setMode(mode uint8) {
	p.mode = mode
	if p.tracer != nil {
		p.tracer.ModeChanged(p.scanline, mode)
	}
}

// updateStatLine recomputes the OR of the enabled STAT sources and
// requests LCDStat when it goes from low to high
func (p *PPU) updateStatLine() {
	enables := p.memory.Read(memory.RegSTAT)
	p.coincidence = p.scanline == p.memory.Read(memory.RegLYC)

	line := false
	switch {
	case enables&statLYCSource != 0 && p.coincidence:
		line = true
	case enables&statHBlankSource != 0 && p.mode == ModeHBlank:
		line = true
	case enables&statVBlankSource != 0 && p.mode == ModeVBlank:
		line = true
	case enables&statOAMSource != 0 && p.mode == ModeOAMSearch:
		line = true
	}

	if line && !p.statLine {
		p.memory.RequestInterrupt(memory.LCDStat)
	}
	p.statLine = line
}

// Mode returns the current mode (0-3)
func (p *PPU) Mode() uint8 {
	return p.mode
}

// Scanline returns the current scanline (LY)
func (p *PPU) Scanline() uint8 {
	return p.scanline
}

// Coincidence reports whether LY equaled LYC at the last evaluated dot
func (p *PPU) Coincidence() bool {
	return p.coincidence
}

// Dots returns the dot within the current scanline
func (p *PPU) Dots() int {
	return p.dots
}

// Enabled reports whether the display is on
func (p *PPU) Enabled() bool {
	return p.enabled
}

// TakeFrameReady returns true once per completed frame
func (p *PPU) TakeFrameReady() bool {
	ready := p.frameReady
	p.frameReady = false
	return ready
}

// GetFrameCount returns the number of frames completed
func (p *PPU) GetFrameCount() uint64 {
	return p.frameCount
}

// FrameBuffer returns the framebuffer. It is stable only between
// TakeFrameReady returning true and the next Step.
func (p *PPU) FrameBuffer() *[ScreenWidth * ScreenHeight]uint8 {
	return &p.frameBuffer
}
