package ppu

import (
	"fmt"
	"sort"

	"gogb/internal/memory"
)

const (
	vramStart = 0x8000
	vramEnd   = 0x9FFF

	tileMap0      = 0x9800
	tileMap1      = 0x9C00
	tileDataLow   = 0x8000
	tileDataHigh  = 0x9000
	bytesPerTile  = 16
	tilesPerRow   = 32
	oamBase       = 0xFE00
	spriteCount   = 40
	spritesPerRow = 10

	spriteYOffset = 16
	spriteXOffset = 8
	windowXOffset = 7

	attrBehindBG = 0x80
	attrFlipY    = 0x40
	attrFlipX    = 0x20
	attrPalette1 = 0x10
)

// AddressError is raised in strict mode when a tile fetch leaves VRAM
type AddressError struct {
	Address int
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("ppu: tile fetch at $%X outside VRAM", e.Address)
}

// sprite is one OAM entry selected for the current line
type sprite struct {
	y, x  int
	tile  uint8
	attr  uint8
	index int
}

// renderScanline draws the current line into the framebuffer
func (p *PPU) renderScanline() {
	line := int(p.scanline)
	lcdc := p.memory.Read(memory.RegLCDC)
	row := p.frameBuffer[line*ScreenWidth : (line+1)*ScreenWidth]

	if lcdc&lcdcBGEnable != 0 {
		bgp := p.memory.Read(memory.RegBGP)
		p.renderBackground(lcdc, line, bgp, row)
		p.renderWindow(lcdc, line, bgp, row)
	} else {
		for x := range row {
			row[x] = 0
			p.bgIndex[x] = 0
		}
	}

	if lcdc&lcdcSpriteEnable != 0 {
		p.renderSprites(lcdc, line, row)
	}
}

func (p *PPU) renderBackground(lcdc uint8, line int, bgp uint8, row []uint8) {
	scy := int(p.memory.Read(memory.RegSCY))
	scx := int(p.memory.Read(memory.RegSCX))
	mapBase := tileMap0
	if lcdc&lcdcBGMap != 0 {
		mapBase = tileMap1
	}

	y := (line + scy) & 0xFF
	for x := 0; x < ScreenWidth; x++ {
		px := (x + scx) & 0xFF
		tile := p.fetch(mapBase + (y/8)*tilesPerRow + px/8)
		color := p.tilePixel(tileDataAddress(lcdc, tile, y%8), px%8)
		p.bgIndex[x] = color
		row[x] = shade(bgp, color)
	}
}

func (p *PPU) renderWindow(lcdc uint8, line int, bgp uint8, row []uint8) {
	if lcdc&lcdcWindowEnable == 0 {
		return
	}
	wy := int(p.memory.Read(memory.RegWY))
	wx := int(p.memory.Read(memory.RegWX)) - windowXOffset
	if line < wy || wx >= ScreenWidth {
		return
	}

	mapBase := tileMap0
	if lcdc&lcdcWindowMap != 0 {
		mapBase = tileMap1
	}

	y := p.windowLine
	for x := max(wx, 0); x < ScreenWidth; x++ {
		wxPixel := x - wx
		tile := p.fetch(mapBase + (y/8)*tilesPerRow + wxPixel/8)
		color := p.tilePixel(tileDataAddress(lcdc, tile, y%8), wxPixel%8)
		p.bgIndex[x] = color
		row[x] = shade(bgp, color)
	}
	p.windowLine++
}

// selectSprites returns up to ten sprites on the line in OAM order
func (p *PPU) selectSprites(line, height int) []sprite {
	selected := make([]sprite, 0, spritesPerRow)
	for i := 0; i < spriteCount && len(selected) < spritesPerRow; i++ {
		base := uint16(oamBase + i*4)
		y := int(p.memory.Read(base)) - spriteYOffset
		if line < y || line >= y+height {
			continue
		}
		selected = append(selected, sprite{
			y:     y,
			x:     int(p.memory.Read(base+1)) - spriteXOffset,
			tile:  p.memory.Read(base + 2),
			attr:  p.memory.Read(base + 3),
			index: i,
		})
	}
	return selected
}

func (p *PPU) renderSprites(lcdc uint8, line int, row []uint8) {
	height := 8
	if lcdc&lcdcSpriteSize != 0 {
		height = 16
	}

	sprites := p.selectSprites(line, height)
	// Lower X wins, ties go to the lower OAM index
	sort.SliceStable(sprites, func(i, j int) bool {
		return sprites[i].x < sprites[j].x
	})

	obp0 := p.memory.Read(memory.RegOBP0)
	obp1 := p.memory.Read(memory.RegOBP1)

	for x := 0; x < ScreenWidth; x++ {
		for _, s := range sprites {
			col := x - s.x
			if col < 0 || col >= 8 {
				continue
			}
			color := p.spritePixel(s, line, col, height)
			if color == 0 {
				continue
			}
			if s.attr&attrBehindBG == 0 || p.bgIndex[x] == 0 {
				palette := obp0
				if s.attr&attrPalette1 != 0 {
					palette = obp1
				}
				row[x] = shade(palette, color)
			}
			break
		}
	}
}

func (p *PPU) spritePixel(s sprite, line, col, height int) uint8 {
	tileRow := line - s.y
	if s.attr&attrFlipY != 0 {
		tileRow = height - 1 - tileRow
	}
	if s.attr&attrFlipX != 0 {
		col = 7 - col
	}
	tile := s.tile
	if height == 16 {
		tile &= 0xFE
	}
	return p.tilePixel(tileDataLow+int(tile)*bytesPerTile+tileRow*2, col)
}

// tileDataAddress resolves the address of a tile row for background and
// window tiles under either indexing scheme
func tileDataAddress(lcdc uint8, tile uint8, row int) int {
	if lcdc&lcdcTileData != 0 {
		return tileDataLow + int(tile)*bytesPerTile + row*2
	}
	return tileDataHigh + int(int8(tile))*bytesPerTile + row*2
}

// tilePixel decodes the 2-bit colour of one pixel from a tile row
func (p *PPU) tilePixel(address int, col int) uint8 {
	if !p.inVRAM(address) || !p.inVRAM(address+1) {
		return 0
	}
	lo := p.memory.Read(uint16(address))
	hi := p.memory.Read(uint16(address + 1))
	bit := uint(7 - col)
	return (hi>>bit&1)<<1 | lo>>bit&1
}

// fetch reads a tile map entry
func (p *PPU) fetch(address int) uint8 {
	if !p.inVRAM(address) {
		return 0
	}
	return p.memory.Read(uint16(address))
}

func (p *PPU) inVRAM(address int) bool {
	if address >= vramStart && address <= vramEnd {
		return true
	}
	if p.strict {
		panic(&AddressError{Address: address})
	}
	return false
}

// shade maps a colour index through a palette register
func shade(palette, color uint8) uint8 {
	return (palette >> (color * 2)) & 0x03
}
