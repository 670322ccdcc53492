package graphics

import (
	"fmt"
	"image/color"
)

// Palette maps the four shades to display colours
type Palette [4]color.RGBA

// Built-in palettes
var (
	// PaletteDMG approximates the green tint of the original LCD
	PaletteDMG = Palette{
		{R: 0x9B, G: 0xBC, B: 0x0F, A: 0xFF},
		{R: 0x8B, G: 0xAC, B: 0x0F, A: 0xFF},
		{R: 0x30, G: 0x62, B: 0x30, A: 0xFF},
		{R: 0x0F, G: 0x38, B: 0x0F, A: 0xFF},
	}

	PaletteGray = Palette{
		{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		{R: 0xAA, G: 0xAA, B: 0xAA, A: 0xFF},
		{R: 0x55, G: 0x55, B: 0x55, A: 0xFF},
		{R: 0x00, G: 0x00, B: 0x00, A: 0xFF},
	}
)

// PaletteByName resolves a palette name from configuration
func PaletteByName(name string) (Palette, error) {
	switch name {
	case "dmg", "":
		return PaletteDMG, nil
	case "gray", "grey":
		return PaletteGray, nil
	default:
		return Palette{}, fmt.Errorf("unknown palette %q", name)
	}
}

// VideoProcessor turns shade frames into RGBA pixels
type VideoProcessor struct {
	palette    Palette
	brightness float32

	// effective colours with brightness applied
	colors Palette
}

// NewVideoProcessor creates a new video processor
func NewVideoProcessor(palette Palette, brightness float32) *VideoProcessor {
	vp := &VideoProcessor{palette: palette, brightness: brightness}
	vp.update()
	return vp
}

func (vp *VideoProcessor) update() {
	for i, c := range vp.palette {
		vp.colors[i] = color.RGBA{
			R: scale(c.R, vp.brightness),
			G: scale(c.G, vp.brightness),
			B: scale(c.B, vp.brightness),
			A: 0xFF,
		}
	}
}

// Color returns the display colour of a shade
func (vp *VideoProcessor) Color(shade uint8) color.RGBA {
	return vp.colors[shade&0x03]
}

// ProcessFrame writes the frame as RGBA into dst, which must hold at least
// four bytes per pixel
func (vp *VideoProcessor) ProcessFrame(frame *Frame, dst []byte) {
	for i, shade := range frame {
		c := vp.colors[shade&0x03]
		o := i * 4
		dst[o] = c.R
		dst[o+1] = c.G
		dst[o+2] = c.B
		dst[o+3] = c.A
	}
}

// SetBrightness updates the brightness value
func (vp *VideoProcessor) SetBrightness(brightness float32) {
	vp.brightness = brightness
	vp.update()
}

// SetPalette replaces the palette
func (vp *VideoProcessor) SetPalette(palette Palette) {
	vp.palette = palette
	vp.update()
}

func scale(v uint8, brightness float32) uint8 {
	return uint8(clamp(float32(v)*brightness, 0, 255))
}

// clamp limits a value to a range
func clamp(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
