// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"fmt"

	"gogb/internal/input"
	"gogb/internal/ppu"
)

// Frame is one screen of palette-applied shades (0 lightest, 3 darkest)
type Frame = [ppu.ScreenWidth * ppu.ScreenHeight]uint8

// Backend represents a graphics rendering backend
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running in headless mode
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	SetTitle(title string)
	GetSize() (width, height int)
	ShouldClose() bool

	// SwapBuffers presents the rendered frame
	SwapBuffers()

	// PollEvents returns the input events gathered since the last call
	PollEvents() []InputEvent

	// RenderFrame renders a shade framebuffer to the window
	RenderFrame(frame *Frame) error

	Cleanup() error
}

// KeyMapper is implemented by windows whose key bindings can be changed
type KeyMapper interface {
	SetKeyMap(keyMap map[Key]input.Button)
}

// Config contains configuration for graphics backends
type Config struct {
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool

	Filter  string // "nearest", "linear"
	Palette string // "dmg", "gray"

	Brightness float32

	Headless bool
	Debug    bool

	// Headless frame output
	OutputDir    string
	OutputFrames []int
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Key     Key
	Button  input.Button
	Pressed bool
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeButton
	InputEventTypeQuit
)

// Key represents keyboard keys
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeySpace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyW
	KeyA
	KeyS
	KeyD
	KeyJ
	KeyK
	KeyX
	KeyZ
	KeyF1
	KeyF2
	KeyF3
	KeyF12
)

// DefaultKeyMap maps keyboard keys to joypad buttons. Arrows and WASD both
// drive the direction pad.
var DefaultKeyMap = map[Key]input.Button{
	KeyUp:        input.Up,
	KeyDown:      input.Down,
	KeyLeft:      input.Left,
	KeyRight:     input.Right,
	KeyW:         input.Up,
	KeyS:         input.Down,
	KeyA:         input.Left,
	KeyD:         input.Right,
	KeyX:         input.A,
	KeyJ:         input.A,
	KeyZ:         input.B,
	KeyK:         input.B,
	KeyEnter:     input.Start,
	KeySpace:     input.Select,
	KeyBackspace: input.Select,
}

// TranslateKeyEvents converts key events into joypad button events using
// the given key map. Keys with no mapping pass through unchanged.
func TranslateKeyEvents(events []InputEvent, keyMap map[Key]input.Button) []InputEvent {
	out := make([]InputEvent, 0, len(events))
	for _, event := range events {
		if event.Type == InputEventTypeKey {
			if button, ok := keyMap[event.Key]; ok {
				out = append(out, InputEvent{
					Type:    InputEventTypeButton,
					Key:     event.Key,
					Button:  button,
					Pressed: event.Pressed,
				})
				continue
			}
		}
		out = append(out, event)
	}
	return out
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine, "":
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, fmt.Errorf("unknown graphics backend %q", backendType)
	}
}

// AsEbitengineWindow tries to cast a Window to EbitengineWindow
func AsEbitengineWindow(window Window) (*EbitengineWindow, bool) {
	w, ok := window.(*EbitengineWindow)
	return w, ok
}

// fitScreen returns the scale and centering offsets that fit
// the screen inside a window of the given size
func fitScreen(windowWidth, windowHeight int) (scale, offsetX, offsetY float64) {
	scaleX := float64(windowWidth) / ppu.ScreenWidth
	scaleY := float64(windowHeight) / ppu.ScreenHeight
	scale = min(scaleX, scaleY)
	offsetX = (float64(windowWidth) - ppu.ScreenWidth*scale) / 2
	offsetY = (float64(windowHeight) - ppu.ScreenHeight*scale) / 2
	return scale, offsetX, offsetY
}
