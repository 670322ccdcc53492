package graphics

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"gogb/internal/input"
	"gogb/internal/ppu"
)

// Shade characters from lightest to darkest
const terminalShades = " .+#"

// Terminal output samples every other column and every fourth row
const (
	terminalStepX = 2
	terminalStepY = 4
)

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow draws frames as shade characters and reads keys from
// stdin in raw mode
type TerminalWindow struct {
	title   string
	width   int
	height  int
	running bool

	out    io.Writer
	in     io.Reader
	keyMap map[Key]input.Button

	mu      sync.Mutex
	pending []InputEvent
	// keys pressed in the previous poll, released on the next one since
	// terminals report no key-up
	held    []InputEvent
	restore func() error
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow switches the terminal to raw mode and starts reading keys
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	w := newTerminalWindow(title, width, height, os.Stdout, os.Stdin)

	restore, err := enableRawMode(os.Stdin)
	if err != nil {
		log.Printf("[TERMINAL] raw mode unavailable, keyboard disabled: %v", err)
	} else {
		w.restore = restore
		go w.readKeys()
	}

	w.SetTitle(title)
	fmt.Fprint(w.out, "\033[2J")
	return w, nil
}

func newTerminalWindow(title string, width, height int, out io.Writer, in io.Reader) *TerminalWindow {
	return &TerminalWindow{
		title:   title,
		width:   width,
		height:  height,
		running: true,
		out:     out,
		in:      in,
		keyMap:  DefaultKeyMap,
	}
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// GetSize returns window dimensions
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.running
}

// SetKeyMap replaces the key to button mapping
func (w *TerminalWindow) SetKeyMap(keyMap map[Key]input.Button) {
	w.mu.Lock()
	w.keyMap = keyMap
	w.mu.Unlock()
}

// SwapBuffers does nothing for terminal
func (w *TerminalWindow) SwapBuffers() {}

// readKeys runs until stdin closes
func (w *TerminalWindow) readKeys() {
	buf := make([]byte, 8)
	for {
		n, err := w.in.Read(buf)
		if err != nil {
			return
		}
		w.feed(buf[:n])
	}
}

// feed decodes raw key bytes into pending events
func (w *TerminalWindow) feed(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for len(data) > 0 {
		key, size := decodeKey(data)
		data = data[size:]
		switch key {
		case KeyUnknown:
		case KeyEscape:
			w.pending = append(w.pending, InputEvent{Type: InputEventTypeQuit, Pressed: true})
		default:
			w.pending = append(w.pending, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: true})
		}
	}
}

// decodeKey maps the leading bytes of a raw key sequence to a key
func decodeKey(data []byte) (Key, int) {
	if len(data) >= 3 && data[0] == 0x1B && data[1] == '[' {
		switch data[2] {
		case 'A':
			return KeyUp, 3
		case 'B':
			return KeyDown, 3
		case 'C':
			return KeyRight, 3
		case 'D':
			return KeyLeft, 3
		}
		return KeyUnknown, 3
	}

	switch data[0] {
	case 0x1B, 0x03: // escape, ctrl-c
		return KeyEscape, 1
	case '\r', '\n':
		return KeyEnter, 1
	case ' ':
		return KeySpace, 1
	case 0x7F, 0x08:
		return KeyBackspace, 1
	case 'w', 'W':
		return KeyW, 1
	case 'a', 'A':
		return KeyA, 1
	case 's', 'S':
		return KeyS, 1
	case 'd', 'D':
		return KeyD, 1
	case 'j', 'J':
		return KeyJ, 1
	case 'k', 'K':
		return KeyK, 1
	case 'x', 'X':
		return KeyX, 1
	case 'z', 'Z':
		return KeyZ, 1
	}
	return KeyUnknown, 1
}

// PollEvents returns pending events. Keys pressed on the previous poll are
// released first.
func (w *TerminalWindow) PollEvents() []InputEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	var events []InputEvent
	for _, held := range w.held {
		held.Pressed = false
		events = append(events, held)
	}
	w.held = w.held[:0]

	translated := TranslateKeyEvents(w.pending, w.keyMap)
	w.pending = nil
	for _, event := range translated {
		switch event.Type {
		case InputEventTypeQuit:
			w.running = false
		case InputEventTypeButton:
			w.held = append(w.held, event)
		}
		events = append(events, event)
	}
	return events
}

// RenderFrame draws the frame as shade characters
func (w *TerminalWindow) RenderFrame(frame *Frame) error {
	if frame == nil {
		return fmt.Errorf("nil frame")
	}

	var sb strings.Builder
	sb.WriteString("\033[H")
	for y := 0; y < ppu.ScreenHeight; y += terminalStepY {
		for x := 0; x < ppu.ScreenWidth; x += terminalStepX {
			sb.WriteByte(terminalShades[frame[y*ppu.ScreenWidth+x]&0x03])
		}
		// raw mode needs an explicit carriage return
		sb.WriteString("\r\n")
	}

	_, err := io.WriteString(w.out, sb.String())
	return err
}

// Cleanup restores the terminal
func (w *TerminalWindow) Cleanup() error {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	if w.restore != nil {
		err := w.restore()
		w.restore = nil
		return err
	}
	return nil
}
