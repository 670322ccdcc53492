// Package input implements the handheld's joypad matrix.
package input

import (
	"log"

	"gogb/internal/memory"
)

// Button represents a joypad button. The low nibble is the direction
// row and the high nibble the action row, in P1 bit order.
type Button uint8

const (
	ButtonRight Button = 1 << iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

// Convenience constants for shorter names used by the backends
const (
	Right  = ButtonRight
	Left   = ButtonLeft
	Up     = ButtonUp
	Down   = ButtonDown
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
)

// P1 select lines, active low
const (
	selectDirections = 0x10
	selectActions    = 0x20
	selectMask       = selectDirections | selectActions
)

var buttonNames = map[Button]string{
	ButtonRight:  "Right",
	ButtonLeft:   "Left",
	ButtonUp:     "Up",
	ButtonDown:   "Down",
	ButtonA:      "A",
	ButtonB:      "B",
	ButtonSelect: "Select",
	ButtonStart:  "Start",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return "Button(?)"
}

// InterruptRequester receives the joypad interrupt
type InterruptRequester interface {
	RequestInterrupt(interrupt memory.Interrupt)
}

// Joypad holds the eight button states and the P1 row selection
type Joypad struct {
	// Current button states, 1 = pressed
	buttons uint8

	// P1 bits 4-5 as last written
	selection uint8

	requester InterruptRequester

	// Debug tracking
	readCount    uint64
	writeCount   uint64
	debugEnabled bool
}

// New creates a new Joypad with nothing pressed and no row selected
func New() *Joypad {
	return &Joypad{selection: selectMask}
}

// SetInterruptRequester sets where joypad interrupts are delivered
func (j *Joypad) SetInterruptRequester(requester InterruptRequester) {
	j.requester = requester
}

// Press marks a button as held
func (j *Joypad) Press(button Button) {
	j.SetButton(button, true)
}

// Release marks a button as no longer held
func (j *Joypad) Release(button Button) {
	j.SetButton(button, false)
}

// SetButton sets the state of a button. A new press requests the joypad
// interrupt.
func (j *Joypad) SetButton(button Button, pressed bool) {
	oldButtons := j.buttons

	if pressed {
		j.buttons |= uint8(button)
	} else {
		j.buttons &^= uint8(button)
	}

	if j.debugEnabled {
		log.Printf("[BUTTON_DEBUG] SetButton: button=%s, pressed=%t, oldButtons=0x%02X, newButtons=0x%02X",
			button, pressed, oldButtons, j.buttons)
	}

	if j.buttons&^oldButtons != 0 && j.requester != nil {
		j.requester.RequestInterrupt(memory.Joypad)
	}
}

// SetButtons sets all button states at once in the order
// Right, Left, Up, Down, A, B, Select, Start
func (j *Joypad) SetButtons(buttons [8]bool) {
	for i, pressed := range buttons {
		button := Button(1 << i)
		if pressed != j.IsPressed(button) {
			j.SetButton(button, pressed)
		}
	}
}

// IsPressed returns true if the button is currently pressed
func (j *Joypad) IsPressed(button Button) bool {
	return j.buttons&uint8(button) != 0
}

// Write handles writes to P1; only the select lines are writable
func (j *Joypad) Write(value uint8) {
	j.writeCount++
	j.selection = value & selectMask
}

// Read composes P1 from the selected rows. Unselected and released
// buttons read as 1.
func (j *Joypad) Read() uint8 {
	j.readCount++

	lines := uint8(0x0F)
	if j.selection&selectDirections == 0 {
		lines &^= j.buttons & 0x0F
	}
	if j.selection&selectActions == 0 {
		lines &^= j.buttons >> 4
	}

	result := 0xC0 | j.selection | lines
	if j.debugEnabled && j.readCount%10 == 0 {
		log.Printf("[JOYPAD_DEBUG] Read: selection=0x%02X, buttons=0x%02X, result=0x%02X",
			j.selection, j.buttons, result)
	}
	return result
}

// Reset releases all buttons and deselects both rows
func (j *Joypad) Reset() {
	j.buttons = 0
	j.selection = selectMask
	j.readCount = 0
	j.writeCount = 0
}

// EnableDebug enables debug logging for this joypad
func (j *Joypad) EnableDebug(enable bool) {
	j.debugEnabled = enable
}
