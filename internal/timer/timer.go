// Package timer implements the DIV/TIMA/TMA/TAC timer block.
package timer

import (
	"gogb/internal/memory"
)

const (
	tacEnable = 0x04
	tacSelect = 0x03

	// Internal counter value at the end of the boot sequence (DIV=AB)
	postBootCounter = 0xABCC
)

// Counter bit whose falling edge clocks TIMA, indexed by TAC bits 0-1
var tacBits = [4]uint16{1 << 9, 1 << 3, 1 << 5, 1 << 7}

// InterruptRequester receives the timer interrupt
type InterruptRequester interface {
	RequestInterrupt(interrupt memory.Interrupt)
}

// Timer holds a 16-bit system counter whose upper byte is DIV
type Timer struct {
	counter uint16
	tima    uint8
	tma     uint8
	tac     uint8

	requester InterruptRequester
	overflows uint64
}

// New creates a timer in its post-boot state
func New(requester InterruptRequester) *Timer {
	t := &Timer{requester: requester}
	t.Reset()
	return t
}

// Reset restores the post-boot state
func (t *Timer) Reset() {
	t.counter = postBootCounter
	t.tima = 0
	t.tma = 0
	t.tac = 0
	t.overflows = 0
}

// Step advances the timer by the given number of T-cycles
func (t *Timer) Step(cycles int) {
	for i := 0; i < cycles; i++ {
		t.setCounter(t.counter + 1)
	}
}

// setCounter updates the system counter and clocks TIMA on a falling
// edge of the selected bit
func (t *Timer) setCounter(value uint16) {
	before := t.signal()
	t.counter = value
	if before && !t.signal() {
		t.increment()
	}
}

// signal is the selected counter bit ANDed with the enable bit
func (t *Timer) signal() bool {
	return t.tac&tacEnable != 0 && t.counter&tacBits[t.tac&tacSelect] != 0
}

func (t *Timer) increment() {
	t.tima++
	if t.tima == 0 {
		t.tima = t.tma
		t.overflows++
		if t.requester != nil {
			t.requester.RequestInterrupt(memory.Timer)
		}
	}
}

// Read returns a timer register value
func (t *Timer) Read(address uint16) uint8 {
	switch address {
	case memory.RegDIV:
		return uint8(t.counter >> 8)
	case memory.RegTIMA:
		return t.tima
	case memory.RegTMA:
		return t.tma
	case memory.RegTAC:
		return t.tac | 0xF8
	default:
		return 0xFF
	}
}

// Write sets a timer register. Any write to DIV clears the whole counter.
func (t *Timer) Write(address uint16, value uint8) {
	switch address {
	case memory.RegDIV:
		t.setCounter(0)
	case memory.RegTIMA:
		t.tima = value
	case memory.RegTMA:
		t.tma = value
	case memory.RegTAC:
		before := t.signal()
		t.tac = value & 0x07
		if before && !t.signal() {
			t.increment()
		}
	}
}

// Counter returns the internal 16-bit system counter
func (t *Timer) Counter() uint16 {
	return t.counter
}

// GetOverflowCount returns how many times TIMA has overflowed
func (t *Timer) GetOverflowCount() uint64 {
	return t.overflows
}
