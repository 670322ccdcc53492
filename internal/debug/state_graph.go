package debug

import (
	"io"

	"github.com/bradleyjkemp/memviz"

	"gogb/internal/bus"
	"gogb/internal/memory"
)

// MachineState is the snapshot rendered by WriteStateGraph
type MachineState struct {
	CPU        bus.CPUState
	PPU        bus.PPUState
	Interrupts InterruptState
	Cycles     uint64
	DMAs       uint64
}

// InterruptState holds the IE and IF registers
type InterruptState struct {
	Enable  uint8
	Request uint8
}

// Snapshot captures the machine state of b
func Snapshot(b *bus.Bus) *MachineState {
	return &MachineState{
		CPU: b.GetCPUState(),
		PPU: b.GetPPUState(),
		Interrupts: InterruptState{
			Enable:  b.Memory.Read(memory.RegIE),
			Request: b.Memory.Read(memory.RegIF) & 0x1F,
		},
		Cycles: b.GetCycleCount(),
		DMAs:   b.GetDMACount(),
	}
}

// WriteStateGraph writes the machine state of b as a Graphviz graph
func WriteStateGraph(w io.Writer, b *bus.Bus) {
	memviz.Map(w, Snapshot(b))
}
