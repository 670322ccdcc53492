package bus

import (
	"testing"
)

const entryPoint = 0x0100

// patch places code at an address in a program image
type patch struct {
	address uint16
	code    []uint8
}

// buildImage assembles patches into a program image for LoadProgram
func buildImage(patches ...patch) []byte {
	size := 0
	for _, p := range patches {
		if end := int(p.address) + len(p.code); end > size {
			size = end
		}
	}
	image := make([]byte, size)
	for _, p := range patches {
		copy(image[p.address:], p.code)
	}
	return image
}

// newBusWithProgram loads code at the entry point and any extra patches
func newBusWithProgram(t *testing.T, code []uint8, extra ...patch) *Bus {
	t.Helper()
	bus := New()
	image := buildImage(append([]patch{{entryPoint, code}}, extra...)...)
	if err := bus.LoadProgram(image); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	return bus
}

// fixedProcessor reports a constant cost for every step
type fixedProcessor struct {
	cycles int
	steps  int
}

func (p *fixedProcessor) Step() int {
	p.steps++
	return p.cycles
}
