package debug

import (
	"log"

	"gogb/internal/cpu"
)

// DefaultLoopThreshold is the number of consecutive visits to one PC
// reported as a stuck loop
const DefaultLoopThreshold = 100

// LoopDetector flags a CPU that keeps executing the instruction at the
// same PC. Halted CPUs do not fetch and are never flagged.
type LoopDetector struct {
	logger    *log.Logger
	threshold int
	onLoop    func(pc uint16, count int)

	lastPC    uint16
	stayCount int
	started   bool
	detected  map[uint16]int
}

// NewLoopDetector creates a detector; logger may be nil
func NewLoopDetector(logger *log.Logger, threshold int) *LoopDetector {
	if threshold <= 0 {
		threshold = DefaultLoopThreshold
	}
	return &LoopDetector{
		logger:    logger,
		threshold: threshold,
		detected:  make(map[uint16]int),
	}
}

// OnLoop sets a callback run when a loop crosses the threshold
func (d *LoopDetector) OnLoop(callback func(pc uint16, count int)) {
	d.onLoop = callback
}

// BeforeInstruction tracks consecutive visits to the same PC
func (d *LoopDetector) BeforeInstruction(regs cpu.Registers, opcode uint8) {
	if d.started && regs.PC == d.lastPC {
		d.stayCount++
	} else {
		d.stayCount = 0
	}
	d.lastPC = regs.PC
	d.started = true

	if d.stayCount != d.threshold {
		return
	}

	d.detected[regs.PC]++
	if d.logger != nil {
		d.logger.Printf("[CPU_LOOP] CPU stuck at PC=$%04X executing opcode=0x%02X for %d instructions | A=$%02X SP=$%04X | %s",
			regs.PC, opcode, d.stayCount, regs.A, regs.SP, regs.Flags())
	}
	if d.onLoop != nil {
		d.onLoop(regs.PC, d.stayCount)
	}
}

// InterruptDispatched breaks the current run of visits
func (d *LoopDetector) InterruptDispatched(bit uint8, vector, returnPC uint16) {
	d.stayCount = 0
	d.started = false
}

// Detected returns how many times each PC was flagged
func (d *LoopDetector) Detected() map[uint16]int {
	out := make(map[uint16]int, len(d.detected))
	for pc, n := range d.detected {
		out[pc] = n
	}
	return out
}

// Reset clears all tracking state
func (d *LoopDetector) Reset() {
	d.stayCount = 0
	d.started = false
	d.detected = make(map[uint16]int)
}
