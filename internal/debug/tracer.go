// Package debug provides trace hooks, loop detection, frame dumps and
// state graphs for the emulator core.
package debug

import (
	"log"

	"gogb/internal/cpu"
)

// Reader is the memory view a tracer needs for disassembly
type Reader interface {
	Read(address uint16) uint8
}

// LogTracer logs instructions, interrupt dispatches and PPU events.
// It satisfies both cpu.Tracer and ppu.Tracer.
type LogTracer struct {
	logger *log.Logger
	memory Reader

	traceInstructions bool
	tracePPU          bool

	// Stop logging instructions after this many lines (0 = unlimited)
	maxLines uint64
	lines    uint64
}

// NewLogTracer creates a tracer writing through logger
func NewLogTracer(logger *log.Logger, traceInstructions, tracePPU bool) *LogTracer {
	return &LogTracer{
		logger:            logger,
		traceInstructions: traceInstructions,
		tracePPU:          tracePPU,
	}
}

// AttachMemory sets the memory used to disassemble traced instructions
func (t *LogTracer) AttachMemory(memory Reader) {
	t.memory = memory
}

// SetMaxLines limits the number of instruction lines logged
func (t *LogTracer) SetMaxLines(max uint64) {
	t.maxLines = max
}

// Lines returns how many instruction lines were logged
func (t *LogTracer) Lines() uint64 {
	return t.lines
}

// BeforeInstruction logs the instruction about to execute
func (t *LogTracer) BeforeInstruction(regs cpu.Registers, opcode uint8) {
	if !t.traceInstructions || (t.maxLines > 0 && t.lines >= t.maxLines) {
		return
	}
	t.lines++

	text := "???"
	if t.memory != nil {
		text, _ = cpu.Disassemble(t.memory.Read, regs.PC)
	}
	t.logger.Printf("[CPU_TRACE] PC=$%04X: %-18s (0x%02X) | A=$%02X BC=$%04X DE=$%04X HL=$%04X SP=$%04X | %s",
		regs.PC, text, opcode, regs.A, regs.BC(), regs.DE(), regs.HL(), regs.SP, regs.Flags())
}

// InterruptDispatched logs an interrupt dispatch
func (t *LogTracer) InterruptDispatched(bit uint8, vector, returnPC uint16) {
	if !t.traceInstructions {
		return
	}
	t.logger.Printf("[CPU_TRACE] INT %d -> $%04X (return $%04X)", bit, vector, returnPC)
}

// ModeChanged logs a PPU mode transition
func (t *LogTracer) ModeChanged(scanline uint8, mode uint8) {
	if !t.tracePPU {
		return
	}
	t.logger.Printf("[PPU_TRACE] LY=%3d mode=%d", scanline, mode)
}

// FrameCompleted logs the end of a frame
func (t *LogTracer) FrameCompleted(frame uint64) {
	if !t.tracePPU {
		return
	}
	t.logger.Printf("[PPU_TRACE] frame %d complete", frame)
}

// CPUTracers fans one CPU hook out to several tracers
type CPUTracers []cpu.Tracer

// BeforeInstruction forwards to every tracer
func (ts CPUTracers) BeforeInstruction(regs cpu.Registers, opcode uint8) {
	for _, t := range ts {
		t.BeforeInstruction(regs, opcode)
	}
}

// InterruptDispatched forwards to every tracer
func (ts CPUTracers) InterruptDispatched(bit uint8, vector, returnPC uint16) {
	for _, t := range ts {
		t.InterruptDispatched(bit, vector, returnPC)
	}
}
