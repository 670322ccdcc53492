// Package cpu implements the 8-bit handheld's CPU core (an 8080/Z80 hybrid).
package cpu

import "fmt"

// CPU constants
const (
	// Flag register bit masks. The low nibble of F is always zero.
	zFlagMask = 0x80
	nFlagMask = 0x40
	hFlagMask = 0x20
	cFlagMask = 0x10
	flagsMask = 0xF0

	// Interrupt registers
	ifRegister = 0xFF0F
	ieRegister = 0xFFFF

	// Five interrupt sources, bit 0 (V-Blank) has the highest priority
	interruptMask   = 0x1F
	interruptVector = 0x0040

	// Cycle costs that do not depend on an opcode
	interruptDispatchCycles = 20
	haltedCycles            = 4
)

// State represents the CPU execution state
type State int

const (
	Running State = iota
	Halted
	Stopped
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MemoryInterface defines the interface for CPU memory access
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Tracer receives optional execution hooks. Implementations must not
// mutate CPU state.
type Tracer interface {
	// BeforeInstruction is called with the register file before an opcode is fetched
	BeforeInstruction(regs Registers, opcode uint8)
	// InterruptDispatched is called after the CPU jumps to an interrupt vector
	InterruptDispatched(bit uint8, vector uint16, returnPC uint16)
}

// Option configures a CPU at construction time
type Option func(*CPU)

// WithTracer injects an execution tracer
func WithTracer(tracer Tracer) Option {
	return func(cpu *CPU) {
		cpu.tracer = tracer
	}
}

// UnknownOpcodeError is raised (via panic) when the CPU fetches an opcode
// that has no defined behaviour. Continuing past it would corrupt all
// subsequent state.
type UnknownOpcodeError struct {
	Opcode   uint8
	PC       uint16
	Extended bool
}

func (e *UnknownOpcodeError) Error() string {
	if e.Extended {
		return fmt.Sprintf("unknown opcode 0xCB 0x%02X at PC=0x%04X", e.Opcode, e.PC)
	}
	return fmt.Sprintf("unknown opcode 0x%02X at PC=0x%04X", e.Opcode, e.PC)
}

// Registers is a snapshot of the register file
type Registers struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16
}

// AF returns the AF register pair
func (r Registers) AF() uint16 { return uint16(r.A)<<8 | uint16(r.F) }

// BC returns the BC register pair
func (r Registers) BC() uint16 { return uint16(r.B)<<8 | uint16(r.C) }

// DE returns the DE register pair
func (r Registers) DE() uint16 { return uint16(r.D)<<8 | uint16(r.E) }

// HL returns the HL register pair
func (r Registers) HL() uint16 { return uint16(r.H)<<8 | uint16(r.L) }

// Flags returns F in ZNHC form
func (r Registers) Flags() string { return flagsString(r.F) }

// PostBootRegisters returns the documented register values left behind by
// the boot ROM on the original monochrome model.
func PostBootRegisters() Registers {
	return Registers{
		A: 0x01, F: 0xB0,
		B: 0x00, C: 0x13,
		D: 0x00, E: 0xD8,
		H: 0x01, L: 0x4D,
		SP: 0xFFFE,
		PC: 0x0100,
	}
}

// CPU represents the handheld's processor
type CPU struct {
	// Registers
	A  uint8 // Accumulator
	F  uint8 // Flags (Z N H C, low nibble always 0)
	B  uint8
	C  uint8
	D  uint8
	E  uint8
	H  uint8
	L  uint8
	SP uint16 // Stack pointer
	PC uint16 // Program counter

	// Interrupt master enable
	IME bool

	// eiDelay counts down the instructions remaining before a pending EI
	// takes effect (2 after EI executes, 0 when idle)
	eiDelay int

	// haltBug makes the next fetch skip the PC increment
	haltBug bool

	state State

	memory MemoryInterface
	tracer Tracer

	// Cycle counter
	cycles uint64
}

// New creates a new CPU in the post-boot state
func New(memory MemoryInterface, opts ...Option) *CPU {
	cpu := &CPU{
		memory: memory,
	}
	for _, opt := range opts {
		opt(cpu)
	}
	cpu.Reset()
	return cpu
}

// Reset restores the documented post-boot register state
func (cpu *CPU) Reset() {
	cpu.SetRegisters(PostBootRegisters())
	cpu.IME = false
	cpu.eiDelay = 0
	cpu.haltBug = false
	cpu.state = Running
	cpu.cycles = 0
}

// Registers returns a snapshot of the register file
func (cpu *CPU) Registers() Registers {
	return Registers{
		A: cpu.A, F: cpu.F,
		B: cpu.B, C: cpu.C,
		D: cpu.D, E: cpu.E,
		H: cpu.H, L: cpu.L,
		SP: cpu.SP, PC: cpu.PC,
	}
}

// SetRegisters loads the register file. The low nibble of F is masked.
func (cpu *CPU) SetRegisters(r Registers) {
	cpu.A = r.A
	cpu.setF(r.F)
	cpu.B, cpu.C = r.B, r.C
	cpu.D, cpu.E = r.D, r.E
	cpu.H, cpu.L = r.H, r.L
	cpu.SP = r.SP
	cpu.PC = r.PC
}

// State returns the current execution state
func (cpu *CPU) State() State {
	return cpu.state
}

// GetCycleCount returns the total T-cycles executed since reset
func (cpu *CPU) GetCycleCount() uint64 {
	return cpu.cycles
}

// InterruptEnablePending reports whether an EI is waiting to take effect
func (cpu *CPU) InterruptEnablePending() bool {
	return cpu.eiDelay > 0
}

// Step executes a single instruction (or dispatches one interrupt) and
// returns the T-cycles it took.
func (cpu *CPU) Step() int {
	cycles := cpu.step()
	cpu.cycles += uint64(cycles)
	return cycles
}

func (cpu *CPU) step() int {
	pending := cpu.memory.Read(ieRegister) & cpu.memory.Read(ifRegister) & interruptMask

	switch cpu.state {
	case Halted:
		if pending != 0 {
			cpu.state = Running
		}
	case Stopped:
		// Only a joypad request leaves STOP
		if cpu.memory.Read(ifRegister)&0x10 == 0 {
			return haltedCycles
		}
		cpu.state = Running
	}

	if cpu.IME && pending != 0 {
		return cpu.dispatchInterrupt(pending)
	}

	if cpu.state != Running {
		return haltedCycles
	}

	pc := cpu.PC
	opcode := cpu.fetch()
	if cpu.tracer != nil {
		regs := cpu.Registers()
		regs.PC = pc
		cpu.tracer.BeforeInstruction(regs, opcode)
	}

	cycles := cpu.execute(opcode, pc)

	// EI takes effect once the instruction after it has executed
	if cpu.eiDelay > 0 {
		cpu.eiDelay--
		if cpu.eiDelay == 0 {
			cpu.IME = true
		}
	}

	return cycles
}

// dispatchInterrupt services the highest priority pending interrupt
func (cpu *CPU) dispatchInterrupt(pending uint8) int {
	var bit uint8
	for bit = 0; bit < 5; bit++ {
		if pending&(1<<bit) != 0 {
			break
		}
	}

	cpu.IME = false
	cpu.eiDelay = 0
	flags := cpu.memory.Read(ifRegister)
	cpu.memory.Write(ifRegister, flags&^(1<<bit))

	returnPC := cpu.PC
	if cpu.haltBug {
		// EI; HALT with a request pending returns to the HALT itself
		returnPC--
		cpu.haltBug = false
	}
	cpu.pushWord(returnPC)
	vector := interruptVector + uint16(bit)*8
	cpu.PC = vector

	if cpu.tracer != nil {
		cpu.tracer.InterruptDispatched(bit, vector, returnPC)
	}
	return interruptDispatchCycles
}

// fetch reads the byte at PC and advances PC
func (cpu *CPU) fetch() uint8 {
	value := cpu.memory.Read(cpu.PC)
	if cpu.haltBug {
		// The byte after HALT is read twice
		cpu.haltBug = false
		return value
	}
	cpu.PC++
	return value
}

// fetchWord reads a little-endian word at PC
func (cpu *CPU) fetchWord() uint16 {
	low := uint16(cpu.fetch())
	high := uint16(cpu.fetch())
	return high<<8 | low
}

func (cpu *CPU) readWord(address uint16) uint16 {
	low := uint16(cpu.memory.Read(address))
	high := uint16(cpu.memory.Read(address + 1))
	return high<<8 | low
}

func (cpu *CPU) writeWord(address uint16, value uint16) {
	cpu.memory.Write(address, uint8(value))
	cpu.memory.Write(address+1, uint8(value>>8))
}

// Stack operations
func (cpu *CPU) pushWord(value uint16) {
	cpu.SP--
	cpu.memory.Write(cpu.SP, uint8(value>>8)) // High byte first
	cpu.SP--
	cpu.memory.Write(cpu.SP, uint8(value)) // Low byte second
}

func (cpu *CPU) popWord() uint16 {
	low := uint16(cpu.memory.Read(cpu.SP))
	cpu.SP++
	high := uint16(cpu.memory.Read(cpu.SP))
	cpu.SP++
	return high<<8 | low
}

// Register pairs
func (cpu *CPU) getAF() uint16 { return uint16(cpu.A)<<8 | uint16(cpu.F) }
func (cpu *CPU) getBC() uint16 { return uint16(cpu.B)<<8 | uint16(cpu.C) }
func (cpu *CPU) getDE() uint16 { return uint16(cpu.D)<<8 | uint16(cpu.E) }
func (cpu *CPU) getHL() uint16 { return uint16(cpu.H)<<8 | uint16(cpu.L) }

func (cpu *CPU) setAF(value uint16) {
	cpu.A = uint8(value >> 8)
	cpu.setF(uint8(value))
}

func (cpu *CPU) setBC(value uint16) {
	cpu.B = uint8(value >> 8)
	cpu.C = uint8(value)
}

func (cpu *CPU) setDE(value uint16) {
	cpu.D = uint8(value >> 8)
	cpu.E = uint8(value)
}

func (cpu *CPU) setHL(value uint16) {
	cpu.H = uint8(value >> 8)
	cpu.L = uint8(value)
}

// setF is the only writer of F
func (cpu *CPU) setF(value uint8) {
	cpu.F = value & flagsMask
}

// Flag accessors
func (cpu *CPU) flagZ() bool { return cpu.F&zFlagMask != 0 }
func (cpu *CPU) flagN() bool { return cpu.F&nFlagMask != 0 }
func (cpu *CPU) flagH() bool { return cpu.F&hFlagMask != 0 }
func (cpu *CPU) flagC() bool { return cpu.F&cFlagMask != 0 }

// setFlags replaces all four flags
func (cpu *CPU) setFlags(z, n, h, c bool) {
	var f uint8
	if z {
		f |= zFlagMask
	}
	if n {
		f |= nFlagMask
	}
	if h {
		f |= hFlagMask
	}
	if c {
		f |= cFlagMask
	}
	cpu.setF(f)
}

// GetFlagsString returns the flags in ZNHC form, '-' for clear bits
func (cpu *CPU) GetFlagsString() string {
	return flagsString(cpu.F)
}

func flagsString(f uint8) string {
	out := []byte("----")
	if f&zFlagMask != 0 {
		out[0] = 'Z'
	}
	if f&nFlagMask != 0 {
		out[1] = 'N'
	}
	if f&hFlagMask != 0 {
		out[2] = 'H'
	}
	if f&cFlagMask != 0 {
		out[3] = 'C'
	}
	return string(out)
}
