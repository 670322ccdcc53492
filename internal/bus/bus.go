// Package bus implements the system bus and the cycle-interleaved scheduler
// that drives the CPU, PPU and timer together.
package bus

import (
	"errors"
	"fmt"
	"io"
	"log"

	"gogb/internal/cartridge"
	"gogb/internal/cpu"
	"gogb/internal/input"
	"gogb/internal/memory"
	"gogb/internal/ppu"
	"gogb/internal/timer"
)

// ErrZeroCycleStep is returned when the processor reports a step that
// consumed no cycles, which would otherwise stall the scheduler forever
var ErrZeroCycleStep = errors.New("bus: processor step consumed zero cycles")

// Processor executes one instruction per call and reports its T-cycle cost
type Processor interface {
	Step() int
}

// Option configures the bus at construction time
type Option func(*options)

type options struct {
	cpuOpts      []cpu.Option
	ppuOpts      []ppu.Option
	serialOutput io.Writer
}

// WithCPUTracer installs a CPU trace hook
func WithCPUTracer(tracer cpu.Tracer) Option {
	return func(o *options) {
		o.cpuOpts = append(o.cpuOpts, cpu.WithTracer(tracer))
	}
}

// WithPPUTracer installs a PPU trace hook
func WithPPUTracer(tracer ppu.Tracer) Option {
	return func(o *options) {
		o.ppuOpts = append(o.ppuOpts, ppu.WithTracer(tracer))
	}
}

// WithStrictAddressing makes PPU tile fetches outside VRAM panic
func WithStrictAddressing(strict bool) Option {
	return func(o *options) {
		o.ppuOpts = append(o.ppuOpts, ppu.WithStrictAddressing(strict))
	}
}

// WithSerialOutput delivers bytes sent over the serial port to w
func WithSerialOutput(w io.Writer) Option {
	return func(o *options) {
		o.serialOutput = w
	}
}

// Bus connects all components together
type Bus struct {
	// Core components
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	Timer  *timer.Timer
	Memory *memory.Memory
	Joypad *input.Joypad

	processor Processor

	// System state
	cpuCycles  uint64
	frameCount uint64
	dmaCount   uint64

	// Cycles the last scanline ran past its budget
	overshoot int

	// Execution logging for testing
	executionLog   []BusExecutionEvent
	loggingEnabled bool

	// Memory monitoring for debugging
	memoryWatchpoints map[uint16]uint8
	watchpointLogging bool
}

// New creates a new system bus with all components in their post-boot state
func New(opts ...Option) *Bus {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	bus := &Bus{
		memoryWatchpoints: make(map[uint16]uint8),
	}

	// Memory only sees the PPU through its status accessors
	bus.Memory = memory.New(nil)
	bus.PPU = ppu.New(bus.Memory, o.ppuOpts...)
	bus.Memory.SetPPU(bus.PPU)

	bus.Timer = timer.New(bus.Memory)
	bus.Memory.SetTimer(bus.Timer)

	bus.Joypad = input.New()
	bus.Joypad.SetInterruptRequester(bus.Memory)
	bus.Memory.SetInputSystem(bus.Joypad)

	if o.serialOutput != nil {
		bus.Memory.SetSerialOutput(o.serialOutput)
	}
	bus.Memory.SetDMACallback(bus.TriggerOAMDMA)

	bus.CPU = cpu.New(bus.Memory, o.cpuOpts...)
	bus.processor = bus.CPU

	return bus
}

// Reset resets the CPU and peripherals to their post-boot state. Memory
// contents and the loaded cartridge are kept.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.PPU.Reset()
	b.Timer.Reset()
	b.Joypad.Reset()

	b.cpuCycles = 0
	b.frameCount = 0
	b.dmaCount = 0
	b.overshoot = 0

	b.executionLog = make([]BusExecutionEvent, 0)
}

// LoadCartridge inserts a cartridge and resets the machine
func (b *Bus) LoadCartridge(cart memory.CartridgeInterface) {
	b.Memory.LoadCartridge(cart)
	b.Reset()
}

// LoadROM parses a cartridge image and inserts it
func (b *Bus) LoadROM(data []byte) (*cartridge.Cartridge, error) {
	cart, err := cartridge.Load(data)
	if err != nil {
		return nil, err
	}
	b.LoadCartridge(cart)
	return cart, nil
}

// LoadProgram copies a raw program into the ROM region and resets the
// machine
func (b *Bus) LoadProgram(program []byte) error {
	if err := b.Memory.LoadProgram(program); err != nil {
		return err
	}
	b.Reset()
	return nil
}

// Step executes one CPU instruction and immediately advances the PPU and
// timer by exactly its cost
func (b *Bus) Step() (int, error) {
	pc := b.CPU.PC
	var opcode uint8
	if b.loggingEnabled {
		opcode = b.Memory.Read(pc)
	}

	cycles := b.processor.Step()
	if cycles <= 0 {
		return 0, fmt.Errorf("%w (PC=$%04X, cycle %d)", ErrZeroCycleStep, pc, b.cpuCycles)
	}

	b.PPU.Step(cycles)
	b.Timer.Step(cycles)
	b.cpuCycles += uint64(cycles)

	if b.loggingEnabled {
		b.executionLog = append(b.executionLog, BusExecutionEvent{
			StepNumber:    len(b.executionLog) + 1,
			Cycles:        cycles,
			TotalCycles:   b.cpuCycles,
			Scanline:      b.PPU.Scanline(),
			Mode:          b.PPU.Mode(),
			PCValue:       pc,
			InstructionOp: opcode,
		})
	}

	return cycles, nil
}

// RunScanline runs instructions until one scanline's worth of cycles has
// elapsed. An instruction that crosses the boundary still runs in full and
// the excess is taken from the next scanline's budget.
func (b *Bus) RunScanline() error {
	budget := ppu.DotsPerLine - b.overshoot
	elapsed := 0
	for elapsed < budget {
		cycles, err := b.Step()
		if err != nil {
			return err
		}
		elapsed += cycles
	}
	b.overshoot = elapsed - budget
	return nil
}

// RunFrame runs scanlines until the PPU completes a frame. With the display
// off no frame completes, so at most one frame's worth of scanlines run.
func (b *Bus) RunFrame() error {
	start := b.PPU.GetFrameCount()
	for line := 0; line < ppu.LinesPerFrame; line++ {
		if err := b.RunScanline(); err != nil {
			return err
		}
		if b.PPU.GetFrameCount() != start {
			break
		}
	}
	b.frameCount++

	if b.watchpointLogging {
		b.CheckMemoryWatchpoints()
	}
	return nil
}

// Run runs the emulator for a specified number of frames
func (b *Bus) Run(frames int) error {
	for i := 0; i < frames; i++ {
		if err := b.RunFrame(); err != nil {
			return err
		}
	}
	return nil
}

// RunCycles runs instructions until at least the given number of cycles
// have elapsed
func (b *Bus) RunCycles(cycles uint64) error {
	target := b.cpuCycles + cycles
	for b.cpuCycles < target {
		if _, err := b.Step(); err != nil {
			return err
		}
	}
	return nil
}

// TriggerOAMDMA performs an OAM DMA transfer from the given source page
func (b *Bus) TriggerOAMDMA(sourcePage uint8) {
	b.dmaCount++
	b.Memory.CopyToOAM(sourcePage)
}

// TakeFrameReady reports a completed frame once
func (b *Bus) TakeFrameReady() bool {
	return b.PPU.TakeFrameReady()
}

// FrameBuffer returns the PPU framebuffer. Copy it before the next
// RunScanline if a stable snapshot is needed.
func (b *Bus) FrameBuffer() *[ppu.ScreenWidth * ppu.ScreenHeight]uint8 {
	return b.PPU.FrameBuffer()
}

// Press marks a joypad button as held
func (b *Bus) Press(button input.Button) {
	b.Joypad.Press(button)
}

// Release marks a joypad button as released
func (b *Bus) Release(button input.Button) {
	b.Joypad.Release(button)
}

// SetButtons sets all joypad buttons at once
func (b *Bus) SetButtons(buttons [8]bool) {
	b.Joypad.SetButtons(buttons)
}

// EnableInputDebug enables debug logging for the joypad
func (b *Bus) EnableInputDebug(enable bool) {
	b.Joypad.EnableDebug(enable)
}

// GetCycleCount returns the total T-cycles executed
func (b *Bus) GetCycleCount() uint64 {
	return b.cpuCycles
}

// GetFrameCount returns the number of RunFrame calls completed
func (b *Bus) GetFrameCount() uint64 {
	return b.frameCount
}

// GetDMACount returns the number of OAM DMA transfers performed
func (b *Bus) GetDMACount() uint64 {
	return b.dmaCount
}

// GetExecutionLog returns execution log for integration testing
func (b *Bus) GetExecutionLog() []BusExecutionEvent {
	return b.executionLog
}

// EnableExecutionLogging enables execution logging for testing
func (b *Bus) EnableExecutionLogging() {
	b.loggingEnabled = true
}

// DisableExecutionLogging disables execution logging
func (b *Bus) DisableExecutionLogging() {
	b.loggingEnabled = false
}

// ClearExecutionLog clears the execution log
func (b *Bus) ClearExecutionLog() {
	b.executionLog = make([]BusExecutionEvent, 0)
}

// BusExecutionEvent represents a single execution step
type BusExecutionEvent struct {
	StepNumber    int
	Cycles        int
	TotalCycles   uint64
	Scanline      uint8
	Mode          uint8
	PCValue       uint16
	InstructionOp uint8
}

// CPUState represents a CPU state snapshot
type CPUState struct {
	Registers cpu.Registers
	IME       bool
	State     string
	Cycles    uint64
}

// GetCPUState returns the current CPU state
func (b *Bus) GetCPUState() CPUState {
	return CPUState{
		Registers: b.CPU.Registers(),
		IME:       b.CPU.IME,
		State:     b.CPU.State().String(),
		Cycles:    b.cpuCycles,
	}
}

// PPUState represents a PPU state snapshot
type PPUState struct {
	Scanline   uint8
	Mode       uint8
	Dots       int
	FrameCount uint64
	Enabled    bool
	LCDC       uint8
	STAT       uint8
}

// GetPPUState returns the current PPU state
func (b *Bus) GetPPUState() PPUState {
	return PPUState{
		Scanline:   b.PPU.Scanline(),
		Mode:       b.PPU.Mode(),
		Dots:       b.PPU.Dots(),
		FrameCount: b.PPU.GetFrameCount(),
		Enabled:    b.PPU.Enabled(),
		LCDC:       b.Memory.Read(memory.RegLCDC),
		STAT:       b.Memory.Read(memory.RegSTAT),
	}
}

// AddMemoryWatchpoint adds a memory address to monitor for changes
func (b *Bus) AddMemoryWatchpoint(address uint16) {
	b.memoryWatchpoints[address] = b.Memory.Read(address)
}

// EnableWatchpointLogging enables/disables memory watchpoint logging
func (b *Bus) EnableWatchpointLogging(enabled bool) {
	b.watchpointLogging = enabled
}

// WatchpointChange records one observed change of a watched address
type WatchpointChange struct {
	Address  uint16
	Previous uint8
	Current  uint8
}

// CheckMemoryWatchpoints checks all watchpoints for changes, logs and
// returns them
func (b *Bus) CheckMemoryWatchpoints() []WatchpointChange {
	var changes []WatchpointChange
	for address, previousValue := range b.memoryWatchpoints {
		currentValue := b.Memory.Read(address)
		if currentValue == previousValue {
			continue
		}
		if b.watchpointLogging {
			log.Printf("[MEMORY_WATCH] Frame %d: $%04X changed from $%02X to $%02X (%s)",
				b.frameCount, address, previousValue, currentValue, describeAddress(address))
		}
		b.memoryWatchpoints[address] = currentValue
		changes = append(changes, WatchpointChange{Address: address, Previous: previousValue, Current: currentValue})
	}
	return changes
}

// describeAddress returns a human-readable name for an address
func describeAddress(address uint16) string {
	switch {
	case address < 0x4000:
		return "ROM bank 0"
	case address < 0x8000:
		return "ROM bank N"
	case address < 0xA000:
		return "VRAM"
	case address < 0xC000:
		return "External RAM"
	case address < 0xE000:
		return "Work RAM"
	case address < 0xFE00:
		return "Echo RAM"
	case address < 0xFEA0:
		return "OAM"
	case address < 0xFF00:
		return "Unusable"
	case address < 0xFF80:
		return fmt.Sprintf("I/O $FF%02X", address&0xFF)
	case address < 0xFFFF:
		return "High RAM"
	default:
		return "Interrupt enable"
	}
}
