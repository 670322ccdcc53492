package app

import (
	"fmt"
	"log"
	"time"

	"gogb/internal/bus"
	"gogb/internal/debug"
	"gogb/internal/graphics"
	"gogb/internal/ppu"
)

// Machine timing
const (
	ClockHz = 4194304

	// FrameTime is the real duration of one 154-line frame
	FrameTime = time.Second * ppu.DotsPerFrame / ClockHz
)

// Emulator runs the core one frame per update and keeps a stable copy of
// the last completed frame
type Emulator struct {
	bus    *bus.Bus
	config *Config

	frame         graphics.Frame
	frameComplete bool

	targetFrameTime time.Duration
	actualFrameTime time.Duration
	emulationTime   time.Duration
	timingBuffer    *CircularTimingBuffer

	frameCount uint64
	cycleCount uint64

	dumper *debug.FrameDumper

	isRunning     bool
	lastResetTime time.Time
}

// EmulatorStats summarises emulator performance
type EmulatorStats struct {
	FrameCount       uint64
	CycleCount       uint64
	EmulationTime    time.Duration
	ActualFrameTime  time.Duration
	AverageFrameTime time.Duration
	TargetFrameTime  time.Duration
	EmulationSpeed   float64
	Uptime           time.Duration
	IsRunning        bool
}

// NewEmulator creates a new emulator driving the given bus
func NewEmulator(b *bus.Bus, config *Config) *Emulator {
	e := &Emulator{
		bus:             b,
		config:          config,
		targetFrameTime: FrameTime,
		timingBuffer:    NewCircularTimingBuffer(300),
	}
	e.Reset()
	return e
}

// SetFrameDumper installs a dumper called for every completed frame
func (e *Emulator) SetFrameDumper(dumper *debug.FrameDumper) {
	e.dumper = dumper
}

// Reset clears emulator bookkeeping. The bus is reset separately.
func (e *Emulator) Reset() {
	e.frame = graphics.Frame{}
	e.frameComplete = false
	e.actualFrameTime = 0
	e.emulationTime = 0
	e.frameCount = 0
	e.cycleCount = 0
	e.lastResetTime = time.Now()
	e.timingBuffer.Reset()
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// Update runs exactly one frame if the emulator is running
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}

	start := time.Now()
	if err := e.StepFrame(); err != nil {
		e.isRunning = false
		return err
	}
	e.actualFrameTime = time.Since(start)
	e.timingBuffer.Add(e.actualFrameTime)
	return nil
}

// StepFrame executes one frame and snapshots the framebuffer once the PPU
// reports it complete. Core panics come back as an ApplicationError.
func (e *Emulator) StepFrame() (err error) {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}

	defer func() {
		if r := recover(); r != nil {
			err = &ApplicationError{
				Component: "emulator",
				Operation: fmt.Sprintf("frame %d", e.frameCount+1),
				Err:       panicError(r),
			}
		}
	}()

	start := time.Now()
	if err := e.bus.RunFrame(); err != nil {
		return &ApplicationError{Component: "emulator", Operation: "run frame", Err: err}
	}
	e.emulationTime = time.Since(start)
	e.frameCount++
	e.cycleCount = e.bus.GetCycleCount()

	// The framebuffer is only stable until the next step
	if e.bus.TakeFrameReady() {
		e.frame = *e.bus.FrameBuffer()
		e.frameComplete = true
		e.dumpFrame()
	}
	return nil
}

func (e *Emulator) dumpFrame() {
	if e.dumper == nil {
		return
	}
	if _, err := e.dumper.DumpFrame(&e.frame, e.bus.PPU.GetFrameCount()); err != nil {
		log.Printf("[APP_WARNING] frame dump failed: %v", err)
	}
}

// StepInstruction executes one CPU instruction
func (e *Emulator) StepInstruction() (err error) {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}
	defer func() {
		if r := recover(); r != nil {
			err = &ApplicationError{Component: "emulator", Operation: "step", Err: panicError(r)}
		}
	}()

	if _, err := e.bus.Step(); err != nil {
		return err
	}
	e.cycleCount = e.bus.GetCycleCount()
	return nil
}

func panicError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// TakeFrame returns the last completed frame and whether it is new since
// the previous call
func (e *Emulator) TakeFrame() (*graphics.Frame, bool) {
	complete := e.frameComplete
	e.frameComplete = false
	return &e.frame, complete
}

// GetFrame returns the last completed frame
func (e *Emulator) GetFrame() *graphics.Frame {
	return &e.frame
}

// GetFrameCount returns the number of frames run
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetCycleCount returns the total cycle count
func (e *Emulator) GetCycleCount() uint64 {
	return e.cycleCount
}

// GetTargetFrameTime returns the real duration of one frame
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// GetEmulationSpeed returns emulation speed relative to real hardware
func (e *Emulator) GetEmulationSpeed() float64 {
	avg := e.timingBuffer.GetAverage()
	if avg == 0 {
		return 0
	}
	return float64(e.targetFrameTime) / float64(avg)
}

// IsRunning reports whether Update runs frames
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// GetUptime returns time since the last reset
func (e *Emulator) GetUptime() time.Duration {
	return time.Since(e.lastResetTime)
}

// GetCPUState returns the current CPU state for debugging
func (e *Emulator) GetCPUState() bus.CPUState {
	if e.bus == nil {
		return bus.CPUState{}
	}
	return e.bus.GetCPUState()
}

// GetPPUState returns the current PPU state for debugging
func (e *Emulator) GetPPUState() bus.PPUState {
	if e.bus == nil {
		return bus.PPUState{}
	}
	return e.bus.GetPPUState()
}

// GetPerformanceStats returns performance statistics
func (e *Emulator) GetPerformanceStats() EmulatorStats {
	return EmulatorStats{
		FrameCount:       e.frameCount,
		CycleCount:       e.cycleCount,
		EmulationTime:    e.emulationTime,
		ActualFrameTime:  e.actualFrameTime,
		AverageFrameTime: e.timingBuffer.GetAverage(),
		TargetFrameTime:  e.targetFrameTime,
		EmulationSpeed:   e.GetEmulationSpeed(),
		Uptime:           e.GetUptime(),
		IsRunning:        e.isRunning,
	}
}

// CircularTimingBuffer keeps the most recent durations
type CircularTimingBuffer struct {
	buffer   []time.Duration
	index    int
	count    int
	capacity int
}

// NewCircularTimingBuffer creates a buffer holding capacity samples
func NewCircularTimingBuffer(capacity int) *CircularTimingBuffer {
	return &CircularTimingBuffer{
		buffer:   make([]time.Duration, capacity),
		capacity: capacity,
	}
}

// Add records a sample, overwriting the oldest when full
func (ctb *CircularTimingBuffer) Add(duration time.Duration) {
	ctb.buffer[ctb.index] = duration
	ctb.index = (ctb.index + 1) % ctb.capacity
	if ctb.count < ctb.capacity {
		ctb.count++
	}
}

// GetAverage returns the mean of the recorded samples
func (ctb *CircularTimingBuffer) GetAverage() time.Duration {
	if ctb.count == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < ctb.count; i++ {
		sum += ctb.buffer[i]
	}
	return sum / time.Duration(ctb.count)
}

// Len returns the number of samples held
func (ctb *CircularTimingBuffer) Len() int {
	return ctb.count
}

// Reset discards all samples
func (ctb *CircularTimingBuffer) Reset() {
	ctb.index = 0
	ctb.count = 0
}
