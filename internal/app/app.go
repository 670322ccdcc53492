// Package app wires configuration, the graphics backend and the emulator
// core into a runnable application.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"gogb/internal/bus"
	"gogb/internal/cartridge"
	"gogb/internal/debug"
	"gogb/internal/graphics"
	"gogb/internal/statsview"
)

// Application represents the main emulator application
type Application struct {
	bus *bus.Bus

	graphicsBackend graphics.Backend
	window          graphics.Window

	config   *Config
	emulator *Emulator

	// Debug hooks, nil unless enabled in the config
	tracer       *debug.LogTracer
	loopDetector *debug.LoopDetector
	dumper       *debug.FrameDumper
	stats        *statsview.Server
	traceFile    *os.File

	// running is cleared from the signal handler goroutine
	running     atomic.Bool
	paused      bool
	initialized bool
	headless    bool
	lastErr     error

	frameCount  uint64
	startTime   time.Time
	lastFPSTime time.Time
	fpsFrames   uint64
	currentFPS  float64

	romPath   string
	cartridge *cartridge.Cartridge
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("Application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates a new application with a window
func NewApplication(configPath string) (*Application, error) {
	return NewApplicationWithMode(configPath, false)
}

// NewApplicationWithMode creates a new application, optionally headless
func NewApplicationWithMode(configPath string, headless bool) (*Application, error) {
	config := NewConfig()
	if configPath != "" {
		if err := config.LoadFromFile(configPath); err != nil {
			log.Printf("[APP_WARNING] Could not load config from %s, using defaults: %v", configPath, err)
			config = NewConfig()
		}
	}
	return NewApplicationWithConfig(config, headless)
}

// NewApplicationWithConfig creates a new application from an explicit config
func NewApplicationWithConfig(config *Config, headless bool) (*Application, error) {
	app := &Application{
		config:      config,
		headless:    headless,
		startTime:   time.Now(),
		lastFPSTime: time.Now(),
	}

	if err := app.initializeComponents(); err != nil {
		app.closeTrace()
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}
	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	opts, err := app.busOptions()
	if err != nil {
		return err
	}
	app.bus = bus.New(opts...)

	if app.tracer != nil {
		app.tracer.AttachMemory(app.bus.Memory)
	}
	for _, addr := range app.config.Watchpoints() {
		app.bus.AddMemoryWatchpoint(addr)
	}
	if len(app.config.Debug.MemoryWatchpoints) > 0 {
		app.bus.EnableWatchpointLogging(true)
	}
	app.bus.EnableInputDebug(app.config.Debug.InputDebug)

	if err := app.initializeGraphicsBackend(); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	app.emulator = NewEmulator(app.bus, app.config)

	if app.config.Debug.DumpFrames {
		app.dumper = debug.NewFrameDumper(app.config.Paths.FrameDumps)
		app.dumper.SetDumpInterval(app.config.Debug.DumpInterval)
		app.dumper.SetMaxDumps(app.config.Debug.MaxDumps)
		if err := app.dumper.Enable(); err != nil {
			return err
		}
		app.emulator.SetFrameDumper(app.dumper)
	}

	if app.config.Debug.StatsView {
		server, err := statsview.Start(app.config.Debug.StatsAddress, time.Second)
		if err != nil {
			log.Printf("[APP_WARNING] stats view: %v", err)
		} else {
			app.stats = server
			log.Printf("[APP] runtime stats at %s", server.URL())
		}
	}

	app.initialized = true
	return nil
}

// busOptions builds the core options from the debug and emulation config
func (app *Application) busOptions() ([]bus.Option, error) {
	cfg := app.config
	var opts []bus.Option
	var cpuTracers debug.CPUTracers

	if cfg.Debug.CPUTracing || cfg.Debug.PPUTracing {
		out, err := app.openTrace()
		if err != nil {
			return nil, err
		}
		app.tracer = debug.NewLogTracer(log.New(out, "", 0), cfg.Debug.CPUTracing, cfg.Debug.PPUTracing)
		app.tracer.SetMaxLines(cfg.Debug.TraceLimit)
		if cfg.Debug.CPUTracing {
			cpuTracers = append(cpuTracers, app.tracer)
		}
		if cfg.Debug.PPUTracing {
			opts = append(opts, bus.WithPPUTracer(app.tracer))
		}
	}

	if cfg.Debug.LoopDetection {
		app.loopDetector = debug.NewLoopDetector(log.Default(), cfg.Debug.LoopThreshold)
		cpuTracers = append(cpuTracers, app.loopDetector)
	}

	switch len(cpuTracers) {
	case 0:
	case 1:
		opts = append(opts, bus.WithCPUTracer(cpuTracers[0]))
	default:
		opts = append(opts, bus.WithCPUTracer(cpuTracers))
	}

	if cfg.Emulation.StrictAddressing {
		opts = append(opts, bus.WithStrictAddressing(true))
	}
	if cfg.Emulation.SerialToStdout {
		opts = append(opts, bus.WithSerialOutput(os.Stdout))
	}
	return opts, nil
}

// openTrace opens the trace log under the logs directory
func (app *Application) openTrace() (io.Writer, error) {
	dir := app.config.Paths.Logs
	if dir == "" {
		return os.Stderr, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "trace.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace log: %w", err)
	}
	app.traceFile = f
	return f, nil
}

func (app *Application) closeTrace() {
	if app.traceFile != nil {
		app.traceFile.Close()
		app.traceFile = nil
	}
}

// initializeGraphicsBackend initializes the graphics backend based on configuration
func (app *Application) initializeGraphicsBackend() error {
	backendType := graphics.BackendType(app.config.Video.Backend)
	if app.headless {
		backendType = graphics.BackendHeadless
	}

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}

	width, height := app.config.GetWindowResolution()
	graphicsConfig := graphics.Config{
		WindowTitle:  "gogb",
		WindowWidth:  width,
		WindowHeight: height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		Palette:      app.config.Video.Palette,
		Brightness:   app.config.Video.Brightness,
		Headless:     app.headless,
		Debug:        app.config.Debug.EnableLogging,
		OutputDir:    app.config.Paths.Screenshots,
		OutputFrames: app.config.Debug.OutputFrames,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return err
		}
		// No display available, fall back to headless
		log.Printf("[APP_WARNING] Ebitengine backend failed (%v), falling back to headless mode", err)
		app.headless = true
		graphicsConfig.Headless = true
		app.graphicsBackend = graphics.NewHeadlessBackend()
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
	}

	app.window, err = app.graphicsBackend.CreateWindow(graphicsConfig.WindowTitle, width, height)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}

	if mapper, ok := app.window.(graphics.KeyMapper); ok {
		keyMap, err := app.config.KeyMap()
		if err != nil {
			return err
		}
		mapper.SetKeyMap(keyMap)
	}
	return nil
}

// LoadROM loads a cartridge image from disk and starts the emulator
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{
			Component: "cartridge",
			Operation: "load ROM",
			Err:       err,
		}
	}

	app.cartridge = cart
	app.romPath = romPath
	app.bus.LoadCartridge(cart)
	app.emulator.Reset()

	header := cart.Header()
	if app.config.Debug.EnableLogging {
		log.Printf("[CARTRIDGE] %s", header)
	}
	if app.window != nil {
		title := header.Title
		if title == "" {
			title = filepath.Base(romPath)
		}
		app.window.SetTitle(fmt.Sprintf("gogb - %s", title))
	}

	app.emulator.Start()
	return nil
}

// Run starts the main application loop and returns the first core error
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.running.Store(true)
	app.startTime = time.Now()
	app.lastFPSTime = app.startTime

	if app.config.Debug.EnableLogging {
		log.Printf("[APP_DEBUG] Starting emulator with %s backend...", app.graphicsBackend.GetName())
	}

	if app.headless {
		return app.RunHeadless(app.config.Emulation.HeadlessFrames)
	}

	if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
		ebitengineWindow.SetEmulatorUpdateFunc(func() error {
			app.frame()
			if !app.running.Load() {
				app.window.Cleanup()
			}
			return nil
		})
		if err := ebitengineWindow.Run(); err != nil {
			return err
		}
		return app.lastErr
	}

	// Paced loop for the terminal backend
	ticker := time.NewTicker(FrameTime)
	defer ticker.Stop()
	for app.running.Load() {
		app.frame()
		if app.window.ShouldClose() {
			app.Stop()
		}
		<-ticker.C
	}
	return app.lastErr
}

// RunHeadless runs the given number of frames as fast as possible
func (app *Application) RunHeadless(frames int) error {
	app.running.Store(true)
	for i := 0; i < frames && app.running.Load(); i++ {
		app.frame()
	}
	app.running.Store(false)

	if app.config.Debug.EnableLogging {
		stats := app.emulator.GetPerformanceStats()
		log.Printf("[APP_DEBUG] Headless run finished: %d frames, %d cycles, %.2fx speed",
			stats.FrameCount, stats.CycleCount, stats.EmulationSpeed)
	}
	return app.lastErr
}

// frame runs one host frame: input, emulation, presentation
func (app *Application) frame() {
	app.processInput()

	if err := app.updateEmulator(); err != nil {
		log.Printf("[APP_ERROR] %v", err)
		app.lastErr = err
		app.Stop()
		return
	}

	if err := app.render(); err != nil {
		log.Printf("[APP_ERROR] Render error: %v", err)
	}
	app.updatePerformanceMetrics()
}

// updateEmulator runs one frame unless paused or no cartridge is inserted
func (app *Application) updateEmulator() error {
	if app.paused || app.cartridge == nil {
		return nil
	}
	return app.emulator.Update()
}

// processInput applies window events to the joypad and handles hotkeys
func (app *Application) processInput() {
	if app.window == nil {
		return
	}

	for _, event := range app.window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
			return
		case graphics.InputEventTypeButton:
			if event.Pressed {
				app.bus.Press(event.Button)
			} else {
				app.bus.Release(event.Button)
			}
		case graphics.InputEventTypeKey:
			if event.Pressed {
				app.handleKeyInput(event.Key)
			}
		}
	}
}

// handleKeyInput handles function-key hotkeys
func (app *Application) handleKeyInput(key graphics.Key) {
	switch key {
	case graphics.KeyF1:
		app.TogglePause()
		log.Printf("[APP] paused=%t", app.paused)
	case graphics.KeyF2:
		app.Reset()
		log.Printf("[APP] reset")
	case graphics.KeyF3:
		path, err := app.DumpStateGraph()
		if err != nil {
			log.Printf("[APP_ERROR] state graph: %v", err)
			return
		}
		log.Printf("[APP] state graph written to %s", path)
	case graphics.KeyF12:
		path, err := app.SaveScreenshot()
		if err != nil {
			log.Printf("[APP_ERROR] screenshot: %v", err)
			return
		}
		log.Printf("[APP] screenshot written to %s", path)
	}
}

// render presents the last completed frame if a new one is available
func (app *Application) render() error {
	if app.window == nil {
		return nil
	}

	frame, ok := app.emulator.TakeFrame()
	if !ok {
		return nil
	}
	if err := app.window.RenderFrame(frame); err != nil {
		return fmt.Errorf("failed to render frame: %w", err)
	}
	app.window.SwapBuffers()
	return nil
}

// updatePerformanceMetrics updates the FPS estimate once per second
func (app *Application) updatePerformanceMetrics() {
	app.frameCount++
	app.fpsFrames++

	now := time.Now()
	elapsed := now.Sub(app.lastFPSTime)
	if elapsed < time.Second {
		return
	}
	app.currentFPS = float64(app.fpsFrames) / elapsed.Seconds()
	app.fpsFrames = 0
	app.lastFPSTime = now

	if app.config.Debug.EnableLogging {
		log.Printf("[APP_DEBUG] FPS: %.1f (target %.2f)", app.currentFPS, float64(time.Second)/float64(FrameTime))
	}
}

// SaveScreenshot writes the last completed frame as a PGM image
func (app *Application) SaveScreenshot() (string, error) {
	dir := app.config.Paths.Screenshots
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("screenshot_%06d.pgm", app.bus.PPU.GetFrameCount()))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := debug.WritePGM(f, app.emulator.GetFrame()); err != nil {
		return "", err
	}
	return path, nil
}

// DumpStateGraph writes the machine state as a Graphviz file
func (app *Application) DumpStateGraph() (string, error) {
	dir := app.config.Paths.Logs
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("state_%08d.dot", app.bus.GetCycleCount()))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	debug.WriteStateGraph(f, app.bus)
	return path, nil
}

// Stop stops the application
func (app *Application) Stop() {
	app.running.Store(false)
}

// Pause pauses the emulator
func (app *Application) Pause() {
	app.paused = true
}

// Resume resumes the emulator
func (app *Application) Resume() {
	app.paused = false
}

// TogglePause toggles pause state
func (app *Application) TogglePause() {
	app.paused = !app.paused
}

// Reset resets the machine and restarts emulation
func (app *Application) Reset() {
	app.bus.Reset()
	app.emulator.Reset()
	if app.loopDetector != nil {
		app.loopDetector.Reset()
	}
	app.lastErr = nil
	if app.cartridge != nil {
		app.emulator.Start()
	}
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// IsPaused returns whether the emulator is paused
func (app *Application) IsPaused() bool {
	return app.paused
}

// GetFPS returns the current FPS
func (app *Application) GetFPS() float64 {
	return app.currentFPS
}

// GetFrameCount returns the total number of host frames
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns the application uptime
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetROMPath returns the currently loaded ROM path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// GetBus returns the bus for direct access
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

// GetEmulator returns the emulator
func (app *Application) GetEmulator() *Emulator {
	return app.emulator
}

// GetWindow returns the active window
func (app *Application) GetWindow() graphics.Window {
	return app.window
}

// LoopsDetected returns the PCs the loop detector flagged
func (app *Application) LoopsDetected() map[uint16]int {
	if app.loopDetector == nil {
		return nil
	}
	return app.loopDetector.Detected()
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	var lastErr error

	if app.emulator != nil {
		app.emulator.Stop()
	}

	for pc, n := range app.LoopsDetected() {
		log.Printf("[APP_DEBUG] loop at PC=$%04X flagged %d times", pc, n)
	}

	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[APP_ERROR] Window cleanup error: %v", err)
		}
	}

	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[APP_ERROR] Graphics backend cleanup error: %v", err)
		}
	}

	app.stats.Stop()
	app.stats = nil

	app.closeTrace()
	app.initialized = false
	return lastErr
}
