// Package main implements the gogb emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gogb/internal/app"
	"gogb/internal/version"
)

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to Game Boy ROM file (or pass it as an argument)")
		configFile = flag.String("config", "", "Path to configuration file")
		backend    = flag.String("backend", "", "Graphics backend: ebitengine, terminal or headless")
		headless   = flag.Bool("headless", false, "Run without a window")
		frames     = flag.Int("frames", 0, "Frames to run in headless mode (0 uses the config)")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		trace      = flag.Bool("trace", false, "Write a CPU trace to the logs directory")
		serial     = flag.Bool("serial", false, "Copy serial port output to stdout")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	if *showVer {
		version.Print(os.Stdout)
		os.Exit(0)
	}

	romPath := *romFile
	if romPath == "" && flag.NArg() > 0 {
		romPath = flag.Arg(0)
	}
	if romPath == "" {
		printUsage()
		os.Exit(2)
	}

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}
	config := app.NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		log.Printf("[APP_WARNING] Could not load config from %s, using defaults: %v", configPath, err)
		config = app.NewConfig()
	}

	if *backend != "" {
		config.Video.Backend = *backend
	}
	if *frames > 0 {
		config.Emulation.HeadlessFrames = *frames
	}
	if *debug {
		config.Debug.EnableLogging = true
		config.Debug.LoopDetection = true
	}
	if *trace {
		config.Debug.CPUTracing = true
	}
	if *serial {
		config.Emulation.SerialToStdout = true
	}

	application, err := app.NewApplicationWithConfig(config, *headless || config.Video.Backend == "headless")
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	setupGracefulShutdown(application)

	if err := application.LoadROM(romPath); err != nil {
		application.Cleanup()
		log.Fatalf("Failed to load ROM: %v", err)
	}

	runErr := application.Run()

	if config.Debug.EnableLogging {
		stats := application.GetEmulator().GetPerformanceStats()
		log.Printf("[APP] %d frames in %v (%.1f FPS, %.2fx speed)",
			stats.FrameCount, application.GetUptime(), application.GetFPS(), stats.EmulationSpeed)
	}

	if err := application.Cleanup(); err != nil {
		log.Printf("[APP_ERROR] Application cleanup error: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Emulation stopped: %v", runErr)
	}
}

// setupGracefulShutdown stops the main loop on SIGINT or SIGTERM so the
// terminal and trace files are restored
func setupGracefulShutdown(application *app.Application) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Printf("[APP] Interrupt received, shutting down")
		application.Stop()
	}()
}

func printUsage() {
	fmt.Println("gogb - Go Game Boy emulator")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  gogb [options] <rom>")
	fmt.Println("  gogb -headless -frames 300 <rom>   # Run without a window")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("CONTROLS (Default):")
	fmt.Println("  Arrow Keys   - D-Pad")
	fmt.Println("  X            - A Button")
	fmt.Println("  Z            - B Button")
	fmt.Println("  Enter        - Start")
	fmt.Println("  Space        - Select")
	fmt.Println()
	fmt.Println("  Escape       - Quit")
	fmt.Println("  F1           - Pause / resume")
	fmt.Println("  F2           - Reset")
	fmt.Println("  F3           - Write machine state graph (.dot) to the logs directory")
	fmt.Println("  F12          - Save screenshot (.pgm)")
}
