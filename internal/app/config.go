package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gogb/internal/graphics"
	"gogb/internal/input"
	"gogb/internal/ppu"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"` // screen resolution multiplier
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	VSync      bool    `json:"vsync"`
	Filter     string  `json:"filter"`  // "nearest", "linear"
	Backend    string  `json:"backend"` // "ebitengine", "headless", "terminal"
	Palette    string  `json:"palette"` // "dmg", "gray"
	Brightness float32 `json:"brightness"`
}

// InputConfig maps joypad buttons to key names
type InputConfig struct {
	Keys KeyMapping `json:"keys"`
}

// KeyMapping represents keyboard key mappings for the joypad
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	StrictAddressing bool `json:"strict_addressing"` // panic on tile fetches outside VRAM
	SerialToStdout   bool `json:"serial_to_stdout"`
	HeadlessFrames   int  `json:"headless_frames"` // frames to run without a window
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	EnableLogging     bool     `json:"enable_logging"`
	CPUTracing        bool     `json:"cpu_tracing"`
	PPUTracing        bool     `json:"ppu_tracing"`
	TraceLimit        uint64   `json:"trace_limit"`
	LoopDetection     bool     `json:"loop_detection"`
	LoopThreshold     int      `json:"loop_threshold"`
	DumpFrames        bool     `json:"dump_frames"`
	DumpInterval      int      `json:"dump_interval"`
	MaxDumps          int      `json:"max_dumps"`
	MemoryWatchpoints []string `json:"memory_watchpoints"` // hex addresses such as "FF44"
	InputDebug        bool     `json:"input_debug"`
	StatsView         bool     `json:"stats_view"`
	StatsAddress      string   `json:"stats_address"`
	OutputFrames      []int    `json:"output_frames"` // headless frames saved as PPM
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	ROMs        string `json:"roms"`
	Screenshots string `json:"screenshots"`
	FrameDumps  string `json:"frame_dumps"`
	Logs        string `json:"logs"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Fullscreen: false,
			Scale:      4, // 640x576
		},
		Video: VideoConfig{
			VSync:      true,
			Filter:     "nearest",
			Backend:    "ebitengine",
			Palette:    "dmg",
			Brightness: 1.0,
		},
		Input: InputConfig{
			Keys: KeyMapping{
				Up:     "Up",
				Down:   "Down",
				Left:   "Left",
				Right:  "Right",
				A:      "X",
				B:      "Z",
				Start:  "Enter",
				Select: "Space",
			},
		},
		Emulation: EmulationConfig{
			HeadlessFrames: 600,
		},
		Debug: DebugConfig{
			TraceLimit:    100000,
			LoopThreshold: 100,
			DumpInterval:  60,
			MaxDumps:      10,
			StatsAddress:  "localhost:12600",
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			Screenshots: "./screenshots",
			FrameDumps:  "./frame_dumps",
			Logs:        "./logs",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// validate rejects values that cannot work and clamps the rest
func (c *Config) validate() error {
	switch c.Video.Backend {
	case "ebitengine", "headless", "terminal":
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: errors.New("unknown backend")}
	}

	if _, err := graphics.PaletteByName(c.Video.Palette); err != nil {
		return &ConfigError{Field: "video.palette", Value: c.Video.Palette, Err: err}
	}

	if _, err := c.KeyMap(); err != nil {
		return err
	}

	for _, w := range c.Debug.MemoryWatchpoints {
		if _, err := parseAddress(w); err != nil {
			return &ConfigError{Field: "debug.memory_watchpoints", Value: w, Err: err}
		}
	}

	if c.Window.Scale <= 0 || c.Window.Scale > 10 {
		c.Window.Scale = 4
	}
	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}
	if c.Video.Filter != "linear" {
		c.Video.Filter = "nearest"
	}
	if c.Emulation.HeadlessFrames <= 0 {
		c.Emulation.HeadlessFrames = 600
	}
	if c.Debug.LoopThreshold <= 0 {
		c.Debug.LoopThreshold = 100
	}
	if c.Debug.DumpInterval <= 0 {
		c.Debug.DumpInterval = 60
	}
	if c.Debug.MaxDumps < 0 {
		c.Debug.MaxDumps = 0
	}

	return nil
}

var keyNames = map[string]graphics.Key{
	"up":        graphics.KeyUp,
	"down":      graphics.KeyDown,
	"left":      graphics.KeyLeft,
	"right":     graphics.KeyRight,
	"enter":     graphics.KeyEnter,
	"return":    graphics.KeyEnter,
	"space":     graphics.KeySpace,
	"backspace": graphics.KeyBackspace,
	"w":         graphics.KeyW,
	"a":         graphics.KeyA,
	"s":         graphics.KeyS,
	"d":         graphics.KeyD,
	"j":         graphics.KeyJ,
	"k":         graphics.KeyK,
	"x":         graphics.KeyX,
	"z":         graphics.KeyZ,
}

// KeyMap resolves the configured key names into a backend key map
func (c *Config) KeyMap() (map[graphics.Key]input.Button, error) {
	keys := c.Input.Keys
	bindings := []struct {
		field  string
		name   string
		button input.Button
	}{
		{"up", keys.Up, input.Up},
		{"down", keys.Down, input.Down},
		{"left", keys.Left, input.Left},
		{"right", keys.Right, input.Right},
		{"a", keys.A, input.A},
		{"b", keys.B, input.B},
		{"start", keys.Start, input.Start},
		{"select", keys.Select, input.Select},
	}

	keyMap := make(map[graphics.Key]input.Button, len(bindings))
	for _, binding := range bindings {
		key, ok := keyNames[strings.ToLower(binding.name)]
		if !ok {
			return nil, &ConfigError{
				Field: "input.keys." + binding.field,
				Value: binding.name,
				Err:   errors.New("unknown key name"),
			}
		}
		if other, taken := keyMap[key]; taken {
			return nil, &ConfigError{
				Field: "input.keys." + binding.field,
				Value: binding.name,
				Err:   fmt.Errorf("key already bound to %s", other),
			}
		}
		keyMap[key] = binding.button
	}
	return keyMap, nil
}

// Watchpoints returns the configured watchpoint addresses
func (c *Config) Watchpoints() []uint16 {
	var addresses []uint16
	for _, w := range c.Debug.MemoryWatchpoints {
		if addr, err := parseAddress(w); err == nil {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}

func parseAddress(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.ToUpper(s), "0X"), "$")
	var addr uint16
	if _, err := fmt.Sscanf(s, "%X", &addr); err != nil {
		return 0, fmt.Errorf("bad address %q", s)
	}
	return addr, nil
}

// GetScreenResolution returns the native screen resolution
func (c *Config) GetScreenResolution() (int, int) {
	return ppu.ScreenWidth, ppu.ScreenHeight
}

// GetWindowResolution returns the window resolution based on scale
func (c *Config) GetWindowResolution() (int, int) {
	w, h := c.GetScreenResolution()
	return w * c.Window.Scale, h * c.Window.Scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/gogb.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
