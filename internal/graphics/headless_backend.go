package graphics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gogb/internal/ppu"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow keeps the last rendered frame and writes selected frames
// to disk as PPM images
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount int
	outputDir  string
	saveFrames map[int]bool
	processor  *VideoProcessor
	last       Frame
	saved      []string
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}
	if _, err := PaletteByName(config.Palette); err != nil {
		return err
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window"
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	palette, _ := PaletteByName(b.config.Palette)
	brightness := b.config.Brightness
	if brightness == 0 {
		brightness = 1
	}

	outputDir := b.config.OutputDir
	if outputDir == "" {
		outputDir = "frame_output"
	}

	saveFrames := make(map[int]bool, len(b.config.OutputFrames))
	for _, n := range b.config.OutputFrames {
		saveFrames[n] = true
	}

	return &HeadlessWindow{
		title:      title,
		width:      width,
		height:     height,
		running:    true,
		outputDir:  outputDir,
		saveFrames: saveFrames,
		processor:  NewVideoProcessor(palette, brightness),
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers does nothing in headless mode
func (w *HeadlessWindow) SwapBuffers() {}

// PollEvents returns no events, there is no input in headless mode
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame records the frame and saves it when its number was requested
func (w *HeadlessWindow) RenderFrame(frame *Frame) error {
	if frame == nil {
		return fmt.Errorf("nil frame")
	}
	w.frameCount++
	w.last = *frame

	if !w.saveFrames[w.frameCount] {
		return nil
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", w.outputDir, err)
	}
	filename := filepath.Join(w.outputDir, fmt.Sprintf("frame_%03d.ppm", w.frameCount))
	if err := w.saveFrameAsPPM(frame, filename); err != nil {
		return err
	}
	w.saved = append(w.saved, filename)
	return nil
}

func (w *HeadlessWindow) saveFrameAsPPM(frame *Frame, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer file.Close()

	return WritePPM(file, frame, w.processor)
}

// WritePPM writes the frame as a binary PPM image coloured by the processor
func WritePPM(out io.Writer, frame *Frame, processor *VideoProcessor) error {
	bw := bufio.NewWriter(out)
	fmt.Fprintf(bw, "P6\n%d %d\n255\n", ppu.ScreenWidth, ppu.ScreenHeight)
	for _, shade := range frame {
		c := processor.Color(shade)
		bw.WriteByte(c.R)
		bw.WriteByte(c.G)
		bw.WriteByte(c.B)
	}
	return bw.Flush()
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// SetOutputPath sets the directory for frame dumps
func (w *HeadlessWindow) SetOutputPath(path string) {
	w.outputDir = path
}

// GetFrameCount returns the number of frames rendered
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}

// LastFrame returns a copy of the most recently rendered frame
func (w *HeadlessWindow) LastFrame() Frame {
	return w.last
}

// SavedFiles returns the paths written so far
func (w *HeadlessWindow) SavedFiles() []string {
	return w.saved
}
