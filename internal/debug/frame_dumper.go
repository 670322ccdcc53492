package debug

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	frameWidth  = 160
	frameHeight = 144
)

// FrameDumper writes framebuffers to disk as PGM images
type FrameDumper struct {
	outputDir    string
	dumpEnabled  bool
	dumpCount    int
	maxDumps     int
	dumpInterval int // Dump every N frames
}

// NewFrameDumper creates a new frame dumper
func NewFrameDumper(outputDir string) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		maxDumps:     10,
		dumpInterval: 1,
	}
}

// Enable activates frame dumping
func (fd *FrameDumper) Enable() error {
	if err := os.MkdirAll(fd.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create frame dump directory: %w", err)
	}
	fd.dumpEnabled = true
	return nil
}

// Disable deactivates frame dumping
func (fd *FrameDumper) Disable() {
	fd.dumpEnabled = false
}

// SetMaxDumps sets the maximum number of frames to dump
func (fd *FrameDumper) SetMaxDumps(max int) {
	fd.maxDumps = max
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval int) {
	if interval < 1 {
		interval = 1
	}
	fd.dumpInterval = interval
}

// DumpCount returns how many frames have been written
func (fd *FrameDumper) DumpCount() int {
	return fd.dumpCount
}

// DumpFrame writes the frame if dumping is enabled and frameNum falls on
// the interval. It returns the written path, or "" when skipped.
func (fd *FrameDumper) DumpFrame(frame *[frameWidth * frameHeight]uint8, frameNum uint64) (string, error) {
	if !fd.dumpEnabled || frameNum%uint64(fd.dumpInterval) != 0 || fd.dumpCount >= fd.maxDumps {
		return "", nil
	}

	path := filepath.Join(fd.outputDir, fmt.Sprintf("frame_%06d.pgm", frameNum))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create frame dump file: %w", err)
	}
	defer file.Close()

	if err := WritePGM(file, frame); err != nil {
		return "", fmt.Errorf("failed to write frame %d: %w", frameNum, err)
	}

	fd.dumpCount++
	return path, nil
}

// WritePGM encodes shades 0-3 as a binary greymap, shade 0 lightest
func WritePGM(w io.Writer, frame *[frameWidth * frameHeight]uint8) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n255\n", frameWidth, frameHeight); err != nil {
		return err
	}
	for _, shade := range frame {
		if err := bw.WriteByte(255 - (shade&0x03)*85); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteText renders the frame with one character per pixel
func WriteText(w io.Writer, frame *[frameWidth * frameHeight]uint8) error {
	const shades = " .+#"
	bw := bufio.NewWriter(w)
	line := make([]byte, frameWidth+1)
	line[frameWidth] = '\n'
	for y := 0; y < frameHeight; y++ {
		for x := 0; x < frameWidth; x++ {
			line[x] = shades[frame[y*frameWidth+x]&0x03]
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
