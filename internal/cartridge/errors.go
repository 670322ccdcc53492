package cartridge

import (
	"errors"
	"fmt"
)

// Load-time failures wrapped by LoadError
var (
	ErrTruncated       = errors.New("image truncated")
	ErrInvalidROMSize  = errors.New("invalid ROM size code")
	ErrEmptyProgram    = errors.New("program is empty")
	ErrProgramTooLarge = errors.New("program does not fit in ROM space")
)

// LoadError represents a malformed or truncated program image
type LoadError struct {
	Op   string
	Size int
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cartridge: %s (%d bytes): %v", e.Op, e.Size, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ValidateProgram checks that a raw program fits the 32 KiB ROM window
func ValidateProgram(program []byte) error {
	switch {
	case len(program) == 0:
		return &LoadError{Op: "load program", Size: 0, Err: ErrEmptyProgram}
	case len(program) > minimumROMBytes:
		return &LoadError{Op: "load program", Size: len(program), Err: ErrProgramTooLarge}
	}
	return nil
}
