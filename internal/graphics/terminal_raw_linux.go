//go:build linux

package graphics

import (
	"fmt"
	"os"

	"github.com/pkg/term/termios"
)

// enableRawMode puts the terminal behind f into raw mode and returns a
// function restoring the previous attributes
func enableRawMode(f *os.File) (func() error, error) {
	return makeRaw(f.Fd(), termios.Tcgetattr, termios.Cfmakeraw, termios.Tcsetattr)
}

// makeRaw is generic over the attribute struct so it follows whichever
// termios type the package declares
func makeRaw[T any](fd uintptr,
	get func(uintptr, *T) error,
	raw func(*T),
	set func(uintptr, uintptr, *T) error,
) (func() error, error) {
	var saved T
	if err := get(fd, &saved); err != nil {
		return nil, fmt.Errorf("reading terminal attributes: %w", err)
	}

	attr := saved
	raw(&attr)
	if err := set(fd, termios.TCIFLUSH, &attr); err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}

	return func() error {
		return set(fd, termios.TCIFLUSH, &saved)
	}, nil
}
