//go:build !linux

package graphics

import (
	"errors"
	"os"
)

func enableRawMode(f *os.File) (func() error, error) {
	return nil, errors.New("raw terminal input is only supported on linux")
}
