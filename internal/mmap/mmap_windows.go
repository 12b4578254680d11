//go:build windows

package mmap

import (
	"io"
	"os"
)

// Windows builds fall back to reading the file into a heap buffer.
// Recovery is a rare administrative operation, so the extra copy is
// acceptable there.
func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, func([]byte) error { return nil }, nil
}
