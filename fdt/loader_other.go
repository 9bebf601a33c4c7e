//go:build !linux && !darwin

package fdt

import (
	"fmt"
	"os"
)

// Load reads the blob into memory on platforms without mmap support.
func Load(path string) (*Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty tree blob: %s", path)
	}
	return &Blob{data: data}, nil
}
