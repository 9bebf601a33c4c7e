//go:build linux || darwin

package fdt

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Load mmaps the blob read-only. Decoding copies everything it needs, so the
// blob can be closed as soon as Decode returns.
func Load(path string) (*Blob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.Size() == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("empty tree blob: %s", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	return &Blob{f: f, data: data, unmap: unix.Munmap}, nil
}
