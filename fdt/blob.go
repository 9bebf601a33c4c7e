package fdt

import "os"

// Blob is a read-only view of a flattened tree file, mmap-backed on
// platforms that support it.
type Blob struct {
	f     *os.File
	data  []byte
	unmap func([]byte) error
}

// Bytes returns the raw blob contents. The slice is only valid until Close.
func (b *Blob) Bytes() []byte { return b.data }

// Size returns the blob length in bytes.
func (b *Blob) Size() int { return len(b.data) }

// Close releases the mapping (if any) and the underlying file.
func (b *Blob) Close() error {
	var err error
	if b.data != nil && b.unmap != nil {
		err = b.unmap(b.data)
	}
	b.data = nil
	if b.f != nil {
		if cerr := b.f.Close(); err == nil {
			err = cerr
		}
		b.f = nil
	}
	return err
}
