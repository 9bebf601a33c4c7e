package format

import "errors"

var (
	// ErrBadMagic indicates the blob does not start with the container magic.
	ErrBadMagic = errors.New("format: bad magic")
	// ErrBadVersion indicates a container version outside the supported range.
	ErrBadVersion = errors.New("format: unsupported version")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrMalformed indicates a structurally invalid block (bad offsets, sizes or tokens).
	ErrMalformed = errors.New("format: malformed structure")
)
