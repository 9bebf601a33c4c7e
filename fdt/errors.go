package fdt

import "errors"

var (
	// ErrNotFound indicates a path or property that does not exist.
	ErrNotFound = errors.New("fdt: not found")

	// ErrStaleHandle indicates a handle minted before a structural mutation.
	ErrStaleHandle = errors.New("fdt: stale handle")

	// ErrPhandleNotFound indicates no node carries the requested phandle.
	ErrPhandleNotFound = errors.New("fdt: phandle not found")

	// ErrExists indicates a sibling with the same name already exists.
	ErrExists = errors.New("fdt: sibling name already exists")

	// ErrBadName indicates an invalid node name (empty or containing '/').
	ErrBadName = errors.New("fdt: invalid node name")

	// ErrCannotDeleteRoot indicates an attempt to delete the root node.
	ErrCannotDeleteRoot = errors.New("fdt: cannot delete root node")

	// ErrUnsupported indicates a value that cannot be re-encoded.
	ErrUnsupported = errors.New("fdt: unsupported value encoding")
)
