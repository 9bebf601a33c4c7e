package xform

import "errors"

var (
	// ErrModuleNotFound indicates a load-module fragment named a module
	// absent from the registry.
	ErrModuleNotFound = errors.New("xform: domain module not found")

	// ErrUnsupportedOp indicates a modify operation with defined syntax but
	// no defined semantics (property value replacement).
	ErrUnsupportedOp = errors.New("xform: unsupported modify operation")

	// ErrMalformedModify indicates a modify expression that is not a
	// path:property:replacement triplet.
	ErrMalformedModify = errors.New("xform: malformed modify expression")

	// ErrDuplicateModule indicates a module name registered twice.
	ErrDuplicateModule = errors.New("xform: duplicate module name")
)
