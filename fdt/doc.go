// Package fdt implements an in-memory model of flattened device trees and
// the binary codec for the flattened container format.
//
// A Tree is decoded once from a blob, mutated in place through handle-based
// operations, and encoded back out. Handles carry a generation stamp: any
// structural mutation (node delete, rename, insert) invalidates every
// outstanding handle, and later use of a stale handle fails fast with
// ErrStaleHandle rather than silently resolving to the wrong node. Callers
// re-resolve by path after mutating.
//
// Property payloads are raw bytes; decoded views are computed on demand by
// DecodeValue and never cached on the tree.
package fdt
