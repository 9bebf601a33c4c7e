package format

// Flattened device tree container constants.
//
// All multi-byte fields in the container are big-endian, and the structure
// block is a stream of 4-byte aligned tokens.

const (
	// Magic is the value of the first header word in every flattened tree blob.
	Magic = 0xd00dfeed

	// Version is the container version we produce.
	Version = 17

	// LastCompVersion is the oldest version a Version-17 blob is compatible with.
	LastCompVersion = 16

	// MinCompVersion is the oldest container version we accept on decode.
	MinCompVersion = 16
)

// Structure block tokens.
const (
	TokenBeginNode = 0x1 // followed by the node name, NUL terminated, padded to 4
	TokenEndNode   = 0x2
	TokenProp      = 0x3 // followed by {len, nameoff} then len value bytes, padded to 4
	TokenNop       = 0x4
	TokenEnd       = 0x9
)

const (
	// HeaderSize is the byte length of the fixed header (ten 32-bit words).
	HeaderSize = 40

	// RsvmapAlign is the required alignment of the memory reservation block.
	RsvmapAlign = 8

	// ReserveEntrySize is the byte length of one (address, size) reservation pair.
	ReserveEntrySize = 16

	// TokenSize is the byte length of a structure block token word.
	TokenSize = 4

	// PropHeaderSize is the byte length of the {len, nameoff} pair after TokenProp.
	PropHeaderSize = 8
)

// Align4 rounds n up to the next multiple of 4.
func Align4(n int) int {
	return (n + 3) &^ 3
}

// AlignTo rounds n up to the next multiple of align, which must be a power of two.
func AlignTo(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
