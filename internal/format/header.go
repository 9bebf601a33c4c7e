package format

import "fmt"

// Header word offsets within the fixed header.
const (
	offMagic           = 0
	offTotalSize       = 4
	offDTStruct        = 8
	offDTStrings       = 12
	offMemRsvmap       = 16
	offVersion         = 20
	offLastCompVersion = 24
	offBootCPUIDPhys   = 28
	offSizeDTStrings   = 32
	offSizeDTStruct    = 36
)

// Header is the decoded fixed header of a flattened tree blob.
type Header struct {
	Magic           uint32
	TotalSize       uint32
	OffDTStruct     uint32
	OffDTStrings    uint32
	OffMemRsvmap    uint32
	Version         uint32
	LastCompVersion uint32
	BootCPUIDPhys   uint32
	SizeDTStrings   uint32
	SizeDTStruct    uint32
}

// ParseHeader decodes and validates the fixed header at the start of b.
// It checks the magic, the version range, and that every block described by
// the header lies within the buffer.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d for header", ErrTruncated, len(b), HeaderSize)
	}

	h := &Header{
		Magic:           ReadU32(b, offMagic),
		TotalSize:       ReadU32(b, offTotalSize),
		OffDTStruct:     ReadU32(b, offDTStruct),
		OffDTStrings:    ReadU32(b, offDTStrings),
		OffMemRsvmap:    ReadU32(b, offMemRsvmap),
		Version:         ReadU32(b, offVersion),
		LastCompVersion: ReadU32(b, offLastCompVersion),
		BootCPUIDPhys:   ReadU32(b, offBootCPUIDPhys),
		SizeDTStrings:   ReadU32(b, offSizeDTStrings),
		SizeDTStruct:    ReadU32(b, offSizeDTStruct),
	}

	if h.Magic != Magic {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadMagic, h.Magic)
	}
	if h.Version < MinCompVersion || h.LastCompVersion > Version {
		return nil, fmt.Errorf("%w: version %d (last compatible %d)",
			ErrBadVersion, h.Version, h.LastCompVersion)
	}
	if int64(h.TotalSize) > int64(len(b)) {
		return nil, fmt.Errorf("%w: totalsize %d exceeds buffer size %d",
			ErrTruncated, h.TotalSize, len(b))
	}

	// Every block must fit inside totalsize.
	if err := h.checkBlock("mem_rsvmap", h.OffMemRsvmap, 0); err != nil {
		return nil, err
	}
	if err := h.checkBlock("dt_struct", h.OffDTStruct, h.SizeDTStruct); err != nil {
		return nil, err
	}
	if err := h.checkBlock("dt_strings", h.OffDTStrings, h.SizeDTStrings); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *Header) checkBlock(name string, off, size uint32) error {
	end := uint64(off) + uint64(size)
	if off < HeaderSize || end > uint64(h.TotalSize) {
		return fmt.Errorf("%w: %s block [%d, %d) outside totalsize %d",
			ErrMalformed, name, off, end, h.TotalSize)
	}
	return nil
}

// Put encodes the header into the first HeaderSize bytes of b.
func (h *Header) Put(b []byte) {
	PutU32(b, offMagic, h.Magic)
	PutU32(b, offTotalSize, h.TotalSize)
	PutU32(b, offDTStruct, h.OffDTStruct)
	PutU32(b, offDTStrings, h.OffDTStrings)
	PutU32(b, offMemRsvmap, h.OffMemRsvmap)
	PutU32(b, offVersion, h.Version)
	PutU32(b, offLastCompVersion, h.LastCompVersion)
	PutU32(b, offBootCPUIDPhys, h.BootCPUIDPhys)
	PutU32(b, offSizeDTStrings, h.SizeDTStrings)
	PutU32(b, offSizeDTStruct, h.SizeDTStruct)
}
