package fdt

import (
	"fmt"

	"github.com/joshuapare/dtkit/internal/format"
)

// Encode serializes the tree back into a flattened container blob.
// Decode(t.Encode()) yields a tree structurally equal to t.
func (t *Tree) Encode() ([]byte, error) {
	st := newStringTable()

	structBlock, err := encodeStruct(t.Root, st)
	if err != nil {
		return nil, err
	}

	rsv := make([]byte, 0, (len(t.Reserve)+1)*format.ReserveEntrySize)
	for _, e := range t.Reserve {
		rsv = format.AppendU64(rsv, e.Address)
		rsv = format.AppendU64(rsv, e.Size)
	}
	rsv = format.AppendU64(rsv, 0) // zero pair terminator
	rsv = format.AppendU64(rsv, 0)

	offRsv := format.AlignTo(format.HeaderSize, format.RsvmapAlign)
	offStruct := offRsv + len(rsv)
	offStrings := offStruct + len(structBlock)
	total := offStrings + len(st.block)

	h := format.Header{
		Magic:           format.Magic,
		TotalSize:       uint32(total),
		OffDTStruct:     uint32(offStruct),
		OffDTStrings:    uint32(offStrings),
		OffMemRsvmap:    uint32(offRsv),
		Version:         format.Version,
		LastCompVersion: format.LastCompVersion,
		BootCPUIDPhys:   t.BootCPUID,
		SizeDTStrings:   uint32(len(st.block)),
		SizeDTStruct:    uint32(len(structBlock)),
	}

	buf := make([]byte, total)
	h.Put(buf)
	copy(buf[offRsv:], rsv)
	copy(buf[offStruct:], structBlock)
	copy(buf[offStrings:], st.block)
	return buf, nil
}

// encodeStruct emits the token stream for the subtree rooted at n, followed
// by the END token at the top level.
func encodeStruct(root *Node, st *stringTable) ([]byte, error) {
	var b []byte
	var emit func(n *Node) error
	emit = func(n *Node) error {
		b = format.AppendU32(b, format.TokenBeginNode)
		b = appendPadded(b, append([]byte(n.Name), 0))

		for _, p := range n.Props {
			b = format.AppendU32(b, format.TokenProp)
			b = format.AppendU32(b, uint32(len(p.Value)))
			b = format.AppendU32(b, st.intern(p.Name))
			b = appendPadded(b, p.Value)
		}

		seen := make(map[string]struct{}, len(n.Children))
		for _, c := range n.Children {
			if _, dup := seen[c.Name]; dup {
				return fmt.Errorf("%w: duplicate sibling %q under %q", format.ErrMalformed, c.Name, n.Name)
			}
			seen[c.Name] = struct{}{}
			if err := emit(c); err != nil {
				return err
			}
		}
		b = format.AppendU32(b, format.TokenEndNode)
		return nil
	}
	if err := emit(root); err != nil {
		return nil, err
	}
	b = format.AppendU32(b, format.TokenEnd)
	return b, nil
}

// appendPadded appends v then zero bytes up to the next 4-byte boundary.
func appendPadded(b, v []byte) []byte {
	b = append(b, v...)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

// stringTable builds the de-duplicated strings block.
type stringTable struct {
	offsets map[string]uint32
	block   []byte
}

func newStringTable() *stringTable {
	return &stringTable{offsets: make(map[string]uint32)}
}

// intern returns the offset of s in the strings block, appending it on
// first use.
func (st *stringTable) intern(s string) uint32 {
	if off, ok := st.offsets[s]; ok {
		return off
	}
	off := uint32(len(st.block))
	st.offsets[s] = off
	st.block = append(st.block, s...)
	st.block = append(st.block, 0)
	return off
}
