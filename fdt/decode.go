package fdt

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/dtkit/internal/format"
)

// Decode parses a flattened tree blob into a Tree. The blob is fully copied
// into the tree; the input buffer may be released afterwards.
//
// Malformed containers (bad magic, unsupported version, block overruns,
// unbalanced or unknown structure tokens) fail with errors wrapping the
// format package sentinels.
func Decode(blob []byte) (*Tree, error) {
	h, err := format.ParseHeader(blob)
	if err != nil {
		return nil, err
	}

	reserve, err := decodeReserve(blob, h)
	if err != nil {
		return nil, err
	}

	root, err := decodeStruct(
		blob[h.OffDTStruct:h.OffDTStruct+h.SizeDTStruct],
		blob[h.OffDTStrings:h.OffDTStrings+h.SizeDTStrings],
	)
	if err != nil {
		return nil, err
	}

	return &Tree{
		Root:      root,
		Reserve:   reserve,
		BootCPUID: h.BootCPUIDPhys,
	}, nil
}

// decodeReserve reads (address, size) pairs until the terminating zero pair.
func decodeReserve(blob []byte, h *format.Header) ([]ReserveEntry, error) {
	var entries []ReserveEntry
	off := int(h.OffMemRsvmap)
	for {
		if off+format.ReserveEntrySize > int(h.TotalSize) {
			return nil, fmt.Errorf("%w: unterminated memory reservation block", format.ErrMalformed)
		}
		addr := format.ReadU64(blob, off)
		size := format.ReadU64(blob, off+8)
		off += format.ReserveEntrySize
		if addr == 0 && size == 0 {
			return entries, nil
		}
		entries = append(entries, ReserveEntry{Address: addr, Size: size})
	}
}

// decodeStruct scans the token stream of the structure block, resolving
// property names through the strings block.
func decodeStruct(s, strs []byte) (*Node, error) {
	var (
		root  *Node
		stack []*Node
		pos   int
	)

	for {
		if pos+format.TokenSize > len(s) {
			return nil, fmt.Errorf("%w: structure block ends without END token", format.ErrTruncated)
		}
		token := format.ReadU32(s, pos)
		pos += format.TokenSize

		switch token {
		case format.TokenBeginNode:
			name, n, err := readCString(s[pos:])
			if err != nil {
				return nil, fmt.Errorf("%w: unterminated node name at offset %d", format.ErrMalformed, pos)
			}
			pos += format.Align4(n)

			node := &Node{Name: name}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root nodes", format.ErrMalformed)
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				if parent.Child(name) != nil {
					return nil, fmt.Errorf("%w: duplicate sibling %q", format.ErrMalformed, name)
				}
				node.Parent = parent
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)

		case format.TokenEndNode:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: END_NODE without matching BEGIN_NODE", format.ErrMalformed)
			}
			stack = stack[:len(stack)-1]

		case format.TokenProp:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: property outside any node", format.ErrMalformed)
			}
			if pos+format.PropHeaderSize > len(s) {
				return nil, fmt.Errorf("%w: property header at offset %d", format.ErrTruncated, pos)
			}
			length := int(format.ReadU32(s, pos))
			nameOff := int(format.ReadU32(s, pos+4))
			pos += format.PropHeaderSize

			if nameOff >= len(strs) {
				return nil, fmt.Errorf("%w: property name offset %d beyond strings block", format.ErrMalformed, nameOff)
			}
			name, _, err := readCString(strs[nameOff:])
			if err != nil {
				return nil, fmt.Errorf("%w: unterminated property name at %d", format.ErrMalformed, nameOff)
			}

			if pos+length > len(s) {
				return nil, fmt.Errorf("%w: property %q value (%d bytes)", format.ErrTruncated, name, length)
			}
			cur := stack[len(stack)-1]
			if cur.Prop(name) != nil {
				return nil, fmt.Errorf("%w: duplicate property %q on %q", format.ErrMalformed, name, cur.Name)
			}
			cur.Props = append(cur.Props, &Property{
				Name:  name,
				Value: bytes.Clone(s[pos : pos+length]),
			})
			pos += format.Align4(length)

		case format.TokenNop:
			// skip

		case format.TokenEnd:
			if len(stack) != 0 {
				return nil, fmt.Errorf("%w: END token with %d open nodes", format.ErrMalformed, len(stack))
			}
			if root == nil {
				return nil, fmt.Errorf("%w: no root node", format.ErrMalformed)
			}
			return root, nil

		default:
			return nil, fmt.Errorf("%w: unknown token 0x%x at offset %d", format.ErrMalformed, token, pos-format.TokenSize)
		}
	}
}

// readCString reads a NUL-terminated string from the start of b, returning
// the string and the number of bytes consumed including the NUL.
func readCString(b []byte) (string, int, error) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", 0, format.ErrTruncated
	}
	return string(b[:i]), i + 1, nil
}
