package fdt

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/dtkit/internal/format"
)

// Mode selects how a raw property payload is decoded.
type Mode int

const (
	// ModeSimple tries, in order: uint32, uint64, string, string list.
	ModeSimple Mode = iota
	// ModeCompoundDec reinterprets the payload as big-endian 32-bit words,
	// rendered in decimal.
	ModeCompoundDec
	// ModeCompoundHex is ModeCompoundDec with hexadecimal rendering.
	ModeCompoundHex
)

// ParseMode parses a mode string: "simple", "compound", "compound:dec" or
// "compound:hex".
func ParseMode(s string) (Mode, error) {
	base, spec, _ := strings.Cut(s, ":")
	switch base {
	case "simple":
		return ModeSimple, nil
	case "compound":
		if spec == "hex" {
			return ModeCompoundHex, nil
		}
		if spec == "" || spec == "dec" {
			return ModeCompoundDec, nil
		}
	}
	return ModeSimple, fmt.Errorf("%w: decode mode %q", ErrUnsupported, s)
}

// Kind identifies the decoded shape of a property payload.
type Kind int

const (
	// KindUndecodable is the recoverable "no decoding matched" result.
	KindUndecodable Kind = iota
	KindU32
	KindU64
	KindString
	KindStringList
	KindWords
)

// Value is the decoded view of a property payload. Exactly one field group
// is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	U32   uint32
	U64   uint64
	Str   string
	Strs  []string
	Words []uint32

	// Hex selects hexadecimal rendering for KindWords.
	Hex bool

	// Truncated is set when a compound decode dropped a trailing partial
	// word. The bytes are still dropped, but never silently.
	Truncated bool
}

// DecodeValue decodes a raw payload according to mode. It never fails: a
// payload no simple decoding matches yields KindUndecodable.
func DecodeValue(payload []byte, mode Mode) Value {
	switch mode {
	case ModeCompoundDec, ModeCompoundHex:
		return decodeCompound(payload, mode == ModeCompoundHex)
	default:
		return decodeSimple(payload)
	}
}

// decodeSimple applies the strict simple-mode order: exactly 4 bytes is a
// uint32, exactly 8 a uint64, then a NUL-terminated printable string, then a
// NUL-separated string list.
func decodeSimple(p []byte) Value {
	switch len(p) {
	case 4:
		return Value{Kind: KindU32, U32: format.ReadU32(p, 0)}
	case 8:
		return Value{Kind: KindU64, U64: format.ReadU64(p, 0)}
	}

	if len(p) == 0 {
		return Value{Kind: KindUndecodable}
	}

	body := p
	if body[len(body)-1] == 0 {
		body = body[:len(body)-1]
	} else if !bytes.ContainsRune(p, 0) {
		// A single string must be NUL terminated.
		return Value{Kind: KindUndecodable}
	}

	if !bytes.ContainsRune(body, 0) {
		if printable(body) {
			return Value{Kind: KindString, Str: string(body)}
		}
		return Value{Kind: KindUndecodable}
	}

	parts := strings.Split(string(body), "\x00")
	for _, s := range parts {
		if !printable([]byte(s)) {
			return Value{Kind: KindUndecodable}
		}
	}
	return Value{Kind: KindStringList, Strs: parts}
}

// decodeCompound reinterprets the payload as big-endian 32-bit words. A
// trailing partial word is dropped and flagged via Truncated.
func decodeCompound(p []byte, hex bool) Value {
	n := len(p) / 4
	words := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		words = append(words, format.ReadU32(p, i*4))
	}
	return Value{
		Kind:      KindWords,
		Words:     words,
		Hex:       hex,
		Truncated: len(p)%4 != 0,
	}
}

func printable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.Kind {
	case KindU32:
		return strconv.FormatUint(uint64(v.U32), 10)
	case KindU64:
		return strconv.FormatUint(v.U64, 10)
	case KindString:
		return v.Str
	case KindStringList:
		return strings.Join(v.Strs, " ")
	case KindWords:
		parts := make([]string, len(v.Words))
		for i, w := range v.Words {
			if v.Hex {
				parts[i] = "0x" + strconv.FormatUint(uint64(w), 16)
			} else {
				parts[i] = strconv.FormatUint(uint64(w), 10)
			}
		}
		return strings.Join(parts, " ")
	default:
		return "** unable to decode value **"
	}
}

// Strings returns the value as a string list: a single string becomes a
// one-element list. Non-string kinds return nil.
func (v Value) Strings() []string {
	switch v.Kind {
	case KindString:
		return []string{v.Str}
	case KindStringList:
		return v.Strs
	default:
		return nil
	}
}

// Any converts the value to a plain Go value for use in filter expression
// environments. KindUndecodable converts to nil.
func (v Value) Any() any {
	switch v.Kind {
	case KindU32:
		return int(v.U32)
	case KindU64:
		return v.U64
	case KindString:
		return v.Str
	case KindStringList:
		return v.Strs
	case KindWords:
		words := make([]int, len(v.Words))
		for i, w := range v.Words {
			words[i] = int(w)
		}
		return words
	default:
		return nil
	}
}

// EncodeValue performs the inverse of DecodeValue, mapping a decoded value
// back to its raw payload.
func EncodeValue(v Value) ([]byte, error) {
	switch v.Kind {
	case KindU32:
		return format.AppendU32(nil, v.U32), nil
	case KindU64:
		return format.AppendU64(nil, v.U64), nil
	case KindString:
		return append([]byte(v.Str), 0), nil
	case KindStringList:
		var b []byte
		for _, s := range v.Strs {
			b = append(b, s...)
			b = append(b, 0)
		}
		return b, nil
	case KindWords:
		return EncodeWords(v.Words), nil
	default:
		return nil, fmt.Errorf("%w: cannot encode kind %d", ErrUnsupported, v.Kind)
	}
}

// EncodeWords packs 32-bit words into a big-endian byte payload.
func EncodeWords(words []uint32) []byte {
	var b []byte
	for _, w := range words {
		b = format.AppendU32(b, w)
	}
	return b
}
