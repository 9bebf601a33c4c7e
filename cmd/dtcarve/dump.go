package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/joshuapare/dtkit/fdt"
)

// writeTree renders the tree as device tree source. The output is meant for
// inspection; dtc handles authoritative decompilation.
func writeTree(w io.Writer, t *fdt.Tree) error {
	if _, err := fmt.Fprintln(w, "/dts-v1/;"); err != nil {
		return err
	}
	for _, r := range t.Reserve {
		if _, err := fmt.Fprintf(w, "/memreserve/ 0x%x 0x%x;\n", r.Address, r.Size); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return writeNode(w, t.Root, 0)
}

func writeNode(w io.Writer, n *fdt.Node, depth int) error {
	indent := strings.Repeat("\t", depth)
	name := n.Name
	if name == "" {
		name = "/"
	}
	if _, err := fmt.Fprintf(w, "%s%s {\n", indent, name); err != nil {
		return err
	}
	for _, p := range n.Props {
		if _, err := fmt.Fprintf(w, "%s\t%s%s;\n", indent, p.Name, renderValue(p.Value)); err != nil {
			return err
		}
	}
	for i, c := range n.Children {
		if len(n.Props) > 0 || i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeNode(w, c, depth+1); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s};\n", indent)
	return err
}

// renderValue formats a property payload in source syntax: strings quoted,
// cells as a hex word list, anything else as a byte array. An empty payload
// is a boolean property and renders as the bare name.
func renderValue(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	v := fdt.DecodeValue(payload, fdt.ModeSimple)
	switch v.Kind {
	case fdt.KindString:
		return fmt.Sprintf(" = %q", v.Str)
	case fdt.KindStringList:
		quoted := make([]string, len(v.Strs))
		for i, s := range v.Strs {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		return " = " + strings.Join(quoted, ", ")
	}

	if len(payload)%4 == 0 {
		words := fdt.DecodeValue(payload, fdt.ModeCompoundHex)
		parts := make([]string, len(words.Words))
		for i, word := range words.Words {
			parts[i] = fmt.Sprintf("0x%x", word)
		}
		return fmt.Sprintf(" = <%s>", strings.Join(parts, " "))
	}

	parts := make([]string, len(payload))
	for i, b := range payload {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return fmt.Sprintf(" = [%s]", strings.Join(parts, " "))
}
