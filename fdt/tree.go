package fdt

import (
	"bytes"
	"strings"
)

// PathSeparator separates components in absolute node paths.
const PathSeparator = "/"

// Property is a named raw byte payload attached to a node. The decoded view
// is always recomputed via DecodeValue; it is never stored here.
type Property struct {
	Name  string
	Value []byte
}

// Node is a single entity in the tree. Children are ordered and sibling
// names are unique. Property names are unique per node and keep their
// insertion order.
type Node struct {
	Name     string
	Parent   *Node
	Children []*Node
	Props    []*Property
}

// ReserveEntry is one (address, size) pair from the memory reservation block.
type ReserveEntry struct {
	Address uint64
	Size    uint64
}

// Tree is a rooted device tree plus the container metadata that survives a
// decode/encode round trip. The root node's name is empty.
type Tree struct {
	Root      *Node
	Reserve   []ReserveEntry
	BootCPUID uint32

	// Structural generation. Bumped on every mutation that can invalidate
	// node handles; see handle.go.
	gen uint64

	arena    []arenaEntry
	phandles map[uint32]int // phandle -> arena index
}

// NewTree creates an empty tree with an unnamed root.
func NewTree() *Tree {
	return &Tree{Root: &Node{}}
}

// Prop returns the property with the given name, or nil.
func (n *Node) Prop(name string) *Property {
	for _, p := range n.Props {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// SetProp adds or replaces a property on this node.
func (n *Node) SetProp(name string, value []byte) {
	for _, p := range n.Props {
		if p.Name == name {
			p.Value = value
			return
		}
	}
	n.Props = append(n.Props, &Property{Name: name, Value: value})
}

// DeleteProp removes the named property. It reports whether it was present.
func (n *Node) DeleteProp(name string) bool {
	for i, p := range n.Props {
		if p.Name == name {
			n.Props = append(n.Props[:i], n.Props[i+1:]...)
			return true
		}
	}
	return false
}

// Child returns the immediate child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddChild appends a new child node. The name must be non-empty, must not
// contain a path separator, and must be unique among siblings.
func (n *Node) AddChild(name string) (*Node, error) {
	if name == "" || strings.Contains(name, PathSeparator) {
		return nil, ErrBadName
	}
	if n.Child(name) != nil {
		return nil, ErrExists
	}
	child := &Node{Name: name, Parent: n}
	n.Children = append(n.Children, child)
	return child, nil
}

// removeChild unlinks child from n. It reports whether child was found.
func (n *Node) removeChild(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return true
		}
	}
	return false
}

// find resolves an absolute path to a node pointer, nil when absent.
// Empty path and "/" resolve to the root.
func (t *Tree) find(path string) *Node {
	n := t.Root
	for _, seg := range splitPath(path) {
		n = n.Child(seg)
		if n == nil {
			return nil
		}
	}
	return n
}

// splitPath splits an absolute path into its non-empty segments.
func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, PathSeparator) {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// JoinPath joins a prefix and a node name into an absolute path.
func JoinPath(prefix, name string) string {
	if prefix == "" || prefix == PathSeparator {
		return PathSeparator + name
	}
	return strings.TrimSuffix(prefix, PathSeparator) + PathSeparator + name
}

// Equal reports structural equality: same reservation entries, same boot CPU
// and an identical node structure (names, ordered children, ordered
// properties with byte-equal payloads).
func (t *Tree) Equal(o *Tree) bool {
	if t.BootCPUID != o.BootCPUID || len(t.Reserve) != len(o.Reserve) {
		return false
	}
	for i := range t.Reserve {
		if t.Reserve[i] != o.Reserve[i] {
			return false
		}
	}
	return nodeEqual(t.Root, o.Root)
}

func nodeEqual(a, b *Node) bool {
	if a.Name != b.Name || len(a.Children) != len(b.Children) || len(a.Props) != len(b.Props) {
		return false
	}
	for i := range a.Props {
		if a.Props[i].Name != b.Props[i].Name || !bytes.Equal(a.Props[i].Value, b.Props[i].Value) {
			return false
		}
	}
	for i := range a.Children {
		if !nodeEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
