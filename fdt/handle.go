package fdt

import (
	"fmt"
	"strings"
)

// Handle is a small, copyable reference to a node, valid only until the next
// structural mutation of the tree. Handles are stamped with the tree
// generation at mint time; resolving a handle minted before a mutation fails
// with ErrStaleHandle.
type Handle struct {
	idx int
	gen uint64
}

// NullHandle is the not-found sentinel returned alongside ErrNotFound.
var NullHandle = Handle{idx: -1}

// Valid reports whether h refers to a node at mint time. It does not check
// for staleness; resolution does.
func (h Handle) Valid() bool { return h.idx >= 0 }

// arenaEntry is one pre-order slot in the traversal arena.
type arenaEntry struct {
	n      *Node
	depth  int
	parent int // arena index of the parent, -1 for the root
}

// invalidate bumps the generation and drops the derived indices. Every
// structural mutation goes through here.
func (t *Tree) invalidate() {
	t.gen++
	t.arena = nil
	t.phandles = nil
}

// ensureIndex rebuilds the pre-order arena and the phandle index if a
// mutation dropped them.
func (t *Tree) ensureIndex() {
	if t.arena != nil {
		return
	}
	t.phandles = make(map[uint32]int)

	var build func(n *Node, depth, parent int)
	build = func(n *Node, depth, parent int) {
		idx := len(t.arena)
		t.arena = append(t.arena, arenaEntry{n: n, depth: depth, parent: parent})
		if ph, ok := nodePhandle(n); ok {
			t.phandles[ph] = idx
		}
		for _, c := range n.Children {
			build(c, depth+1, idx)
		}
	}
	build(t.Root, 0, -1)
}

// nodePhandle reads the cached phandle property of n, if any.
func nodePhandle(n *Node) (uint32, bool) {
	p := n.Prop("phandle")
	if p == nil {
		p = n.Prop("linux,phandle")
	}
	if p == nil || len(p.Value) != 4 {
		return 0, false
	}
	v := DecodeValue(p.Value, ModeSimple)
	return v.U32, true
}

// node resolves a handle, failing fast on staleness.
func (t *Tree) node(h Handle) (*Node, error) {
	if h.idx < 0 {
		return nil, ErrNotFound
	}
	if h.gen != t.gen {
		return nil, fmt.Errorf("%w: minted at generation %d, tree at %d", ErrStaleHandle, h.gen, t.gen)
	}
	t.ensureIndex()
	if h.idx >= len(t.arena) {
		return nil, ErrStaleHandle
	}
	return t.arena[h.idx].n, nil
}

// handleFor mints a handle for a live node pointer. The node must be in the
// tree; ensureIndex must have run.
func (t *Tree) handleFor(n *Node) Handle {
	for i := range t.arena {
		if t.arena[i].n == n {
			return Handle{idx: i, gen: t.gen}
		}
	}
	return NullHandle
}

// PathOffset resolves an absolute path ("/a/b@1/c") to a handle. The empty
// path and "/" resolve to the root. A missing path returns NullHandle and
// ErrNotFound, never a panic.
func (t *Tree) PathOffset(path string) (Handle, error) {
	n := t.find(path)
	if n == nil {
		return NullHandle, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	t.ensureIndex()
	return t.handleFor(n), nil
}

// ParentOffset returns a handle for the parent of h, or NullHandle with
// ErrNotFound for the root.
func (t *Tree) ParentOffset(h Handle) (Handle, error) {
	if _, err := t.node(h); err != nil {
		return NullHandle, err
	}
	parent := t.arena[h.idx].parent
	if parent < 0 {
		return NullHandle, ErrNotFound
	}
	return Handle{idx: parent, gen: t.gen}, nil
}

// GetName returns the name of the node behind h.
func (t *Tree) GetName(h Handle) (string, error) {
	n, err := t.node(h)
	if err != nil {
		return "", err
	}
	return n.Name, nil
}

// SetName renames the node behind h. Renaming is a structural mutation:
// every outstanding handle, including h, is invalidated.
func (t *Tree) SetName(h Handle, name string) error {
	n, err := t.node(h)
	if err != nil {
		return err
	}
	if name == "" || strings.Contains(name, PathSeparator) {
		return ErrBadName
	}
	if n.Parent != nil {
		if sib := n.Parent.Child(name); sib != nil && sib != n {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
	}
	n.Name = name
	t.invalidate()
	return nil
}

// DeleteNode removes the subtree rooted at h. Every outstanding handle is
// invalidated; callers re-resolve by path afterwards.
func (t *Tree) DeleteNode(h Handle) error {
	n, err := t.node(h)
	if err != nil {
		return err
	}
	if n == t.Root {
		return ErrCannotDeleteRoot
	}
	if !n.Parent.removeChild(n) {
		return fmt.Errorf("%w: node %q not linked to its parent", ErrNotFound, n.Name)
	}
	t.invalidate()
	return nil
}

// AbsPath reconstructs the absolute path of the node behind h by walking
// parent links.
func (t *Tree) AbsPath(h Handle) (string, error) {
	n, err := t.node(h)
	if err != nil {
		return "", err
	}
	if n == t.Root {
		return PathSeparator, nil
	}
	var segs []string
	for cur := n; cur != nil && cur.Parent != nil; cur = cur.Parent {
		segs = append(segs, cur.Name)
	}
	var b strings.Builder
	for i := len(segs) - 1; i >= 0; i-- {
		b.WriteString(PathSeparator)
		b.WriteString(segs[i])
	}
	return b.String(), nil
}

// Phandle returns the phandle of the node behind h, 0 when it has none.
func (t *Tree) Phandle(h Handle) (uint32, error) {
	n, err := t.node(h)
	if err != nil {
		return 0, err
	}
	ph, _ := nodePhandle(n)
	return ph, nil
}

// NodeByPhandle resolves a phandle through the derived index.
func (t *Tree) NodeByPhandle(ph uint32) (Handle, error) {
	t.ensureIndex()
	idx, ok := t.phandles[ph]
	if !ok {
		return NullHandle, fmt.Errorf("%w: %#x", ErrPhandleNotFound, ph)
	}
	return Handle{idx: idx, gen: t.gen}, nil
}

// Walk visits every node in depth-first pre-order, passing the depth
// (0 at the root) and a handle. The walk stops early if fn returns an
// error, which is passed through. fn must not mutate the tree structure;
// collect handles or paths and mutate after the walk.
func (t *Tree) Walk(fn func(depth int, h Handle) error) error {
	t.ensureIndex()
	gen := t.gen
	for i := range t.arena {
		if err := fn(t.arena[i].depth, Handle{idx: i, gen: gen}); err != nil {
			return err
		}
	}
	return nil
}
