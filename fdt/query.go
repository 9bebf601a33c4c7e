package fdt

// Read-only search helpers. All of them reflect the live tree: nothing is
// cached across mutations, and the returned handles follow the usual
// generation rules.

// NodesWithProperty returns, in pre-order, a handle for every node whose
// direct property set contains name. Only existence is tested, never the
// value.
func (t *Tree) NodesWithProperty(name string) []Handle {
	var out []Handle
	_ = t.Walk(func(_ int, h Handle) error {
		n, err := t.node(h)
		if err != nil {
			return err
		}
		if n.Prop(name) != nil {
			out = append(out, h)
		}
		return nil
	})
	return out
}

// Subnodes returns the ordered names of the immediate children of the node
// at path.
func (t *Tree) Subnodes(path string) ([]string, error) {
	h, err := t.PathOffset(path)
	if err != nil {
		return nil, err
	}
	n, err := t.node(h)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(n.Children))
	for i, c := range n.Children {
		names[i] = c.Name
	}
	return names, nil
}

// PropertyList returns the ordered property names of the node at path.
func (t *Tree) PropertyList(path string) ([]string, error) {
	h, err := t.PathOffset(path)
	if err != nil {
		return nil, err
	}
	n, err := t.node(h)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(n.Props))
	for i, p := range n.Props {
		names[i] = p.Name
	}
	return names, nil
}

// GetProp decodes a property of the node behind h. A missing property
// returns ErrNotFound; an unmatched encoding is reported through the
// value's KindUndecodable, not an error.
func (t *Tree) GetProp(h Handle, name string, mode Mode) (Value, error) {
	n, err := t.node(h)
	if err != nil {
		return Value{}, err
	}
	p := n.Prop(name)
	if p == nil {
		return Value{}, ErrNotFound
	}
	return DecodeValue(p.Value, mode), nil
}

// SetProp adds or replaces a property on the node behind h. Property edits
// do not invalidate handles; the phandle index is refreshed when the edited
// property is a phandle.
func (t *Tree) SetProp(h Handle, name string, value []byte) error {
	n, err := t.node(h)
	if err != nil {
		return err
	}
	n.SetProp(name, value)
	if isPhandleProp(name) {
		t.phandles = nil
		t.arena = nil // force index rebuild, generation unchanged
	}
	return nil
}

// DeleteProp removes a property from the node behind h. It reports whether
// the property was present.
func (t *Tree) DeleteProp(h Handle, name string) (bool, error) {
	n, err := t.node(h)
	if err != nil {
		return false, err
	}
	ok := n.DeleteProp(name)
	if ok && isPhandleProp(name) {
		t.phandles = nil
		t.arena = nil
	}
	return ok, nil
}

func isPhandleProp(name string) bool {
	return name == "phandle" || name == "linux,phandle"
}
