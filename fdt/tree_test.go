package fdt

import (
	"errors"
	"testing"
)

// sampleTree builds a small board description used across the package tests.
//
//	/
//	  model = "demo,board"
//	  cpus/
//	    cpu@0  compatible="arm,cortex-a53\0arm,armv8", reg=<0>
//	    cpu@1  reg=<1>
//	  memory@0  device_type="memory"
//	  amba/
//	    serial@ff000000  compatible="xlnx,uart", phandle=<5>
//	    can@ff060000     phandle=<6>
func sampleTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree()
	tree.Root.SetProp("model", append([]byte("demo,board"), 0))

	cpus := mustAddChild(t, tree.Root, "cpus")
	cpu0 := mustAddChild(t, cpus, "cpu@0")
	cpu0.SetProp("compatible", []byte("arm,cortex-a53\x00arm,armv8\x00"))
	cpu0.SetProp("reg", EncodeWords([]uint32{0}))
	cpu1 := mustAddChild(t, cpus, "cpu@1")
	cpu1.SetProp("reg", EncodeWords([]uint32{1}))

	mem := mustAddChild(t, tree.Root, "memory@0")
	mem.SetProp("device_type", append([]byte("memory"), 0))

	amba := mustAddChild(t, tree.Root, "amba")
	serial := mustAddChild(t, amba, "serial@ff000000")
	serial.SetProp("compatible", append([]byte("xlnx,uart"), 0))
	serial.SetProp("phandle", EncodeWords([]uint32{5}))
	can := mustAddChild(t, amba, "can@ff060000")
	can.SetProp("phandle", EncodeWords([]uint32{6}))

	return tree
}

func mustAddChild(t *testing.T, n *Node, name string) *Node {
	t.Helper()
	c, err := n.AddChild(name)
	if err != nil {
		t.Fatalf("AddChild(%q): %v", name, err)
	}
	return c
}

func TestNewTree(t *testing.T) {
	tree := NewTree()
	if tree.Root == nil {
		t.Fatal("Root should not be nil")
	}
	if tree.Root.Name != "" {
		t.Errorf("Root name should be empty, got %q", tree.Root.Name)
	}
}

func TestAddChildDuplicate(t *testing.T) {
	tree := NewTree()
	mustAddChild(t, tree.Root, "cpus")
	if _, err := tree.Root.AddChild("cpus"); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestAddChildBadName(t *testing.T) {
	tree := NewTree()
	if _, err := tree.Root.AddChild(""); !errors.Is(err, ErrBadName) {
		t.Fatalf("expected ErrBadName for empty name, got %v", err)
	}
	if _, err := tree.Root.AddChild("a/b"); !errors.Is(err, ErrBadName) {
		t.Fatalf("expected ErrBadName for slash, got %v", err)
	}
}

func TestSetPropReplaces(t *testing.T) {
	tree := NewTree()
	tree.Root.SetProp("status", []byte("okay\x00"))
	tree.Root.SetProp("status", []byte("disabled\x00"))
	if len(tree.Root.Props) != 1 {
		t.Fatalf("expected 1 property, got %d", len(tree.Root.Props))
	}
	if got := string(tree.Root.Prop("status").Value); got != "disabled\x00" {
		t.Errorf("unexpected value %q", got)
	}
}

func TestDeleteProp(t *testing.T) {
	tree := sampleTree(t)
	n := tree.find("/cpus/cpu@0")
	if !n.DeleteProp("reg") {
		t.Fatal("DeleteProp should report presence")
	}
	if n.Prop("reg") != nil {
		t.Fatal("reg should be gone")
	}
	if n.DeleteProp("reg") {
		t.Fatal("second delete should report absence")
	}
}

func TestJoinPath(t *testing.T) {
	cases := []struct{ prefix, name, want string }{
		{"/", "cpus", "/cpus"},
		{"", "cpus", "/cpus"},
		{"/amba", "serial@ff000000", "/amba/serial@ff000000"},
		{"/amba/", "can@ff060000", "/amba/can@ff060000"},
	}
	for _, c := range cases {
		if got := JoinPath(c.prefix, c.name); got != c.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", c.prefix, c.name, got, c.want)
		}
	}
}

func TestTreeEqual(t *testing.T) {
	a := sampleTree(t)
	b := sampleTree(t)
	if !a.Equal(b) {
		t.Fatal("identical trees should be equal")
	}
	b.find("/cpus/cpu@1").SetProp("status", []byte("disabled\x00"))
	if a.Equal(b) {
		t.Fatal("trees with differing properties should not be equal")
	}
}
