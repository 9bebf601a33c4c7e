package fdt

import (
	"errors"
	"testing"
)

func TestPathOffset(t *testing.T) {
	tree := sampleTree(t)

	h, err := tree.PathOffset("/cpus/cpu@0")
	if err != nil {
		t.Fatalf("PathOffset: %v", err)
	}
	name, err := tree.GetName(h)
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if name != "cpu@0" {
		t.Errorf("expected cpu@0, got %q", name)
	}

	if _, err := tree.PathOffset("/"); err != nil {
		t.Errorf("root path should resolve: %v", err)
	}
}

func TestPathOffsetNotFound(t *testing.T) {
	tree := sampleTree(t)
	h, err := tree.PathOffset("/does/not/exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if h.Valid() {
		t.Error("not-found sentinel should be invalid")
	}
}

func TestParentOffset(t *testing.T) {
	tree := sampleTree(t)
	h, _ := tree.PathOffset("/amba/serial@ff000000")
	parent, err := tree.ParentOffset(h)
	if err != nil {
		t.Fatalf("ParentOffset: %v", err)
	}
	if name, _ := tree.GetName(parent); name != "amba" {
		t.Errorf("expected amba, got %q", name)
	}

	root, _ := tree.PathOffset("/")
	if _, err := tree.ParentOffset(root); !errors.Is(err, ErrNotFound) {
		t.Errorf("root parent should be ErrNotFound, got %v", err)
	}
}

func TestAbsPath(t *testing.T) {
	tree := sampleTree(t)
	h, _ := tree.PathOffset("/amba/can@ff060000")
	path, err := tree.AbsPath(h)
	if err != nil {
		t.Fatalf("AbsPath: %v", err)
	}
	if path != "/amba/can@ff060000" {
		t.Errorf("unexpected path %q", path)
	}

	root, _ := tree.PathOffset("/")
	if path, _ := tree.AbsPath(root); path != "/" {
		t.Errorf("root path should be /, got %q", path)
	}
}

func TestDeleteNodeInvalidatesHandles(t *testing.T) {
	tree := sampleTree(t)
	serial, _ := tree.PathOffset("/amba/serial@ff000000")
	can, _ := tree.PathOffset("/amba/can@ff060000")

	if err := tree.DeleteNode(serial); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	// The sibling handle was minted before the mutation: it must fail
	// fast, not resolve to a shifted node.
	if _, err := tree.GetName(can); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle, got %v", err)
	}

	// Re-resolving by path works.
	if _, err := tree.PathOffset("/amba/can@ff060000"); err != nil {
		t.Errorf("re-resolve after delete: %v", err)
	}
	if _, err := tree.PathOffset("/amba/serial@ff000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted path should be ErrNotFound, got %v", err)
	}
}

func TestDeleteNodeRemovesSubtree(t *testing.T) {
	tree := sampleTree(t)
	cpus, _ := tree.PathOffset("/cpus")
	if err := tree.DeleteNode(cpus); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	for _, path := range []string{"/cpus", "/cpus/cpu@0", "/cpus/cpu@1"} {
		if _, err := tree.PathOffset(path); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s should be gone, got %v", path, err)
		}
	}
}

func TestDeleteRoot(t *testing.T) {
	tree := sampleTree(t)
	root, _ := tree.PathOffset("/")
	if err := tree.DeleteNode(root); !errors.Is(err, ErrCannotDeleteRoot) {
		t.Fatalf("expected ErrCannotDeleteRoot, got %v", err)
	}
}

func TestSetName(t *testing.T) {
	tree := sampleTree(t)
	h, _ := tree.PathOffset("/memory@0")
	if err := tree.SetName(h, "memory@80000000"); err != nil {
		t.Fatalf("SetName: %v", err)
	}

	// Rename is structural: the old handle is dead.
	if _, err := tree.GetName(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("expected ErrStaleHandle after rename, got %v", err)
	}
	if _, err := tree.PathOffset("/memory@80000000"); err != nil {
		t.Errorf("renamed path should resolve: %v", err)
	}
}

func TestSetNameRejectsSlash(t *testing.T) {
	tree := sampleTree(t)
	h, _ := tree.PathOffset("/memory@0")
	if err := tree.SetName(h, "a/b"); !errors.Is(err, ErrBadName) {
		t.Fatalf("expected ErrBadName, got %v", err)
	}
}

func TestSetNameSiblingClash(t *testing.T) {
	tree := sampleTree(t)
	h, _ := tree.PathOffset("/cpus/cpu@1")
	if err := tree.SetName(h, "cpu@0"); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestPhandleIndex(t *testing.T) {
	tree := sampleTree(t)

	h, err := tree.NodeByPhandle(5)
	if err != nil {
		t.Fatalf("NodeByPhandle: %v", err)
	}
	if name, _ := tree.GetName(h); name != "serial@ff000000" {
		t.Errorf("expected serial@ff000000, got %q", name)
	}

	if _, err := tree.NodeByPhandle(99); !errors.Is(err, ErrPhandleNotFound) {
		t.Errorf("expected ErrPhandleNotFound, got %v", err)
	}

	ph, err := tree.Phandle(h)
	if err != nil || ph != 5 {
		t.Errorf("Phandle = %d, %v; want 5", ph, err)
	}
}

func TestPhandleIndexRebuiltAfterMutation(t *testing.T) {
	tree := sampleTree(t)
	h, _ := tree.PathOffset("/amba/serial@ff000000")
	if err := tree.DeleteNode(h); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if _, err := tree.NodeByPhandle(5); !errors.Is(err, ErrPhandleNotFound) {
		t.Errorf("phandle of deleted node should be gone, got %v", err)
	}
	if _, err := tree.NodeByPhandle(6); err != nil {
		t.Errorf("surviving phandle should resolve: %v", err)
	}
}

func TestWalkPreOrder(t *testing.T) {
	tree := sampleTree(t)

	type visit struct {
		depth int
		name  string
	}
	var visits []visit
	err := tree.Walk(func(depth int, h Handle) error {
		name, err := tree.GetName(h)
		if err != nil {
			return err
		}
		visits = append(visits, visit{depth, name})
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []visit{
		{0, ""},
		{1, "cpus"},
		{2, "cpu@0"},
		{2, "cpu@1"},
		{1, "memory@0"},
		{1, "amba"},
		{2, "serial@ff000000"},
		{2, "can@ff060000"},
	}
	if len(visits) != len(want) {
		t.Fatalf("visited %d nodes, want %d: %v", len(visits), len(want), visits)
	}
	for i := range want {
		if visits[i] != want[i] {
			t.Errorf("visit %d: got %+v, want %+v", i, visits[i], want[i])
		}
	}
}
