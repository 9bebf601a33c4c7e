package xform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dtkit/fdt"
)

func TestModifyPropertyDelete(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	require.NoError(t, e.Modify("/amba/serial@ff000000:status:"))

	props, err := tree.PropertyList("/amba/serial@ff000000")
	require.NoError(t, err)
	assert.NotContains(t, props, "status", "status must be removed")
	assert.Contains(t, props, "compatible", "other properties untouched")

	// No other node is affected.
	props, err = tree.PropertyList("/amba/can@ff060000")
	require.NoError(t, err)
	assert.Contains(t, props, "status")
}

func TestModifyPropertyDeleteRecursesBelowPath(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	require.NoError(t, e.Modify("/amba:status:"))

	for _, path := range []string{"/amba/serial@ff000000", "/amba/can@ff060000"} {
		props, err := tree.PropertyList(path)
		require.NoError(t, err)
		assert.NotContains(t, props, "status", path)
	}
}

func TestModifyValueReplaceUnsupported(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)
	before, err := tree.Encode()
	require.NoError(t, err)

	err = e.Modify("/amba/serial@ff000000:status:disabled")
	assert.ErrorIs(t, err, ErrUnsupportedOp, "value replace must be an explicit diagnostic")

	after, err := tree.Encode()
	require.NoError(t, err)
	assert.Equal(t, before, after, "unsupported operation must not touch the tree")
}

func TestModifyRename(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	require.NoError(t, e.Modify("/domains/d0::/linux/"))

	_, err := tree.PathOffset("/domains/d0")
	assert.ErrorIs(t, err, fdt.ErrNotFound)
	h, err := tree.PathOffset("/domains/linux")
	require.NoError(t, err)
	name, err := tree.GetName(h)
	require.NoError(t, err)
	assert.Equal(t, "linux", name, "separators stripped from replacement")
}

func TestModifySubtreeDelete(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	require.NoError(t, e.Modify("/amba::"))

	for _, path := range []string{"/amba", "/amba/serial@ff000000", "/amba/can@ff060000"} {
		_, err := tree.PathOffset(path)
		assert.ErrorIs(t, err, fdt.ErrNotFound, path)
	}
	_, err := tree.PathOffset("/cpus")
	assert.NoError(t, err, "siblings survive")
}

func TestModifyMissingTargetIsRecoverable(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	assert.NoError(t, e.Modify("/nope:status:"))
	assert.NoError(t, e.Modify("/nope::renamed"))
	assert.NoError(t, e.Modify("/nope::"))
}

func TestModifyMalformed(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	assert.ErrorIs(t, e.Modify("/amba"), ErrMalformedModify)
	assert.ErrorIs(t, e.Modify("/amba:status"), ErrMalformedModify)
	assert.ErrorIs(t, e.Modify("a:b:c:d"), ErrMalformedModify)
}

func TestModifyViaFragment(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	frag := fragment(t, "strip", map[string]string{
		"compatible": "xlnx,xform,modify",
		"modify":     "/amba/can@ff060000::",
	})
	require.NoError(t, e.Apply([]*fdt.Tree{frag}))

	_, err := tree.PathOffset("/amba/can@ff060000")
	assert.ErrorIs(t, err, fdt.ErrNotFound)
}

func TestPropertyRemoveNonRecursive(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	require.NoError(t, e.PropertyRemove("/amba/serial@ff000000", "status", false))

	props, err := tree.PropertyList("/amba/serial@ff000000")
	require.NoError(t, err)
	assert.NotContains(t, props, "status")

	props, err = tree.PropertyList("/amba/can@ff060000")
	require.NoError(t, err)
	assert.Contains(t, props, "status", "non-recursive remove leaves children alone")
}
