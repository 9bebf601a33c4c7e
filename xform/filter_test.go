package xform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dtkit/fdt"
)

func TestFilterDeletesOnlyMatching(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	// Deletes the serial node, keeps the CAN controller.
	err := e.Filter("/amba", ActionDelete, `get_prop("compatible") == "xlnx,uart"`)
	require.NoError(t, err)

	_, err = tree.PathOffset("/amba/serial@ff000000")
	assert.ErrorIs(t, err, fdt.ErrNotFound)
	_, err = tree.PathOffset("/amba/can@ff060000")
	assert.NoError(t, err, "non-matching sibling retained")
}

func TestFilterByPhandle(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	require.NoError(t, e.Filter("/amba", ActionDelete, `getphandle() == 6`))

	_, err := tree.PathOffset("/amba/can@ff060000")
	assert.ErrorIs(t, err, fdt.ErrNotFound)
	_, err = tree.PathOffset("/amba/serial@ff000000")
	assert.NoError(t, err)
}

func TestFilterByRefcount(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)
	e.RefInc("/amba/serial@ff000000")

	// Delete everything never referenced.
	require.NoError(t, e.Filter("/amba", ActionDelete, `refcount(path) < 0`))

	_, err := tree.PathOffset("/amba/serial@ff000000")
	assert.NoError(t, err, "referenced node retained")
	_, err = tree.PathOffset("/amba/can@ff060000")
	assert.ErrorIs(t, err, fdt.ErrNotFound)
}

func TestFilterEvaluationErrorRetainsNode(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	// get_prop("reg") is nil on these nodes: the comparison fails at
	// runtime and must count as false.
	require.NoError(t, e.Filter("/amba", ActionDelete, `get_prop("reg") + 1 == 2`))

	_, err := tree.PathOffset("/amba/serial@ff000000")
	assert.NoError(t, err)
	_, err = tree.PathOffset("/amba/can@ff060000")
	assert.NoError(t, err)
}

func TestFilterCompileErrorRetainsNode(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)

	require.NoError(t, e.Filter("/amba", ActionDelete, `this is not an expression`))

	names, err := tree.Subnodes("/amba")
	require.NoError(t, err)
	assert.Len(t, names, 2, "nothing deleted on compile error")
}

func TestFilterDeleteAllSiblings(t *testing.T) {
	// Every subnode matches: deletion must survive its own handle
	// invalidation by re-resolving per path.
	tree := systemTree(t)
	e := newEngine(t, tree)

	require.NoError(t, e.Filter("/amba", ActionDelete, `true`))

	names, err := tree.Subnodes("/amba")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFilterUnknownPrefix(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)
	assert.NoError(t, e.Filter("/nope", ActionDelete, `true`))
}

func TestFilterReportDoesNotMutate(t *testing.T) {
	tree := systemTree(t)
	e := newEngine(t, tree)
	before, err := tree.Encode()
	require.NoError(t, err)

	require.NoError(t, e.Filter("/amba", ActionReport, `true`))

	after, err := tree.Encode()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
