package xform

import (
	"fmt"
	"strings"

	"github.com/joshuapare/dtkit/fdt"
)

// Modify applies one path:property:replacement triplet.
//
//	path:prop:        delete prop from the node at path (recursively below it)
//	path:prop:value   property value replacement; unsupported, reported
//	path::name        rename the node at path (any '/' in name is stripped)
//	path::            delete the subtree at path
//
// A missing target path is a recoverable no-op diagnostic; only malformed
// expressions and the unsupported replacement form return errors.
func (e *Engine) Modify(expr string) error {
	parts := strings.Split(expr, ":")
	if len(parts) != 3 {
		return fmt.Errorf("%w: %q (want path:property:replacement)", ErrMalformedModify, expr)
	}
	path, prop, repl := parts[0], parts[1], parts[2]
	e.log.Debug("modify", "path", path, "property", prop, "replacement", repl)

	switch {
	case prop != "" && repl == "":
		return e.PropertyRemove(path, prop, true)

	case prop != "" && repl != "":
		// Overwrite-vs-merge semantics are undefined; refuse loudly
		// instead of guessing.
		return fmt.Errorf("%w: property value replace %q", ErrUnsupportedOp, expr)

	case prop == "" && repl != "":
		return e.renameNode(path, repl)

	default:
		return e.deleteSubtree(path)
	}
}

// renameNode renames the node at path. Separator characters in the new name
// are dropped, so "/newname/" and "newname" are equivalent.
func (e *Engine) renameNode(path, newName string) error {
	newName = strings.ReplaceAll(newName, fdt.PathSeparator, "")
	h, err := e.tree.PathOffset(path)
	if err != nil {
		e.log.Info("rename target not found, skipping", "node", path)
		return nil
	}
	e.log.Info("renaming node", "node", path, "name", newName)
	return e.tree.SetName(h, newName)
}

// deleteSubtree removes the subtree rooted at path.
func (e *Engine) deleteSubtree(path string) error {
	h, err := e.tree.PathOffset(path)
	if err != nil {
		e.log.Info("delete target not found, skipping", "node", path)
		return nil
	}
	e.log.Info("deleting node", "node", path)
	return e.tree.DeleteNode(h)
}

// PropertyRemove strips the named property from the node at prefix and,
// when recursive, from every descendant. Each delete restarts the property
// scan on that node: a property offset is never advanced past a deletion.
func (e *Engine) PropertyRemove(prefix, name string, recursive bool) error {
	if prefix == "" {
		prefix = "/"
	}
	if _, err := e.tree.PathOffset(prefix); err != nil {
		e.log.Info("property-remove target not found, skipping", "node", prefix)
		return nil
	}
	return e.propertyRemoveAt(prefix, name, recursive)
}

func (e *Engine) propertyRemoveAt(path, name string, recursive bool) error {
	h, err := e.tree.PathOffset(path)
	if err != nil {
		return nil
	}

	for {
		ok, err := e.tree.DeleteProp(h, name)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		e.log.Info("removing property", "property", name, "node", path)
	}

	if !recursive {
		return nil
	}
	subs, err := e.tree.Subnodes(path)
	if err != nil {
		return nil
	}
	for _, sub := range subs {
		if err := e.propertyRemoveAt(fdt.JoinPath(path, sub), name, true); err != nil {
			return err
		}
	}
	return nil
}
