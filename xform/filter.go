package xform

import (
	"github.com/expr-lang/expr"

	"github.com/joshuapare/dtkit/fdt"
)

// Action selects what Filter does with a node whose predicate holds.
type Action string

const (
	// ActionDelete removes matching nodes (whole subtree).
	ActionDelete Action = "delete"
	// ActionReport only logs matching nodes.
	ActionReport Action = "report"
)

// Filter evaluates a predicate expression against every immediate subnode
// of prefix and applies action to the ones it holds for. The expression
// runs in a restricted environment exposing only:
//
//	path       absolute path of the node under test
//	name       the node's name
//	get_prop(p)   simple-decoded property value of the node, nil if absent
//	getphandle()  the node's phandle, 0 if none
//	refcount(p)   recorded access count for path p, -1 if never referenced
//	print(...)    debug logging helper
//
// plus the builtins of the expression language (len and friends). Any
// compile or evaluation error is logged and treated as false: the node is
// retained. Deletion re-resolves by path per node, so earlier deletes never
// leave a stale offset in play.
func (e *Engine) Filter(prefix string, action Action, expression string) error {
	if prefix == "" {
		prefix = "/"
	}
	e.log.Info("filtering nodes", "prefix", prefix, "action", string(action))

	names, err := e.tree.Subnodes(prefix)
	if err != nil {
		e.log.Warn("no nodes found that match prefix", "prefix", prefix)
		return nil
	}

	for _, name := range names {
		path := fdt.JoinPath(prefix, name)
		if !e.evalPredicate(path, name, expression) {
			continue
		}
		switch action {
		case ActionDelete:
			h, err := e.tree.PathOffset(path)
			if err != nil {
				continue
			}
			e.log.Info("deleting node", "node", path)
			if err := e.tree.DeleteNode(h); err != nil {
				e.log.Error("node delete failed", "node", path, "err", err)
			}
		default:
			e.log.Info("filter matched node", "node", path)
		}
	}
	return nil
}

// evalPredicate compiles and runs the predicate for one node. Errors are
// diagnostics, never propagated: a predicate that cannot be evaluated holds
// for nothing.
func (e *Engine) evalPredicate(path, name, expression string) bool {
	h, err := e.tree.PathOffset(path)
	if err != nil {
		return false
	}

	env := map[string]any{
		"path": path,
		"name": name,
		"get_prop": func(prop string) any {
			v, err := e.tree.GetProp(h, prop, fdt.ModeSimple)
			if err != nil {
				return nil
			}
			return v.Any()
		},
		"getphandle": func() int {
			ph, err := e.tree.Phandle(h)
			if err != nil {
				return 0
			}
			return int(ph)
		},
		"refcount": func(p string) int {
			return e.Ref(p)
		},
		"print": func(args ...any) bool {
			e.log.Debug("filter print", "node", path, "args", args)
			return true
		},
	}

	prg, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		e.log.Error("filter expression rejected", "expr", expression, "err", err)
		return false
	}
	out, err := expr.Run(prg, env)
	if err != nil {
		e.log.Error("filter expression failed", "expr", expression, "node", path, "err", err)
		return false
	}
	res, ok := out.(bool)
	return ok && res
}
