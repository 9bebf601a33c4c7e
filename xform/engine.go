package xform

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/joshuapare/dtkit/fdt"
)

// Compatible-string suffixes that select the fragment operation.
const (
	suffixLoadModule  = ",load,module"
	suffixXformDomain = ",xform,domain"
	suffixXformModify = ",xform,modify"
)

// Options configures an engine run. Verbosity is carried by the logger's
// level; there is no process-wide mutable state.
type Options struct {
	// Target is an optional starting domain applied before any fragment.
	Target string

	// Logger receives all diagnostics. Defaults to a discarding logger.
	Logger *log.Logger
}

// Engine owns one tree for the duration of a run and applies transform
// fragments to it in order. It is single-threaded: the tree must not be
// touched concurrently.
type Engine struct {
	tree     *fdt.Tree
	registry *Registry
	modules  []Module // activation order
	refs     map[string]int
	log      *log.Logger
	target   string
}

// NewEngine creates an engine over tree with the given module registry.
func NewEngine(tree *fdt.Tree, registry *Registry, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Engine{
		tree:     tree,
		registry: registry,
		refs:     make(map[string]int),
		log:      logger,
		target:   opts.Target,
	}
}

// Tree returns the live tree. Modules mutate it through this accessor.
func (e *Engine) Tree() *fdt.Tree { return e.tree }

// Logger returns the engine's logger for use by domain modules.
func (e *Engine) Logger() *log.Logger { return e.log }

// RefInc records one access to the node at path. The table is keyed by path
// rather than handle so counts survive structural mutation.
func (e *Engine) RefInc(path string) {
	e.log.Debug("tracking access to node", "node", path)
	e.refs[path]++
}

// Ref returns the recorded access count for path, -1 when never referenced.
func (e *Engine) Ref(path string) int {
	if c, ok := e.refs[path]; ok {
		return c
	}
	return -1
}

// Apply processes the starting domain (if configured) and then every
// fragment tree in order. Only a failed required module activation aborts
// the run; all other fragment errors are reported and processing continues.
func (e *Engine) Apply(frags []*fdt.Tree) error {
	if e.target != "" {
		e.applyDomain(e.target)
	}

	e.log.Info("applying transform fragments", "count", len(frags))
	for _, frag := range frags {
		if err := e.applyFragments(frag); err != nil {
			return err
		}
	}
	return nil
}

// applyFragments walks one fragment tree and dispatches every
// compatible-tagged node it contains, in pre-order.
func (e *Engine) applyFragments(frag *fdt.Tree) error {
	for _, h := range frag.NodesWithProperty("compatible") {
		v, err := frag.GetProp(h, "compatible", fdt.ModeSimple)
		if err != nil {
			continue
		}
		name, _ := frag.GetName(h)

		for _, compat := range v.Strings() {
			e.log.Debug("processing transform", "node", name, "compatible", compat)
			switch {
			case strings.HasSuffix(compat, suffixLoadModule):
				if err := e.loadModule(frag, h, name); err != nil {
					return err
				}
			case strings.HasSuffix(compat, suffixXformDomain):
				e.domainFragment(frag, h, name)
			case strings.HasSuffix(compat, suffixXformModify):
				e.modifyFragment(frag, h, name)
			}
		}
	}
	return nil
}

// loadModule activates a registered domain module named by the fragment.
// A missing module is logged and skipped unless the fragment carries a
// "required" property, in which case the whole run aborts.
func (e *Engine) loadModule(frag *fdt.Tree, h fdt.Handle, fragName string) error {
	loadVal, err := frag.GetProp(h, "load", fdt.ModeSimple)
	if err != nil || loadVal.Kind != fdt.KindString {
		e.log.Warn("load-module fragment has no load property", "fragment", fragName)
		return nil
	}

	modName := moduleName(frag, h, loadVal.Str)
	required := hasProp(frag, h, "required")

	m, ok := e.registry.Lookup(modName)
	if !ok {
		e.log.Error("cannot resolve domain module",
			"fragment", fragName, "module", modName, "load", loadVal.Str)
		if required {
			return fmt.Errorf("%w: %s (required by fragment %s)", ErrModuleNotFound, modName, fragName)
		}
		return nil
	}

	e.log.Info("activating domain module", "module", modName, "load", loadVal.Str)
	e.modules = append(e.modules, m)
	return nil
}

// moduleName prefers the fragment's module property, falling back to the
// load path with its directory and extension stripped.
func moduleName(frag *fdt.Tree, h fdt.Handle, loadPath string) string {
	if v, err := frag.GetProp(h, "module", fdt.ModeSimple); err == nil && v.Kind == fdt.KindString {
		return v.Str
	}
	name := loadPath
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

// domainFragment reads the fragment's domain path and applies domain
// processing to it.
func (e *Engine) domainFragment(frag *fdt.Tree, h fdt.Handle, fragName string) {
	v, err := frag.GetProp(h, "domain", fdt.ModeSimple)
	if err != nil || v.Kind != fdt.KindString {
		e.log.Warn("domain fragment has no domain property", "fragment", fragName)
		return
	}
	e.log.Info("domain property found", "fragment", fragName, "domain", v.Str)
	e.applyDomain(v.Str)
}

// applyDomain resolves the domain node, reads its compatible strings and
// hands it to the first activated module that claims one of them. All
// failure modes are diagnostics, never fatal: later fragments still run.
func (e *Engine) applyDomain(path string) {
	h, err := e.tree.PathOffset(path)
	if err != nil {
		e.log.Info("domain node not found, skipping", "domain", path)
		return
	}

	compat, err := e.tree.GetProp(h, "compatible", fdt.ModeSimple)
	strs := compat.Strings()
	if err != nil || len(strs) == 0 {
		e.log.Error("target domain has no compatible string, cannot apply a specification",
			"domain", path)
		return
	}

	if len(e.modules) == 0 {
		e.log.Info("no modules available for domain processing, skipping", "domain", path)
		return
	}

	for _, m := range e.modules {
		for _, c := range strs {
			if !m.IsCompat(c) {
				continue
			}
			e.log.Info("processing domain", "domain", path, "module", m.Name(), "compatible", c)
			if err := m.ProcessDomain(path, e); err != nil {
				e.log.Error("domain processing failed",
					"domain", path, "module", m.Name(), "err", err)
			}
			return // first matching module only
		}
	}
	e.log.Info("no module claims domain compatible, skipping", "domain", path, "compatible", strs)
}

// modifyFragment reads the fragment's modify triplet and applies it,
// reporting failures without aborting the run.
func (e *Engine) modifyFragment(frag *fdt.Tree, h fdt.Handle, fragName string) {
	v, err := frag.GetProp(h, "modify", fdt.ModeSimple)
	if err != nil || v.Kind != fdt.KindString {
		e.log.Warn("modify fragment has no modify property", "fragment", fragName)
		return
	}
	if err := e.Modify(v.Str); err != nil {
		e.log.Error("modify transform failed", "fragment", fragName, "modify", v.Str, "err", err)
	}
}

// RemoveIncompatible deletes every immediate subnode of prefix whose
// compatible string list does not contain compat. Subnodes without a
// compatible property are retained.
func (e *Engine) RemoveIncompatible(prefix, compat string) error {
	names, err := e.tree.Subnodes(prefix)
	if err != nil {
		e.log.Warn("no nodes found under prefix", "prefix", prefix)
		return nil
	}
	for _, name := range names {
		path := fdt.JoinPath(prefix, name)
		h, err := e.tree.PathOffset(path)
		if err != nil {
			continue
		}
		v, err := e.tree.GetProp(h, "compatible", fdt.ModeSimple)
		if err != nil {
			continue
		}
		if !slices.Contains(v.Strings(), compat) {
			e.log.Info("deleting incompatible node", "node", path, "want", compat)
			if err := e.tree.DeleteNode(h); err != nil {
				return err
			}
		}
	}
	return nil
}

// hasProp reports whether the node behind h carries the named property,
// regardless of its value.
func hasProp(t *fdt.Tree, h fdt.Handle, name string) bool {
	_, err := t.GetProp(h, name, fdt.ModeSimple)
	return err == nil
}
