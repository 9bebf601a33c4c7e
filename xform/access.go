package xform

import "github.com/joshuapare/dtkit/fdt"

// NoAccessProp is the property naming nodes a domain must not reach, as a
// list of phandles.
const NoAccessProp = "no-access"

// PruneInaccessible walks the whole tree collecting the nodes referenced by
// no-access properties, then deletes each collected subtree. Collection and
// deletion are separate passes: handles are never advanced across a
// mutation. Unresolvable phandles are reported and skipped.
func (e *Engine) PruneInaccessible() error {
	var (
		paths []string
		seen  = make(map[string]struct{})
	)

	err := e.tree.Walk(func(_ int, h fdt.Handle) error {
		v, err := e.tree.GetProp(h, NoAccessProp, fdt.ModeCompoundDec)
		if err != nil {
			return nil // property absent
		}
		srcPath, err := e.tree.AbsPath(h)
		if err != nil {
			return err
		}
		if v.Truncated {
			e.log.Warn("no-access payload has a trailing partial word, dropped",
				"node", srcPath)
		}

		for _, ph := range v.Words {
			th, err := e.tree.NodeByPhandle(ph)
			if err != nil {
				e.log.Warn("cannot resolve no-access phandle",
					"node", srcPath, "phandle", ph)
				continue
			}
			tgtPath, err := e.tree.AbsPath(th)
			if err != nil {
				return err
			}
			if _, dup := seen[tgtPath]; dup {
				continue
			}
			seen[tgtPath] = struct{}{}
			paths = append(paths, tgtPath)
			e.log.Info("node has no-access target", "node", srcPath, "target", tgtPath)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, path := range paths {
		h, err := e.tree.PathOffset(path)
		if err != nil {
			continue // already removed with an ancestor
		}
		e.log.Info("removing inaccessible node", "node", path)
		if err := e.tree.DeleteNode(h); err != nil {
			return err
		}
	}
	return nil
}
