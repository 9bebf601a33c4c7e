// Package domains holds the built-in domain modules. They are compiled in
// and registered at startup; load-module fragments activate them by name.
package domains

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/dtkit/fdt"
	"github.com/joshuapare/dtkit/xform"
)

// CompatDomainV1 is the domain compatible string the OpenAMP module claims.
const CompatDomainV1 = "openamp,domain-v1"

// Register adds every built-in module to r.
func Register(r *xform.Registry) error {
	return r.Register(OpenAMP{})
}

// OpenAMP partitions a system tree for an openamp,domain-v1 domain node:
// devices granted through the access property are reference-counted, and
// cpu nodes outside the domain's cpu mask are pruned.
type OpenAMP struct{}

func (OpenAMP) Name() string { return "openamp" }

func (OpenAMP) IsCompat(compat string) bool { return compat == CompatDomainV1 }

func (m OpenAMP) ProcessDomain(path string, e *xform.Engine) error {
	t := e.Tree()
	h, err := t.PathOffset(path)
	if err != nil {
		return err
	}

	m.countAccess(path, h, e)

	// cpus = <cluster-phandle mask mode>: bit i of mask grants cpu i.
	v, err := t.GetProp(h, "cpus", fdt.ModeCompoundDec)
	if err != nil || v.Kind != fdt.KindWords || len(v.Words) < 2 {
		e.Logger().Info("domain has no cpu mask, skipping cpu pruning", "domain", path)
		return nil
	}
	return e.Filter("/cpus", xform.ActionDelete, cpuPruneExpr(v.Words[1]))
}

// countAccess records one reference per resolvable phandle in the domain's
// access list. Unresolvable entries are reported and skipped.
func (OpenAMP) countAccess(path string, h fdt.Handle, e *xform.Engine) {
	t := e.Tree()
	v, err := t.GetProp(h, "access", fdt.ModeCompoundDec)
	if err != nil || v.Kind != fdt.KindWords {
		return
	}
	for _, ph := range v.Words {
		th, err := t.NodeByPhandle(ph)
		if err != nil {
			e.Logger().Warn("cannot resolve access phandle", "domain", path, "phandle", ph)
			continue
		}
		target, err := t.AbsPath(th)
		if err != nil {
			continue
		}
		e.RefInc(target)
	}
}

// cpuPruneExpr builds the filter predicate deleting cpu nodes whose unit
// index (reg) is not granted by mask. Nodes without a reg property are
// never cpus and are retained.
func cpuPruneExpr(mask uint32) string {
	var allowed []string
	for i := 0; i < 32; i++ {
		if mask&(1<<i) != 0 {
			allowed = append(allowed, strconv.Itoa(i))
		}
	}
	return fmt.Sprintf(`get_prop("reg") != nil && !(get_prop("reg") in [%s])`,
		strings.Join(allowed, ", "))
}
