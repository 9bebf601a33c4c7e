// Package xform applies declarative transform fragments to a device tree.
//
// A fragment is a node tagged with a compatible string whose suffix selects
// the operation: ",load,module" activates a registered domain module,
// ",xform,domain" hands a target node to the first compatible module, and
// ",xform,modify" performs a property delete, node rename or subtree delete
// described by a path:property:replacement triplet.
//
// Domain modules come from an explicit registration table built at startup;
// nothing is ever loaded from disk. Filter predicates are compiled
// expressions evaluated against a capability-restricted environment, never
// arbitrary code.
package xform
