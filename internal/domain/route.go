package domain

import (
	"sort"
	"strings"
)

// NodeID identifies a vertex of the routing graph.
type NodeID string

// Edge is a directed connection between two nodes. A nil Weight resolves to 1.
type Edge struct {
	Source NodeID
	Target NodeID
	Weight *float64
}

// ResolvedWeight returns the edge weight, defaulting to 1 when unset.
func (e Edge) ResolvedWeight() float64 {
	if e.Weight == nil {
		return 1
	}
	return *e.Weight
}

// WeightedNeighbor is an outgoing neighbour together with the resolved edge weight.
type WeightedNeighbor struct {
	NodeID NodeID
	Weight float64
}

// PathResult is an ordered node sequence from start to goal (inclusive) and its cost.
type PathResult struct {
	Nodes []NodeID
	Cost  float64
}

// Equal reports whether both paths visit the same nodes in the same order.
func (p PathResult) Equal(other PathResult) bool {
	if len(p.Nodes) != len(other.Nodes) {
		return false
	}
	for i := range p.Nodes {
		if p.Nodes[i] != other.Nodes[i] {
			return false
		}
	}
	return true
}

// EdgeKey is the ordered (from, to) pair used to exclude a directed edge.
type EdgeKey struct {
	From NodeID
	To   NodeID
}

// String encodes the key as "from|to".
func (k EdgeKey) String() string {
	return string(k.From) + "|" + string(k.To)
}

// ParseEdgeKey decodes a "from|to" string. ok is false when the separator is missing.
func ParseEdgeKey(s string) (EdgeKey, bool) {
	from, to, found := strings.Cut(s, "|")
	if !found || from == "" || to == "" {
		return EdgeKey{}, false
	}
	return EdgeKey{From: NodeID(from), To: NodeID(to)}, true
}

// NodeSet is a set of node ids. The zero value is an empty, read-only set.
type NodeSet map[NodeID]struct{}

// NewNodeSet builds a set from the given ids.
func NewNodeSet(ids ...NodeID) NodeSet {
	s := make(NodeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership. Safe on a nil set.
func (s NodeSet) Has(id NodeID) bool {
	_, ok := s[id]
	return ok
}

// With returns a copy of s extended with ids. s is left untouched.
func (s NodeSet) With(ids ...NodeID) NodeSet {
	out := make(NodeSet, len(s)+len(ids))
	for id := range s {
		out[id] = struct{}{}
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// EdgeSet is a set of directed edge keys. The zero value is an empty, read-only set.
type EdgeSet map[EdgeKey]struct{}

// NewEdgeSet builds a set from the given keys.
func NewEdgeSet(keys ...EdgeKey) EdgeSet {
	s := make(EdgeSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership. Safe on a nil set.
func (s EdgeSet) Has(from, to NodeID) bool {
	_, ok := s[EdgeKey{From: from, To: to}]
	return ok
}

// With returns a copy of s extended with keys. s is left untouched.
func (s EdgeSet) With(keys ...EdgeKey) EdgeSet {
	out := make(EdgeSet, len(s)+len(keys))
	for k := range s {
		out[k] = struct{}{}
	}
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}

// Strings returns the encoded keys in sorted order.
func (s EdgeSet) Strings() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k.String())
	}
	sort.Strings(out)
	return out
}

// TraversalOptions restricts which nodes and edges a search may traverse.
// Excluding the start or the goal means no path exists.
type TraversalOptions struct {
	ExcludeNodes NodeSet
	ExcludeEdges EdgeSet
}
