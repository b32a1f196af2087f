package rulegraph

import "github.com/google/uuid"

// TargetKind distinguishes what an edge in the finalized graph points at.
type TargetKind int

const (
	TargetParam TargetKind = iota
	TargetRule
)

// Target is a finalized edge's destination: either a Parameter (a leaf the
// runtime already knows how to supply by type) or a (rule identity,
// in-set) pair identifying another node in the table.
type Target struct {
	Kind  TargetKind
	Param Type
	Rule  RuleID
	InSet ParamSet
}

// NodeEntry is one row of the static lookup table: a monomorphic rule
// instance and its committed outgoing edges.
type NodeEntry struct {
	Rule  RuleID
	InSet ParamSet
	Edges map[DependencyKey]Target
}

// QueryEntry is a query root's single committed edge.
type QueryEntry struct {
	Query  Query
	Target Target
}

// RuleGraph is the finalized, static schema the runtime executor uses to
// key directly into a memoization cache: given a query, a tuple of input
// values, and the parameters provided by each Get along the way, it can
// locate the rule instance to invoke without making any further choice.
type RuleGraph struct {
	BuildID  uuid.UUID
	Nodes    map[string]NodeEntry
	Queries  map[string]QueryEntry
	Warnings []Warning
}

// NodeKey returns the canonical lookup key for a (rule, in-set) pair.
func NodeKey(id RuleID, inSet ParamSet) string { return id.name + "|" + inSet.Key() }

// Lookup finds the node entry for a (rule, in-set) pair, if any.
func (g *RuleGraph) Lookup(id RuleID, inSet ParamSet) (NodeEntry, bool) {
	e, ok := g.Nodes[NodeKey(id, inSet)]
	return e, ok
}

// LookupQuery finds the root entry for a query's declared signature.
func (g *RuleGraph) LookupQuery(q Query) (QueryEntry, bool) {
	e, ok := g.Queries[q.signature()]
	return e, ok
}

// finalize projects the validated monoGraph into a RuleGraph: phase 5.
// Parameter nodes are leaves the runtime knows by type and need no entry
// of their own.
func finalize(mg *monoGraph, queries []Query, rootIdx []int) *RuleGraph {
	out := &RuleGraph{
		BuildID: newBuildID(),
		Nodes:   make(map[string]NodeEntry),
		Queries: make(map[string]QueryEntry),
	}

	visited := make(map[int]bool)
	var visit func(idx int)
	visit = func(idx int) {
		if idx < 0 || visited[idx] {
			return
		}
		visited[idx] = true
		n := mg.nodes[idx]
		if n.kind != kindRule {
			return
		}
		edges := make(map[DependencyKey]Target, len(n.edges))
		for _, e := range n.edges {
			edges[e.Key] = targetFor(mg, e.Target)
			visit(e.Target)
		}
		out.Nodes[NodeKey(n.ruleID, n.inSet)] = NodeEntry{Rule: n.ruleID, InSet: n.inSet, Edges: edges}
	}

	for i, q := range queries {
		idx := rootIdx[i]
		if idx < 0 {
			continue
		}
		n := mg.nodes[idx]
		if len(n.edges) == 0 {
			continue
		}
		target := targetFor(mg, n.edges[0].Target)
		out.Queries[q.signature()] = QueryEntry{Query: q, Target: target}
		visit(n.edges[0].Target)

		unused := NewParamSet(q.Inputs...)
		for _, used := range n.inSet.Sorted() {
			unused = unused.Minus(used)
		}
		for _, u := range unused.Sorted() {
			out.Warnings = append(out.Warnings, Warning{
				Query:   q,
				Message: "query " + q.signature() + ": declared input " + u.String() + " is never used",
			})
		}
	}

	return out
}

func targetFor(mg *monoGraph, idx int) Target {
	n := mg.nodes[idx]
	if n.kind == kindParam {
		return Target{Kind: TargetParam, Param: n.param}
	}
	return Target{Kind: TargetRule, Rule: n.ruleID, InSet: n.inSet}
}

func newBuildID() uuid.UUID {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil
	}
	return id
}
