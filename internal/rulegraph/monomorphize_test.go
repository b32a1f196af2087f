package rulegraph

import "testing"

func TestMonomorphize_UnbrokenCycleIsDiagnosedAsCycle(t *testing.T) {
	a, b, c := NewType("A"), NewType("B"), NewType("C")
	r1, r2 := NewRuleID("r1"), NewRuleID("r2")
	rules := []Rule{
		{ID: r1, Output: a, Deps: []DependencyKey{Get(b, c)}},
		{ID: r2, Output: b, Deps: []DependencyKey{Get(a, c)}},
	}
	query := Query{Output: a}

	g, roots := construct(rules, []Query{query})
	livenessFixedPoint(g)
	_, rootIdx, diags := monomorphize(g, roots)

	if diags.empty() {
		t.Fatal("expected an unbroken cycle to produce a diagnostic")
	}
	if rootIdx[0] != -1 {
		t.Fatalf("expected the query root to be unresolved, got mono index %d", rootIdx[0])
	}
	found := false
	for _, e := range diags.Entries {
		if e.Kind == Cycle {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Cycle diagnostic, got %v", diags.Entries)
	}
}

func TestMonomorphize_SingleLegalCandidateCommitsEdge(t *testing.T) {
	a, b := NewType("A"), NewType("B")
	r1 := NewRuleID("r1")
	rules := []Rule{{ID: r1, Output: a, Deps: []DependencyKey{Dep(b)}}}
	query := Query{Output: a, Inputs: []Type{b}}

	g, roots := construct(rules, []Query{query})
	livenessFixedPoint(g)
	mg, rootIdx, diags := monomorphize(g, roots)

	if !diags.empty() {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	qNode := mg.nodes[rootIdx[0]]
	if len(qNode.edges) != 1 {
		t.Fatalf("expected exactly one committed edge, got %d", len(qNode.edges))
	}
	rNode := mg.nodes[qNode.edges[0].Target]
	if rNode.ruleID != r1 {
		t.Fatalf("expected the query to resolve to r1, got %s", rNode.ruleID)
	}
}

func TestMonomorphize_DedupesIdenticalRuleInSetPairs(t *testing.T) {
	// r1 only ever touches B, so two queries whose *available* sets differ
	// (one also offers D, which r1 never asks for) should still produce
	// monomorphs with the same tight in-set {B}, and those must collapse to
	// a single monomorphic node.
	a, b, d := NewType("A"), NewType("B"), NewType("D")
	r1 := NewRuleID("r1")
	rules := []Rule{{ID: r1, Output: a, Deps: []DependencyKey{Dep(b)}}}
	q1 := Query{Output: a, Inputs: []Type{b}}
	q2 := Query{Output: a, Inputs: []Type{b, d}}

	g, roots := construct(rules, []Query{q1, q2})
	livenessFixedPoint(g)
	mg, rootIdx, diags := monomorphize(g, roots)
	if !diags.empty() {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}

	n1 := mg.nodes[rootIdx[0]].edges[0].Target
	n2 := mg.nodes[rootIdx[1]].edges[0].Target
	if n1 != n2 {
		t.Fatalf("expected both queries to resolve to the same monomorphic node, got %d and %d", n1, n2)
	}
}
