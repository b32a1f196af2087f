package rulegraph

import "testing"

func TestNewPolyGraph_SortsRulesByIdentityPerOutputType(t *testing.T) {
	a := NewType("A")
	rules := []Rule{
		{ID: NewRuleID("rC"), Output: a},
		{ID: NewRuleID("rA"), Output: a},
		{ID: NewRuleID("rB"), Output: a},
	}
	g := newPolyGraph(rules)
	byOutput := g.rulesByOutput[a]
	if len(byOutput) != 3 {
		t.Fatalf("expected 3 rules for output A, got %d", len(byOutput))
	}
	want := []string{"rA", "rB", "rC"}
	for i, r := range byOutput {
		if r.ID.String() != want[i] {
			t.Fatalf("expected deterministic order %v, got rule %d = %s", want, i, r.ID)
		}
	}
}

func TestNodeKindString(t *testing.T) {
	cases := map[nodeKind]string{kindParam: "param", kindRule: "rule", kindQuery: "query"}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
