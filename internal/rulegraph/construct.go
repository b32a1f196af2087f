package rulegraph

// Phase 1: polymorphic construction. Starting from each query, build a
// graph in which every dependency request points at every candidate that
// could satisfy it.

func (g *polyGraph) addParam(t Type) int {
	key := paramKey(t)
	if idx, ok := g.index[key]; ok {
		return idx
	}
	n := &polyNode{idx: len(g.nodes), kind: kindParam, param: t, inSet: NewParamSet(t)}
	g.nodes = append(g.nodes, n)
	g.index[key] = n.idx
	return n.idx
}

// addRule returns the index of the polymorphic node for (id, avail),
// creating and populating it if this is the first time this identity has
// been requested. The node is registered before its edges are built so
// that a genuine cycle in the rule declarations (ruleID revisited with the
// exact same available-set) resolves to the same in-progress index instead
// of recursing forever.
func (g *polyGraph) addRule(id RuleID, avail ParamSet) int {
	key := ruleKey(id, avail)
	if idx, ok := g.index[key]; ok {
		return idx
	}
	rule := g.rulesByID[id]
	n := &polyNode{
		idx:        len(g.nodes),
		kind:       kindRule,
		ruleID:     id,
		avail:      avail,
		depKeys:    rule.Deps,
		keyFailure: make(map[int]FailureKind),
	}
	g.nodes = append(g.nodes, n)
	g.index[key] = n.idx
	g.buildDeps(n)
	return n.idx
}

func (g *polyGraph) addQuery(q Query) int {
	key := queryKey(q)
	if idx, ok := g.index[key]; ok {
		return idx
	}
	n := &polyNode{
		idx:        len(g.nodes),
		kind:       kindQuery,
		query:      &q,
		avail:      NewParamSet(q.Inputs...),
		depKeys:    []DependencyKey{Dep(q.Output)},
		keyFailure: make(map[int]FailureKind),
	}
	g.nodes = append(g.nodes, n)
	g.index[key] = n.idx
	g.buildDeps(n)
	return n.idx
}

// buildDeps enumerates candidates for every dependency key of n, in
// declared order, tracking which parameter types have been consumed
// directly from scope by earlier keys (see the "positional consumption"
// invariant in the specification's §3 and the parameter_consumed_positionally
// failure kind in §7).
func (g *polyGraph) buildDeps(n *polyNode) {
	n.candidates = make([][]int, len(n.depKeys))
	n.effAvail = make([]ParamSet, len(n.depKeys))

	current := n.avail
	consumed := NewParamSet()

	for i, key := range n.depKeys {
		n.effAvail[i] = current

		if key.HasProvided && consumed.Contains(key.Provided) {
			n.keyFailure[i] = ParameterConsumedPositionally
			continue
		}

		if !key.HasProvided && current.Contains(key.Output) {
			target := g.addParam(key.Output)
			n.candidates[i] = []int{target}
			consumed = consumed.Add(key.Output)
			current = current.Minus(key.Output)
			continue
		}

		rules := g.rulesByOutput[key.Output]
		if len(rules) == 0 {
			n.keyFailure[i] = NoCandidate
			continue
		}

		targetAvail := current
		if key.HasProvided {
			targetAvail = current.Add(key.Provided)
		}
		targets := make([]int, 0, len(rules))
		for _, r := range rules {
			targets = append(targets, g.addRule(r.ID, targetAvail))
		}
		n.candidates[i] = targets
	}

	for i := range n.depKeys {
		if len(n.candidates[i]) == 0 {
			n.deleted = true
			if n.deleteReason == "" {
				if reason, ok := n.keyFailure[i]; ok {
					n.deleteReason = reason
				} else {
					n.deleteReason = NoCandidate
				}
			}
		}
	}
}

// construct runs phase 1 over every query, returning the populated arena.
func construct(rules []Rule, queries []Query) (*polyGraph, []int) {
	g := newPolyGraph(rules)
	roots := make([]int, len(queries))
	for i, q := range queries {
		roots[i] = g.addQuery(q)
	}
	return g, roots
}
