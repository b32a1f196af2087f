package rulegraph

// Phase 2: live-parameter labeling. A conservative, monotone fixed-point
// computes an overapproximation of each node's in-set: the parameter types
// any realization of that node could transitively require.
//
// The specification notes that iteration order doesn't affect the fixed
// point and that a worklist seeded from Parameter nodes converges in
// O(nodes x parameters) set updates. For the rule-set sizes this compiler
// targets (hundreds to low thousands of rules, per §5), a simpler
// full-sweep relaxation converges just as correctly and is easier to keep
// obviously right: each sweep can only grow in-sets (the update is a
// monotone union), so the loop is bounded by the total number of
// (node, parameter) pairs and always terminates.
func livenessFixedPoint(g *polyGraph) {
	for {
		changed := false
		for _, n := range g.nodes {
			if n.kind == kindParam || n.deleted {
				continue
			}
			next := computeInSet(g, n)
			if !next.Equal(n.inSet) {
				n.inSet = next
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func computeInSet(g *polyGraph, n *polyNode) ParamSet {
	result := NewParamSet()
	for i, key := range n.depKeys {
		var keyContribution ParamSet
		for _, c := range n.candidates[i] {
			// Nodes not yet visited contribute the empty set, which is
			// sound because the computation is monotone (a later sweep
			// only grows it).
			keyContribution = keyContribution.Union(g.nodes[c].inSet)
		}
		if key.HasProvided {
			keyContribution = keyContribution.Minus(key.Provided)
		}
		result = result.Union(keyContribution)
	}
	return result
}
