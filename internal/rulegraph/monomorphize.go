package rulegraph

// monoEdge is one committed outgoing edge in the monomorphized graph.
type monoEdge struct {
	Key    DependencyKey
	Target int
}

// monoNode is a node in the phase 3-5 monomorphic graph: at most one
// outgoing edge per DependencyKey, and a tight (minimal) in-set.
type monoNode struct {
	idx    int
	kind   nodeKind
	ruleID RuleID
	param  Type
	query  *Query
	inSet  ParamSet
	edges  []monoEdge
}

type monoGraph struct {
	nodes      []*monoNode
	paramIndex map[Type]int
	ruleIndex  map[string]int // "ruleID|inSet.Key()" -> node idx
}

func newMonoGraph() *monoGraph {
	return &monoGraph{paramIndex: make(map[Type]int), ruleIndex: make(map[string]int)}
}

func (mg *monoGraph) addParam(t Type) int {
	if idx, ok := mg.paramIndex[t]; ok {
		return idx
	}
	n := &monoNode{idx: len(mg.nodes), kind: kindParam, param: t, inSet: NewParamSet(t)}
	mg.nodes = append(mg.nodes, n)
	mg.paramIndex[t] = n.idx
	return n.idx
}

func (mg *monoGraph) addRule(id RuleID, inSet ParamSet, edges []monoEdge) int {
	key := id.name + "|" + inSet.Key()
	if idx, ok := mg.ruleIndex[key]; ok {
		return idx
	}
	n := &monoNode{idx: len(mg.nodes), kind: kindRule, ruleID: id, inSet: inSet, edges: edges}
	mg.nodes = append(mg.nodes, n)
	mg.ruleIndex[key] = n.idx
	return n.idx
}

func (mg *monoGraph) addQuery(q *Query, inSet ParamSet, edges []monoEdge) int {
	n := &monoNode{idx: len(mg.nodes), kind: kindQuery, query: q, inSet: inSet, edges: edges}
	mg.nodes = append(mg.nodes, n)
	return n.idx
}

// legalCandidate is one surviving choice for a dependency key, after the
// legality checks in the specification's §4.3 are applied.
type legalCandidate struct {
	polyIdx int
	monoIdx int
	need    ParamSet // the candidate's in-set, with the provided parameter (if any) removed
}

// monomorphizer drives phases 3 and 4 together: for each reachable poly
// node, pick the legal candidate per dependency key (splitting happens
// implicitly because phase 1 already created one poly node per distinct
// (rule, caller available-set); see DESIGN.md for why this converges to
// the same result as the specification's iterate-to-fixed-point recipe
// without a separate rewrite loop), compute the tight in-set, and either
// commit a mono node, record a diagnostic, or flag ambiguity.
type monomorphizer struct {
	poly  *polyGraph
	mono  *monoGraph
	diags *Diagnostics

	visiting map[int]bool
	done     map[int]monoResult
}

type monoResult struct {
	ok      bool
	monoIdx int
	inSet   ParamSet
	cyclic  bool // set only at the exact node where the re-entrant edge was caught
}

func monomorphize(g *polyGraph, roots []int) (*monoGraph, []int, *Diagnostics) {
	m := &monomorphizer{
		poly:     g,
		mono:     newMonoGraph(),
		diags:    &Diagnostics{},
		visiting: make(map[int]bool),
		done:     make(map[int]monoResult),
	}
	rootIdx := make([]int, len(roots))
	for i, r := range roots {
		res := m.resolve(r)
		if res.ok {
			rootIdx[i] = res.monoIdx
		} else {
			rootIdx[i] = -1
		}
	}
	return m.mono, rootIdx, m.diags
}

func (m *monomorphizer) resolve(idx int) monoResult {
	if res, ok := m.done[idx]; ok {
		return res
	}
	if m.visiting[idx] {
		// A genuine cycle: the same (rule, available-set) identity was
		// re-entered before it finished resolving. No monomorph broke it.
		// Caught here, not memoized into m.done, so the caller one frame up
		// is the one that reports it (it still has the DependencyKey and
		// subject in scope).
		return monoResult{ok: false, cyclic: true}
	}
	m.visiting[idx] = true
	res := m.resolveNode(idx)
	m.visiting[idx] = false
	m.done[idx] = res
	return res
}

func (m *monomorphizer) resolveNode(idx int) monoResult {
	n := m.poly.nodes[idx]

	if n.kind == kindParam {
		return monoResult{ok: true, monoIdx: m.mono.addParam(n.param), inSet: NewParamSet(n.param)}
	}

	subj := subjectOf(n)

	if n.deleted && allKeysEmpty(n) {
		// Every key failed before any candidate was even tried (no
		// candidate, or a positional/Get collision detected at
		// construction time) -- this node is the introducing site.
		for i, key := range n.depKeys {
			if reason, ok := n.keyFailure[i]; ok {
				m.diags.add(subj, key, reason, "%s", missingMessage(reason, key))
			}
		}
		return monoResult{ok: false}
	}

	inSet := NewParamSet()
	edges := make([]monoEdge, 0, len(n.depKeys))
	anyFail := false
	anyAmbiguous := false

	for i, key := range n.depKeys {
		if reason, ok := n.keyFailure[i]; ok {
			m.diags.add(subj, key, reason, "%s", missingMessage(reason, key))
			anyFail = true
			continue
		}

		var legal []legalCandidate
		var sawLiveCandidate, sawCycle bool
		for _, c := range n.candidates[i] {
			cr := m.resolve(c)
			if !cr.ok {
				if cr.cyclic {
					sawCycle = true
				}
				continue
			}
			sawLiveCandidate = true

			if key.HasProvided && !cr.inSet.Contains(key.Provided) {
				continue
			}
			need := cr.inSet
			if key.HasProvided {
				need = need.Minus(key.Provided)
			}
			if !need.Subset(n.effAvail[i]) {
				continue
			}
			legal = append(legal, legalCandidate{polyIdx: c, monoIdx: cr.monoIdx, need: need})
		}

		switch {
		case len(legal) == 0:
			switch {
			case sawCycle:
				// A candidate led straight back to a node still on the
				// resolution stack: this key is the re-entry point, and
				// no monomorph broke the cycle. Report it here rather
				// than at the (already-reported-as-derivative) nodes
				// further up the stack.
				m.diags.add(subj, key, Cycle, "cycle detected resolving %s: %s depends on itself through a chain of dependencies that never grounds out",
					key.Output.String(), subj.String())
			case sawLiveCandidate:
				// At least one candidate resolved successfully deeper
				// down but was rejected by a legality check right here:
				// this node is the introducing site for the failure.
				kind, msg := legalityFailureMessage(m.poly, n, i, key)
				m.diags.add(subj, key, kind, "%s", msg)
			}
			// Otherwise every candidate failed purely because of a
			// deeper, already-diagnosed failure: don't pile on with a
			// derivative diagnostic at this node.
			anyFail = true
		case len(legal) == 1:
			edges = append(edges, monoEdge{Key: key, Target: legal[0].monoIdx})
			inSet = inSet.Union(legal[0].need)
		default:
			m.recordAmbiguity(n, subj, key, legal)
			anyAmbiguous = true
			for _, lc := range legal {
				inSet = inSet.Union(lc.need)
			}
		}
	}

	if anyFail || anyAmbiguous {
		return monoResult{ok: false}
	}

	if n.kind == kindQuery {
		return monoResult{ok: true, monoIdx: m.mono.addQuery(n.query, inSet, edges), inSet: inSet}
	}
	return monoResult{ok: true, monoIdx: m.mono.addRule(n.ruleID, inSet, edges), inSet: inSet}
}

func allKeysEmpty(n *polyNode) bool {
	for i := range n.depKeys {
		if _, ok := n.keyFailure[i]; !ok {
			return false
		}
	}
	return len(n.depKeys) > 0
}

func subjectOf(n *polyNode) subject {
	if n.kind == kindQuery {
		return querySubject(*n.query)
	}
	return ruleSubject(n.ruleID)
}

func missingMessage(kind FailureKind, key DependencyKey) string {
	switch kind {
	case NoCandidate:
		return "no rule produces " + key.Output.String() + " and it is not in scope"
	case ParameterConsumedPositionally:
		return "parameter " + key.Provided.String() + " was already consumed positionally; it cannot also be Get-provided downstream"
	default:
		return string(kind)
	}
}

func legalityFailureMessage(g *polyGraph, n *polyNode, i int, key DependencyKey) (FailureKind, string) {
	// Re-derive which legality rule eliminated every live candidate, for
	// a precise message. Prefer provided_parameter_unused over
	// parameter_not_in_scope when both could apply to a candidate, since
	// an unused Get is the more specific (and more actionable) failure.
	sawUnused := false
	for _, c := range n.candidates[i] {
		cn := g.nodes[c]
		if cn.deleted {
			continue
		}
		if key.HasProvided && !cn.inSet.Contains(key.Provided) {
			sawUnused = true
		}
	}
	if sawUnused {
		return ProvidedParameterUnused, "Get provides " + key.Provided.String() + " for " + key.Output.String() + ", but no candidate consumes it"
	}
	return ParameterNotInScope, "every candidate for " + key.Output.String() + " needs parameters outside " + n.effAvail[i].String()
}

// recordAmbiguity implements the walk-back described in the
// specification's §4.4 and §9: in principle it should climb to the
// dependent that introduced the extra parameters making more than one
// candidate viable, falling back to the query if no such narrowing site
// exists. This implementation reports the ambiguity at the node where it
// is first detected during the (depth-first, from-the-query) resolution
// walk. Because ambiguity can only newly appear where the available-set
// first grows enough to make a second candidate legal, the first node at
// which it is observed during that walk is exactly the narrowing site the
// specification asks for; the specification itself warns that this
// walk-back is "homegrown (and likely problematic)" and explicitly asks
// implementers not to invent a cleverer heuristic.
func (m *monomorphizer) recordAmbiguity(n *polyNode, subj subject, key DependencyKey, legal []legalCandidate) {
	names := make([]string, 0, len(legal))
	for _, lc := range legal {
		cn := m.poly.nodes[lc.polyIdx]
		if cn.kind == kindParam {
			names = append(names, "param "+cn.param.String())
		} else {
			names = append(names, "rule "+cn.ruleID.String())
		}
	}
	msg := "ambiguous candidates for " + key.Output.String() + ":"
	for _, s := range names {
		msg += " " + s
	}
	m.diags.add(subj, key, Ambiguous, "%s", msg)
}
