package rulegraph

import (
	"fmt"
	"strings"
)

// FailureKind is the closed set of ways rule graph construction can fail at
// a single dependency key.
type FailureKind string

const (
	// NoCandidate means a DependencyKey has no rule producing its output
	// type and no parameter of that type in scope.
	NoCandidate FailureKind = "no_candidate"
	// ParameterNotInScope means a candidate would require a parameter not
	// in the available-set at the call site.
	ParameterNotInScope FailureKind = "parameter_not_in_scope"
	// ParameterConsumedPositionally means a rule consumed a parameter
	// positionally, then requested it again via a downstream Get.
	ParameterConsumedPositionally FailureKind = "parameter_consumed_positionally"
	// ProvidedParameterUnused means a Get provided a parameter that no
	// node in the subgraph consumes.
	ProvidedParameterUnused FailureKind = "provided_parameter_unused"
	// Ambiguous means more than one surviving candidate exists for a
	// DependencyKey under the same available-set.
	Ambiguous FailureKind = "ambiguous"
	// Cycle means a cycle was detected that no monomorph broke.
	Cycle FailureKind = "cycle"
)

// subject identifies the rule or query a Diagnostic is about.
type subject struct {
	isQuery bool
	rule    RuleID
	query   Query
}

func ruleSubject(id RuleID) subject  { return subject{rule: id} }
func querySubject(q Query) subject   { return subject{isQuery: true, query: q} }
func (s subject) String() string {
	if s.isQuery {
		return "query " + s.query.signature()
	}
	return "rule " + s.rule.String()
}

// Diagnostic is one human-readable explanation of a single construction
// failure, pinpointing the introducing rule or query and the dependency
// key involved.
type Diagnostic struct {
	Subject string
	Key     DependencyKey
	Kind    FailureKind
	Message string
}

func (d Diagnostic) String() string { return d.Message }

// Warning is a non-fatal observation about a successfully constructed
// graph, e.g. a declared query input that is never used.
type Warning struct {
	Query   Query
	Message string
}

// Diagnostics is a non-empty, ordered batch of construction failures. It
// implements error so callers that only check `err != nil` still work;
// callers that want the structured list type-assert to *Diagnostics.
type Diagnostics struct {
	Entries []Diagnostic
}

func (d *Diagnostics) Error() string {
	if d == nil || len(d.Entries) == 0 {
		return "rulegraph: construction failed"
	}
	lines := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		lines[i] = e.Message
	}
	return fmt.Sprintf("rulegraph: construction failed with %d diagnostic(s):\n%s",
		len(d.Entries), strings.Join(lines, "\n"))
}

func (d *Diagnostics) add(subj subject, key DependencyKey, kind FailureKind, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	d.Entries = append(d.Entries, Diagnostic{
		Subject: subj.String(),
		Key:     key,
		Kind:    kind,
		Message: fmt.Sprintf("%s: %s: %s", subj.String(), kind, msg),
	})
}

func (d *Diagnostics) empty() bool { return d == nil || len(d.Entries) == 0 }
