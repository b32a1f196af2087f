// Package rulegraph compiles a set of declared rules and queries into a
// static, monomorphic dependency graph that a memoizing executor can use as
// a constant-time lookup schema.
package rulegraph

import (
	"sort"
	"strings"
)

// Type is an opaque, hashable, totally-ordered identifier for a value kind
// flowing through the rule graph. Equality and hashing are by name; the
// compiler never introspects a Type beyond that.
type Type struct {
	name string
}

// NewType interns a type by name. Two calls with the same name produce
// equal Types.
func NewType(name string) Type {
	return Type{name: name}
}

func (t Type) String() string { return t.name }

// Less gives Type a total order, used to make enumeration deterministic.
func (t Type) Less(o Type) bool { return t.name < o.name }

// RuleID uniquely identifies a rule declaration. Identity plus in-set forms
// the runtime memoization key for a rule instance.
type RuleID struct {
	name string
}

// NewRuleID interns a rule identity by name.
func NewRuleID(name string) RuleID {
	return RuleID{name: name}
}

func (r RuleID) String() string { return r.name }

func (r RuleID) Less(o RuleID) bool { return r.name < o.name }

// DependencyKey labels an edge leaving a node: an output type, plus
// optionally a provided parameter type for the "Get" form, which injects a
// value of the provided type into scope for the subgraph computing the
// output.
type DependencyKey struct {
	Output      Type
	Provided    Type
	HasProvided bool
}

// Dep constructs a plain dependency request (no provided parameter). This
// is also how a rule's directly-consumed ("positional") parameters are
// expressed: if Output is already in scope as a Parameter, the request
// resolves straight to that Parameter and the type is consumed from scope
// for the rest of the rule's dependency list.
func Dep(output Type) DependencyKey {
	return DependencyKey{Output: output}
}

// Get constructs a Get-style dependency request: compute output, injecting
// provided into scope for that computation.
func Get(output, provided Type) DependencyKey {
	return DependencyKey{Output: output, Provided: provided, HasProvided: true}
}

func (k DependencyKey) String() string {
	if k.HasProvided {
		return k.Output.name + "<-Get(" + k.Provided.name + ")"
	}
	return k.Output.name
}

// Rule declares an output type, produced from a fixed ordered list of
// dependency requests (which may include directly-consumed parameter
// types, modeled as DependencyKeys with no provided parameter).
type Rule struct {
	ID     RuleID
	Output Type
	Deps   []DependencyKey
}

// Query declares a graph entry point: an output type plus the input
// parameter types an external caller will supply.
type Query struct {
	Output Type
	Inputs []Type
}

func (q Query) signature() string {
	names := make([]string, len(q.Inputs))
	for i, t := range q.Inputs {
		names[i] = t.name
	}
	sort.Strings(names)
	return q.Output.name + "(" + strings.Join(names, ",") + ")"
}

// ParamSet is an immutable set of parameter Types. Methods return new sets;
// the zero value is the empty set.
type ParamSet struct {
	m map[Type]struct{}
}

// NewParamSet builds a ParamSet from the given types.
func NewParamSet(types ...Type) ParamSet {
	if len(types) == 0 {
		return ParamSet{}
	}
	m := make(map[Type]struct{}, len(types))
	for _, t := range types {
		m[t] = struct{}{}
	}
	return ParamSet{m: m}
}

// Len reports the number of elements.
func (s ParamSet) Len() int { return len(s.m) }

// Contains reports whether t is a member.
func (s ParamSet) Contains(t Type) bool {
	if s.m == nil {
		return false
	}
	_, ok := s.m[t]
	return ok
}

// Union returns a new set containing the members of both s and other.
func (s ParamSet) Union(other ParamSet) ParamSet {
	if s.Len() == 0 {
		return other
	}
	if other.Len() == 0 {
		return s
	}
	m := make(map[Type]struct{}, len(s.m)+len(other.m))
	for t := range s.m {
		m[t] = struct{}{}
	}
	for t := range other.m {
		m[t] = struct{}{}
	}
	return ParamSet{m: m}
}

// Add returns a new set with t added.
func (s ParamSet) Add(t Type) ParamSet {
	return s.Union(NewParamSet(t))
}

// Minus returns a new set with t removed.
func (s ParamSet) Minus(t Type) ParamSet {
	if !s.Contains(t) {
		return s
	}
	m := make(map[Type]struct{}, len(s.m))
	for k := range s.m {
		if k != t {
			m[k] = struct{}{}
		}
	}
	return ParamSet{m: m}
}

// Subset reports whether every member of s is also a member of other.
func (s ParamSet) Subset(other ParamSet) bool {
	for t := range s.m {
		if !other.Contains(t) {
			return false
		}
	}
	return true
}

// Equal reports whether s and other have the same members.
func (s ParamSet) Equal(other ParamSet) bool {
	return s.Len() == other.Len() && s.Subset(other)
}

// Sorted returns the members in deterministic (name) order.
func (s ParamSet) Sorted() []Type {
	out := make([]Type, 0, len(s.m))
	for t := range s.m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Key returns a canonical string uniquely identifying the set's contents,
// suitable for use as (part of) a map key or node identity.
func (s ParamSet) Key() string {
	sorted := s.Sorted()
	names := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = t.name
	}
	return strings.Join(names, "\x1f")
}

func (s ParamSet) String() string {
	sorted := s.Sorted()
	names := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = t.name
	}
	return "{" + strings.Join(names, ",") + "}"
}
