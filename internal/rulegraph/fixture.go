package rulegraph

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"
)

// Fixture is a small, human-writable text format for declaring rules and
// queries, used by the `rulegraph check` CLI command and by this package's
// fixture tests (see SPEC_FULL.md §4.6). One declaration per line:
//
//	rule r1 : A <- pos(B)
//	rule r2 : B <- get(C, D)
//	query Q(B) : A
//
// Type and rule identities are bare identifiers; each one is validated by
// spelling it as a Mangle name constant (prefixing with "/") and parsing it
// with the same library the host program uses for its own Mangle (.mg)
// files, reusing its existing little-language for "named symbol" rather than
// inventing a new one. Declarations and pos(...)/get(...) terms themselves
// are split with regular expressions.
type Fixture struct {
	Rules   []Rule
	Queries []Query
}

var (
	ruleLineRe  = regexp.MustCompile(`^rule\s+(\w+)\s*:\s*(\w+)\s*<-\s*(.*)$`)
	queryLineRe = regexp.MustCompile(`^query\s+(\w+)\(([^)]*)\)\s*:\s*(\w+)\s*$`)
	depTermRe   = regexp.MustCompile(`^(pos|get)\(([^)]*)\)$`)
	identRe     = regexp.MustCompile(`^\w+$`)
)

// ParseFixture parses the text format described above.
func ParseFixture(src string) (*Fixture, error) {
	f := &Fixture{}
	for lineNo, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "rule"):
			r, err := parseRuleLine(line)
			if err != nil {
				return nil, fmt.Errorf("fixture line %d: %w", lineNo+1, err)
			}
			f.Rules = append(f.Rules, r)
		case strings.HasPrefix(line, "query"):
			q, err := parseQueryLine(line)
			if err != nil {
				return nil, fmt.Errorf("fixture line %d: %w", lineNo+1, err)
			}
			f.Queries = append(f.Queries, q)
		default:
			return nil, fmt.Errorf("fixture line %d: unrecognized declaration %q", lineNo+1, line)
		}
	}
	return f, nil
}

func parseRuleLine(line string) (Rule, error) {
	m := ruleLineRe.FindStringSubmatch(line)
	if m == nil {
		return Rule{}, fmt.Errorf("malformed rule declaration %q", line)
	}
	ruleName, err := internIdent(m[1])
	if err != nil {
		return Rule{}, err
	}
	output, err := internIdent(m[2])
	if err != nil {
		return Rule{}, err
	}

	var deps []DependencyKey
	body := strings.TrimSpace(m[3])
	if body == "()" {
		body = ""
	}
	if body != "" {
		for _, term := range splitTopLevelCommas(body) {
			key, err := parseDepTerm(strings.TrimSpace(term))
			if err != nil {
				return Rule{}, err
			}
			deps = append(deps, key)
		}
	}

	return Rule{ID: NewRuleID(ruleName), Output: NewType(output), Deps: deps}, nil
}

func parseDepTerm(term string) (DependencyKey, error) {
	m := depTermRe.FindStringSubmatch(term)
	if m == nil {
		return DependencyKey{}, fmt.Errorf("malformed dependency term %q", term)
	}
	args := splitTopLevelCommas(m[2])
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}

	switch m[1] {
	case "pos":
		if len(args) != 1 {
			return DependencyKey{}, fmt.Errorf("pos(...) takes exactly one type, got %q", term)
		}
		t, err := internIdent(args[0])
		if err != nil {
			return DependencyKey{}, err
		}
		return Dep(NewType(t)), nil
	case "get":
		if len(args) != 2 {
			return DependencyKey{}, fmt.Errorf("get(...) takes exactly two types, got %q", term)
		}
		out, err := internIdent(args[0])
		if err != nil {
			return DependencyKey{}, err
		}
		provided, err := internIdent(args[1])
		if err != nil {
			return DependencyKey{}, err
		}
		return Get(NewType(out), NewType(provided)), nil
	default:
		return DependencyKey{}, fmt.Errorf("unknown dependency form %q", m[1])
	}
}

func parseQueryLine(line string) (Query, error) {
	m := queryLineRe.FindStringSubmatch(line)
	if m == nil {
		return Query{}, fmt.Errorf("malformed query declaration %q", line)
	}
	output, err := internIdent(m[3])
	if err != nil {
		return Query{}, err
	}

	var inputs []Type
	body := strings.TrimSpace(m[2])
	if body != "" {
		for _, tok := range splitTopLevelCommas(body) {
			name, err := internIdent(strings.TrimSpace(tok))
			if err != nil {
				return Query{}, err
			}
			inputs = append(inputs, NewType(name))
		}
	}
	return Query{Output: NewType(output), Inputs: inputs}, nil
}

// internIdent validates a bare identifier by round-tripping it through
// Mangle's Name-constant syntax and parser, the same structured
// little-language the host program already uses for its own schema files.
func internIdent(token string) (string, error) {
	if !identRe.MatchString(token) {
		return "", fmt.Errorf("invalid identifier %q", token)
	}
	term, err := ast.Name("/" + token)
	if err != nil {
		return "", fmt.Errorf("invalid identifier %q: %w", token, err)
	}
	name, ok := term.(ast.Constant)
	if !ok || name.Type != ast.NameType {
		return "", fmt.Errorf("invalid identifier %q: not a name constant", token)
	}
	// Exercise the real term parser too, by parsing the name as the sole
	// argument of a one-argument atom; this keeps the fixture loader
	// grounded in parse.Atom rather than only in ast.Name.
	if _, err := parse.Atom("ident(" + name.Symbol + ")"); err != nil {
		return "", fmt.Errorf("invalid identifier %q: %w", token, err)
	}
	return strings.TrimPrefix(name.Symbol, "/"), nil
}

func splitTopLevelCommas(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
