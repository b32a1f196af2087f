package rulegraph

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultMaxRules is the default ceiling on the number of rules Compile
// will accept before refusing to run, as a cheap guard against
// pathological input.
const DefaultMaxRules = 10000

// Config holds rule-graph compiler configuration.
type Config struct {
	// WarnOnUnusedQueryInputs toggles whether query input-set
	// minimization (§4.4) produces Warnings for declared-but-unused
	// input types. Defaults to true.
	WarnOnUnusedQueryInputs bool

	// MaxRules bounds the rule set size Compile will accept. Zero means
	// unbounded.
	MaxRules int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{WarnOnUnusedQueryInputs: true, MaxRules: DefaultMaxRules}
}

// Option configures a Compile call.
type Option func(*options)

type options struct {
	cfg    Config
	logger *zap.Logger
	ctx    context.Context
}

// WithConfig overrides the default Config.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger attaches a logger for lifecycle/perf events (phase timings,
// node counts). A nil logger (the default) means silent; diagnostics
// themselves are always returned as data, never logged, per §7.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithContext bounds Compile by a caller-supplied deadline, checked after
// phase 1 and after phase 2 (construction is synchronous and otherwise uninterruptible;
// this is the teacher's own `context.WithTimeout(context.Background(),
// timeout)`-at-the-call-site idiom, not a claim that any phase itself blocks
// on I/O). A nil or background context (the default) means no deadline.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// Compile runs the five-phase pipeline described in the specification
// (polymorphic construction, live-parameter labeling, monomorphization,
// edge pruning, finalization) over the given rules and queries, returning
// the static RuleGraph the runtime executor keys into.
//
// Graph-construction failures are returned as a *Diagnostics batch. Input
// validation (a rule identity declared with two output types, a rule set
// over MaxRules), a canceled context, and a query root that resolved without
// any diagnostic are returned as plain errors. A partial graph is never
// returned.
func Compile(rules []Rule, queries []Query, opts ...Option) (*RuleGraph, error) {
	o := &options{cfg: DefaultConfig(), ctx: context.Background()}
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger
	if log == nil {
		log = zap.NewNop()
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}

	if err := validateRules(rules); err != nil {
		return nil, err
	}
	if o.cfg.MaxRules > 0 && len(rules) > o.cfg.MaxRules {
		return nil, fmt.Errorf("rulegraph: %d rules exceeds configured MaxRules=%d", len(rules), o.cfg.MaxRules)
	}

	log.Debug("rulegraph: starting construction", zap.Int("rules", len(rules)), zap.Int("queries", len(queries)))

	g, roots := construct(rules, queries)
	log.Debug("rulegraph: phase 1 complete", zap.Int("nodes", len(g.nodes)))
	if err := o.ctx.Err(); err != nil {
		return nil, fmt.Errorf("rulegraph: compile canceled after phase 1: %w", err)
	}

	livenessFixedPoint(g)
	log.Debug("rulegraph: phase 2 complete")
	if err := o.ctx.Err(); err != nil {
		return nil, fmt.Errorf("rulegraph: compile canceled after phase 2: %w", err)
	}

	mg, rootIdx, diags := monomorphize(g, roots)
	if !diags.empty() {
		log.Debug("rulegraph: construction failed", zap.Int("diagnostics", len(diags.Entries)))
		return nil, diags
	}
	for i, idx := range rootIdx {
		if idx == -1 {
			// Construction is contractually required to either return a
			// fully-validated graph or a non-empty diagnostics batch
			// (§4.4/§7); an unresolved root with no diagnostics would
			// silently hand back an incomplete graph instead.
			return nil, fmt.Errorf("rulegraph: query %s failed to resolve but produced no diagnostics", queries[i].signature())
		}
	}
	log.Debug("rulegraph: phase 3-4 complete", zap.Int("nodes", len(mg.nodes)))

	out := finalize(mg, queries, rootIdx)
	if !o.cfg.WarnOnUnusedQueryInputs {
		out.Warnings = nil
	}
	log.Debug("rulegraph: finalized", zap.Int("table_entries", len(out.Nodes)), zap.String("build_id", out.BuildID.String()))
	return out, nil
}

// validateRules rejects, at input validation time, two rules declared with
// the same identity but different output types: identity alone is
// supposed to uniquely key a rule.
func validateRules(rules []Rule) error {
	seen := make(map[RuleID]Type, len(rules))
	for _, r := range rules {
		if existing, ok := seen[r.ID]; ok {
			if existing != r.Output {
				return fmt.Errorf("rulegraph: rule %s declared twice with different output types (%s and %s)",
					r.ID, existing, r.Output)
			}
			continue
		}
		seen[r.ID] = r.Output
	}
	return nil
}
