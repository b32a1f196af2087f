package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rulegraph/internal/rulegraph"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [fixture...]",
	Short: "Compile one or more fixture files and report diagnostics",
	Args:  cobra.ArbitraryArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if cfg == nil || cfg.RuleGraph.FixturePath == "" {
			return fmt.Errorf("no fixture files given and no rule_graph.fixture_path configured")
		}
		args = []string{cfg.RuleGraph.FixturePath}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	hasError := false

	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			fmt.Printf("error processing pattern %s: %v\n", pattern, err)
			hasError = true
			continue
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				matches = []string{pattern}
			} else {
				fmt.Printf("no files found matching: %s\n", pattern)
				continue
			}
		}

		for _, file := range matches {
			if err := checkFixtureFile(ctx, file); err != nil {
				fmt.Printf("ERROR in %s:\n%v\n", file, err)
				hasError = true
			} else {
				fmt.Printf("OK: %s\n", file)
			}
		}
	}

	if hasError {
		os.Exit(1)
	}
	return nil
}

func checkFixtureFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fixture, err := rulegraph.ParseFixture(string(data))
	if err != nil {
		return fmt.Errorf("parsing fixture: %w", err)
	}

	rgCfg := rulegraph.DefaultConfig()
	if cfg != nil {
		rgCfg.WarnOnUnusedQueryInputs = cfg.RuleGraph.WarnOnUnusedQueryInputs
		rgCfg.MaxRules = cfg.RuleGraph.MaxRules
	}

	opts := []rulegraph.Option{rulegraph.WithLogger(logger), rulegraph.WithConfig(rgCfg), rulegraph.WithContext(ctx)}
	g, err := rulegraph.Compile(fixture.Rules, fixture.Queries, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("  %d rule instance(s), %d quer(y/ies), build %s\n", len(g.Nodes), len(g.Queries), g.BuildID)
	for _, w := range g.Warnings {
		fmt.Printf("  warning: %s\n", w.Message)
	}
	return nil
}
