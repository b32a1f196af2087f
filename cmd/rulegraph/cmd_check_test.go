package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rulegraph/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func TestRunCheck_ValidFixturePrintsOK(t *testing.T) {
	logger = zap.NewNop()

	dir := t.TempDir()
	path := filepath.Join(dir, "trivial.rg")
	if err := os.WriteFile(path, []byte("rule r1 : A <- pos(B)\nquery Q(B) : A\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := runCheck(&cobra.Command{}, []string{path}); err != nil {
		t.Fatalf("runCheck() error = %v", err)
	}
}

func TestCheckFixtureFile_DiagnosticIsReturnedAsError(t *testing.T) {
	logger = zap.NewNop()

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.rg")
	src := "rule r1 : A <- get(B, C)\nquery Q() : A\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := checkFixtureFile(context.Background(), path); err == nil {
		t.Fatal("expected checkFixtureFile to surface the no_candidate diagnostic")
	}
}

func TestRunCheck_MissingFileIsReportedNotPanicked(t *testing.T) {
	logger = zap.NewNop()
	if err := runCheck(&cobra.Command{}, []string{filepath.Join(t.TempDir(), "does-not-exist.rg")}); err != nil {
		t.Fatalf("runCheck() error = %v", err)
	}
}

func TestRunCheck_RespectsConfiguredMaxRules(t *testing.T) {
	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	cfg.RuleGraph.MaxRules = 1
	defer func() { cfg = nil }()

	dir := t.TempDir()
	path := filepath.Join(dir, "two_rules.rg")
	src := "rule r1 : A <- pos(B)\nrule r2 : A <- pos(B)\nquery Q(B) : A\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := checkFixtureFile(context.Background(), path); err == nil {
		t.Fatal("expected checkFixtureFile to reject a fixture exceeding configured MaxRules")
	}
}

func TestRunCheck_FallsBackToConfiguredFixturePath(t *testing.T) {
	logger = zap.NewNop()

	dir := t.TempDir()
	path := filepath.Join(dir, "default.rg")
	if err := os.WriteFile(path, []byte("rule r1 : A <- pos(B)\nquery Q(B) : A\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg = config.DefaultConfig()
	cfg.RuleGraph.FixturePath = path
	defer func() { cfg = nil }()

	if err := runCheck(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runCheck() error = %v", err)
	}
}

func TestRunCheck_NoArgsAndNoConfiguredFixturePathIsError(t *testing.T) {
	logger = zap.NewNop()
	cfg = nil

	if err := runCheck(&cobra.Command{}, nil); err == nil {
		t.Fatal("expected runCheck to error with no args and no configured fixture_path")
	}
}
