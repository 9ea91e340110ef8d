package plans

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/config"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/storage/sqlite"
)

type failingGenerator struct{}

func (failingGenerator) Generate(ctx context.Context, req planner.Request) (*planner.Result, error) {
	return nil, errors.New("model unavailable")
}

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer, func()) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	out := &bytes.Buffer{}
	ctx := &cli.Context{Store: store, Config: &config.Config{}, Out: out}
	return ctx, out, func() { store.Close() }
}

func TestPlanGenerateFallbackAndSave(t *testing.T) {
	ctx, out, cleanup := setupTestContext(t)
	defer cleanup()

	cmd := &PlanGenerateCmd{
		Title:    "Run a 10k",
		Why:      "Health",
		Timeline: "6 months",
		Save:     true,
		JSON:     true,
		gen:      failingGenerator{},
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("failed to generate plan: %v", err)
	}
	if !strings.Contains(out.String(), "starter plan") {
		t.Errorf("expected fallback notice:\n%s", out.String())
	}
	if !strings.Contains(out.String(), `"smartGoal"`) {
		t.Errorf("expected JSON plan:\n%s", out.String())
	}

	st, err := ctx.Goals(context.Background())
	if err != nil {
		t.Fatalf("failed to load goals: %v", err)
	}
	goals := st.Goals()
	if len(goals) != 1 {
		t.Fatalf("expected 1 saved goal, got %d", len(goals))
	}
	if goals[0].Title != "Run a 10k" || len(goals[0].Milestones) == 0 || len(goals[0].Tasks) == 0 {
		t.Errorf("saved goal incomplete: %+v", goals[0])
	}
}

func TestPlanGenerateBadTimeline(t *testing.T) {
	ctx, _, cleanup := setupTestContext(t)
	defer cleanup()

	cmd := &PlanGenerateCmd{Title: "Run", Timeline: "whenever", gen: failingGenerator{}}
	if err := cmd.Run(ctx); err == nil {
		t.Error("expected error for an unparseable timeline")
	}
}
