package views

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/config"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/storage/sqlite"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer, func()) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	out := &bytes.Buffer{}
	ctx := &cli.Context{Store: store, Config: &config.Config{}, Out: out}

	st, err := ctx.Goals(context.Background())
	if err != nil {
		t.Fatalf("failed to load goals: %v", err)
	}
	bg := context.Background()
	g, err := st.CreateGoal(bg, models.Goal{Title: "Read", StartDate: utils.Today(ctx.Now())})
	if err != nil {
		t.Fatalf("failed to create goal: %v", err)
	}
	task, err := st.AddTask(bg, models.Task{Title: "Read 10 pages", GoalID: &g.ID, Schedule: models.Daily{}})
	if err != nil {
		t.Fatalf("failed to add task: %v", err)
	}
	if _, err := st.UpdateGoalTask(bg, task.ID); err != nil {
		t.Fatalf("failed to toggle task: %v", err)
	}
	return ctx, out, func() { store.Close() }
}

func TestCalendarCmd(t *testing.T) {
	ctx, out, cleanup := setupTestContext(t)
	defer cleanup()

	if err := (&CalendarCmd{}).Run(ctx); err != nil {
		t.Fatalf("failed to render calendar: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// Seven days, each with a header and one task line.
	if len(lines) != 14 {
		t.Fatalf("expected 14 lines, got %d:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "1/1 Tasks") || !strings.Contains(lines[1], "[x] Read 10 pages") {
		t.Errorf("today should be complete:\n%s", out.String())
	}
	if !strings.Contains(lines[3], "[ ] Read 10 pages") {
		t.Errorf("tomorrow should be open:\n%s", out.String())
	}

	if err := (&CalendarCmd{From: "2025-02-01", To: "2025-01-01"}).Run(ctx); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestAnalyticsCmd(t *testing.T) {
	ctx, out, cleanup := setupTestContext(t)
	defer cleanup()

	if err := (&AnalyticsCmd{Days: 7}).Run(ctx); err != nil {
		t.Fatalf("failed to render analytics: %v", err)
	}
	for _, want := range []string{"1 of 1 task instances done (100%)", "current streak 1 day(s)", "100%  Read"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("analytics output missing %q:\n%s", want, out.String())
		}
	}

	if err := (&AnalyticsCmd{Days: 0}).Run(ctx); err == nil {
		t.Error("expected error for --days 0")
	}
}
