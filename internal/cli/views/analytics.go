package views

import (
	"context"
	"fmt"

	"github.com/julianstephens/goalkeeper/internal/calendar"
	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/recurrence"
	"github.com/julianstephens/goalkeeper/internal/tui/components/chart"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
)

type AnalyticsCmd struct {
	Days int `default:"30" help:"Number of days ending today to analyze."`
}

func (c *AnalyticsCmd) Run(ctx *cli.Context) error {
	if c.Days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}

	now := ctx.Now()
	from, to := recurrence.LastDays(c.Days, now)
	completions, err := ctx.Store.ListCompletionsForRange(bg, st.UserID(), from, to)
	if err != nil {
		return fmt.Errorf("failed to load completions: %w", err)
	}
	report := calendar.Analyze(st.Goals(), st.Tasks(), completions, from, to)

	ctx.Printf("Completion %s to %s\n\n", cli.FormatDate(from), cli.FormatDate(to))
	ctx.Println(chart.Sparkline(report.Completion.Rates(), sparklineWidth, sparklineHeight))
	ctx.Printf("\n%d of %d task instances done (%.0f%%), current streak %d day(s)\n",
		report.Completion.Completed, report.Completion.Total, report.Completion.Rate*100,
		calendar.Streak(report.Completion, now))

	if len(report.Goals) > 0 {
		ctx.Println("\nGoals:")
		for _, g := range report.Goals {
			ctx.Printf("  %3d%%  %s\n", g.Percent, g.Title)
		}
	}
	return nil
}
