package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// FormatPlan renders a plan as markdown text: the SMART breakdown, the
// milestones by date, the daily practice and the weekly schedule.
func FormatPlan(p Plan) string {
	var b strings.Builder

	b.WriteString("## SMART Goal Breakdown\n\n")
	for _, f := range []struct{ label, value string }{
		{"Specific", p.SmartGoal.Specific},
		{"Measurable", p.SmartGoal.Measurable},
		{"Achievable", p.SmartGoal.Achievable},
		{"Relevant", p.SmartGoal.Relevant},
		{"Timeline", p.SmartGoal.TimeBound},
	} {
		fmt.Fprintf(&b, "**%s:** %s\n\n", f.label, f.value)
	}

	b.WriteString("## Key Milestones\n\n")
	for _, m := range p.Milestones {
		fmt.Fprintf(&b, "- **%s**: %s\n", displayDate(m.Date), m.Title)
	}

	b.WriteString("\n## Daily Practice\n\n")
	for _, t := range p.Tasks {
		if t.Type == constants.TaskTypeDaily {
			fmt.Fprintf(&b, "- %s\n", t.Title)
		}
	}

	b.WriteString("\n## Weekly Schedule\n\n")
	for _, t := range p.Tasks {
		if t.Type != constants.TaskTypeWeekly {
			continue
		}
		day := time.Sunday
		if t.Weekday != nil && *t.Weekday >= 0 && *t.Weekday <= 6 {
			day = time.Weekday(*t.Weekday)
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", day, t.Title)
	}

	return b.String()
}

func displayDate(date string) string {
	d, err := utils.ParseDate(date)
	if err != nil {
		return date
	}
	return d.Format(constants.DisplayDateFormat)
}

// RenderMarkdown renders FormatPlan output for a terminal of the given width.
// A non-positive width disables wrapping.
func RenderMarkdown(md string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("dark")}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
