package views

import (
	"context"
	"fmt"

	"github.com/julianstephens/goalkeeper/internal/calendar"
	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

type CalendarCmd struct {
	From string `help:"First day (YYYY-MM-DD, default today)."`
	To   string `help:"Last day (YYYY-MM-DD, default a week after --from)."`
}

func (c *CalendarCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}

	now := ctx.Now()
	from := utils.Day(now)
	if c.From != "" {
		if from, err = utils.ParseDate(c.From); err != nil {
			return fmt.Errorf("invalid --from %q, use YYYY-MM-DD", c.From)
		}
	}
	to := from.AddDate(0, 0, 6)
	if c.To != "" {
		if to, err = utils.ParseDate(c.To); err != nil {
			return fmt.Errorf("invalid --to %q, use YYYY-MM-DD", c.To)
		}
	}
	if to.Before(from) {
		return fmt.Errorf("--to must not be before --from")
	}

	days := calendar.Build(st.Goals(), st.Tasks(), st.TodayCompletions(), from, to, now)
	if len(days) == 0 {
		ctx.Println("Nothing scheduled.")
		return nil
	}
	for _, d := range days {
		ctx.Printf("%s  %s\n", cli.FormatDate(d.Date), d.Title)
		for _, m := range d.Milestones {
			ctx.Printf("    ◆ %s\n", m.Title)
		}
		for _, e := range d.Tasks {
			mark := "[ ]"
			if e.Completed {
				mark = "[x]"
			}
			ctx.Printf("    %s %s\n", mark, e.Task.Title)
		}
	}
	return nil
}
