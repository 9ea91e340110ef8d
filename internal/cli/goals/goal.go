package goals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/goalkeeper/internal/cli"
	apperrors "github.com/julianstephens/goalkeeper/internal/errors"
	"github.com/julianstephens/goalkeeper/internal/goalstore"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/saga"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// GoalFormModel backs the interactive goal form.
type GoalFormModel struct {
	Title       string
	Description string
	Specific    string
	Measurable  string
	StartDate   string
	EndDate     string
}

func validateDate(optional bool) func(string) error {
	return func(s string) error {
		if optional && strings.TrimSpace(s) == "" {
			return nil
		}
		if _, err := utils.ParseDate(s); err != nil {
			return fmt.Errorf("invalid date, use YYYY-MM-DD")
		}
		return nil
	}
}

// NewGoalForm builds the form `goal add` shows when no title is given.
func NewGoalForm(fm *GoalFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Goal").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("goal title cannot be empty")
					}
					return nil
				}),
			huh.NewText().
				Title("Why does it matter?").
				Value(&fm.Description),
			huh.NewInput().
				Title("Specific").
				Description("What exactly will you achieve?").
				Value(&fm.Specific),
			huh.NewInput().
				Title("Measurable").
				Description("How will you know you are done?").
				Value(&fm.Measurable),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Start date (YYYY-MM-DD)").
				Value(&fm.StartDate).
				Validate(validateDate(false)),
			huh.NewInput().
				Title("End date (YYYY-MM-DD)").
				Description("Leave empty for an open-ended goal").
				Value(&fm.EndDate).
				Validate(validateDate(true)),
		),
	).WithTheme(huh.ThemeDracula())
}

type GoalAddCmd struct {
	Title       string `arg:"" optional:"" help:"Goal title. Opens a form when omitted."`
	Description string `help:"Why the goal matters."`
	Specific    string `help:"SMART: what exactly will be achieved."`
	Measurable  string `help:"SMART: how progress is measured."`
	Start       string `help:"Start date (YYYY-MM-DD, default today)."`
	End         string `help:"End date (YYYY-MM-DD)."`
}

func (c *GoalAddCmd) Run(ctx *cli.Context) error {
	fm := GoalFormModel{
		Title:       c.Title,
		Description: c.Description,
		Specific:    c.Specific,
		Measurable:  c.Measurable,
		StartDate:   c.Start,
		EndDate:     c.End,
	}
	if fm.StartDate == "" {
		fm.StartDate = utils.Today(ctx.Now())
	}
	if strings.TrimSpace(fm.Title) == "" {
		if err := NewGoalForm(&fm).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				ctx.Println("Cancelled.")
				return nil
			}
			return err
		}
	}

	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	g, err := st.CreateGoal(bg, models.Goal{
		Title:       strings.TrimSpace(fm.Title),
		Description: fm.Description,
		SmartGoal:   models.SmartGoal{Specific: fm.Specific, Measurable: fm.Measurable, TimeBound: fm.EndDate},
		StartDate:   fm.StartDate,
		EndDate:     fm.EndDate,
	})
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added goal %q (%s)\n", g.Title, cli.ShortID(g.ID))
	return nil
}

type GoalListCmd struct{}

func (c *GoalListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	goals := st.Goals()
	if len(goals) == 0 {
		ctx.Println("No goals yet. Add one with 'goalkeeper goal add' or 'goalkeeper chat'.")
		return nil
	}
	for _, g := range goals {
		ctx.Printf("%-9s %3d%%  %s  (%s", cli.ShortID(g.ID), g.Progress, g.Title, cli.FormatDate(g.StartDate))
		if g.EndDate != "" {
			ctx.Printf(" to %s", cli.FormatDate(g.EndDate))
		}
		ctx.Printf(")\n")
	}
	return nil
}

// resolveGoal finds a cached goal by ID or unique ID prefix.
func resolveGoal(st *goalstore.Store, ref string) (models.Goal, error) {
	byID := st.GoalsByID()
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	id, err := cli.MatchID(ids, ref)
	if err != nil {
		return models.Goal{}, fmt.Errorf("goal: %w", err)
	}
	g, _ := st.Goal(id)
	return g, nil
}

type GoalShowCmd struct {
	ID string `arg:"" help:"Goal ID or unique prefix."`
}

func (c *GoalShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	g, err := resolveGoal(st, c.ID)
	if err != nil {
		return err
	}

	ctx.Printf("%s  [%d%%]\n", g.Title, g.Progress)
	ctx.Printf("ID:      %s\n", g.ID)
	ctx.Printf("Dates:   %s", cli.FormatDate(g.StartDate))
	if g.EndDate != "" {
		ctx.Printf(" to %s", cli.FormatDate(g.EndDate))
	}
	ctx.Println()
	if g.Description != "" {
		ctx.Printf("Why:     %s\n", g.Description)
	}
	if g.SmartGoal.Specific != "" {
		ctx.Printf("Specific: %s\n", g.SmartGoal.Specific)
	}
	if g.SmartGoal.Measurable != "" {
		ctx.Printf("Measurable: %s\n", g.SmartGoal.Measurable)
	}

	ms := append([]models.Milestone(nil), g.Milestones...)
	sort.Slice(ms, func(i, j int) bool { return ms[i].TargetDate < ms[j].TargetDate })
	ctx.Printf("\nMilestones (%d):\n", len(ms))
	for _, m := range ms {
		ctx.Printf("  %s %-9s %s  %s\n", mark(m.Completed), cli.ShortID(m.ID), cli.FormatDate(m.TargetDate), m.Title)
	}

	ctx.Printf("\nTasks (%d):\n", len(g.Tasks))
	for _, t := range g.Tasks {
		ctx.Printf("  %s %-9s %-16s %s\n", mark(t.Completed), cli.ShortID(t.ID), cli.FormatSchedule(t), t.Title)
	}
	return nil
}

func mark(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

type GoalDeleteCmd struct {
	ID string `arg:"" help:"Goal ID or unique prefix."`
}

func (c *GoalDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	g, err := resolveGoal(st, c.ID)
	if err != nil {
		return err
	}

	err = st.DeleteGoal(bg, g.ID)
	var pf *saga.PartialFailure
	if errors.As(err, &pf) {
		errs := make([]error, 0, len(pf.Failed))
		for _, step := range pf.Failed {
			errs = append(errs, fmt.Errorf("%s: %w", step, pf.Errs[step]))
		}
		ctx.Println(apperrors.FormatList(fmt.Sprintf("goal %q deleted, but some cleanup failed:", g.Title), errs))
		return nil
	}
	if err != nil {
		return err
	}
	ctx.Printf("✓ Deleted goal %q\n", g.Title)
	return nil
}
