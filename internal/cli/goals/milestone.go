package goals

import (
	"context"

	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/goalstore"
	"github.com/julianstephens/goalkeeper/internal/models"
)

type MilestoneAddCmd struct {
	Goal  string `arg:"" help:"Goal ID or unique prefix."`
	Title string `arg:"" help:"Milestone title."`
	Date  string `required:"" help:"Target date (YYYY-MM-DD)."`
}

func (c *MilestoneAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	g, err := resolveGoal(st, c.Goal)
	if err != nil {
		return err
	}
	g, err = st.AddMilestone(bg, models.Milestone{GoalID: g.ID, Title: c.Title, TargetDate: c.Date})
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added milestone %q to %q (progress %d%%)\n", c.Title, g.Title, g.Progress)
	return nil
}

// resolveMilestone finds a milestone across all goals by ID or unique prefix.
func resolveMilestone(st *goalstore.Store, ref string) (models.Milestone, error) {
	var ids []string
	byID := map[string]models.Milestone{}
	for _, g := range st.Goals() {
		for _, m := range g.Milestones {
			ids = append(ids, m.ID)
			byID[m.ID] = m
		}
	}
	id, err := cli.MatchID(ids, ref)
	if err != nil {
		return models.Milestone{}, err
	}
	return byID[id], nil
}

type MilestoneToggleCmd struct {
	ID string `arg:"" help:"Milestone ID or unique prefix."`
}

func (c *MilestoneToggleCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	m, err := resolveMilestone(st, c.ID)
	if err != nil {
		return err
	}
	g, err := st.UpdateGoalMilestone(bg, m.ID, !m.Completed)
	if err != nil {
		return err
	}
	ctx.Printf("%s %s  (%s now %d%%)\n", mark(!m.Completed), m.Title, g.Title, g.Progress)
	return nil
}

type MilestoneDeleteCmd struct {
	ID string `arg:"" help:"Milestone ID or unique prefix."`
}

func (c *MilestoneDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	m, err := resolveMilestone(st, c.ID)
	if err != nil {
		return err
	}
	if err := st.DeleteMilestone(bg, m.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted milestone %q\n", m.Title)
	return nil
}
