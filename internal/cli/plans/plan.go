package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/llm"
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/metrics"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

const renderWidth = 80

// NewGenerator builds the plan generator from the loaded configuration.
func NewGenerator(ctx *cli.Context) planner.PlanGenerator {
	if ctx.Config == nil {
		return nil
	}
	return planner.NewGenerator(llm.New(ctx.Config.LLM, llm.ConfigToken(ctx.Config.LLM)), ctx.Now)
}

type PlanGenerateCmd struct {
	Title    string `required:"" help:"What do you want to achieve?"`
	Why      string `help:"Why does it matter to you?"`
	Specific string `help:"What exactly does success look like?"`
	Timeline string `default:"3 months" help:"When: a date (YYYY-MM-DD) or a phrase such as '6 months' or 'next year'."`
	Save     bool   `help:"Save the plan as a new goal."`
	JSON     bool   `name:"json" help:"Print the raw plan as JSON."`

	gen planner.PlanGenerator
}

func (c *PlanGenerateCmd) Run(ctx *cli.Context) error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("--title must not be empty")
	}
	now := ctx.Now()
	target, err := planner.ParseTimeline(c.Timeline, now)
	if err != nil {
		return err
	}
	req := planner.Request{
		Title:      strings.TrimSpace(c.Title),
		Reasoning:  c.Why,
		Specific:   c.Specific,
		TargetDate: utils.FormatDate(target),
		StartDate:  utils.Today(now),
	}

	gen := c.gen
	if gen == nil {
		gen = NewGenerator(ctx)
	}

	bg := context.Background()
	var res *planner.Result
	if gen != nil {
		res, err = gen.Generate(bg, req)
	} else {
		err = llm.ErrNotConfigured
	}
	if err != nil {
		logger.Warn("Plan generation failed, using fallback plan", "error", err)
		metrics.Get().PlanGenerations.WithLabelValues("fallback").Inc()
		ctx.Printf("⚠ Could not generate a plan (%v); showing a starter plan instead.\n\n", err)
		res = planner.FallbackResult(req, now)
	}

	if c.JSON {
		data, err := json.MarshalIndent(res.Raw, "", "  ")
		if err != nil {
			return err
		}
		ctx.Println(string(data))
	} else {
		rendered, err := planner.RenderMarkdown(res.Plan, renderWidth)
		if err != nil {
			rendered = res.Plan
		}
		ctx.Println(rendered)
	}

	if !c.Save {
		return nil
	}
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	g, ms, ts := planner.ToModels(res.Raw, req, st.UserID(), now)
	created, err := st.CreateGoalWithPlan(bg, g, ms, ts)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	ctx.Printf("✓ Saved goal %q with %d milestones and %d tasks (%s)\n", created.Title, len(created.Milestones), len(created.Tasks), cli.ShortID(created.ID))
	return nil
}
