package system

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/goalkeeper/internal/cli"
)

type DebugCmd struct {
	DBPath   DebugDBPathCmd   `cmd:"" name:"db-path" help:"Show database path."`
	DumpGoal DebugDumpGoalCmd `cmd:"" help:"Dump a goal with its milestones and tasks as JSON."`
	DumpTask DebugDumpTaskCmd `cmd:"" help:"Dump a task as JSON."`
}

func printJSON(ctx *cli.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(data))
	return nil
}

type DebugDBPathCmd struct{}

func (c *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{"path": displayPath(ctx)})
}

type DebugDumpGoalCmd struct {
	ID string `arg:"" help:"Goal ID or unique prefix."`
}

func (c *DebugDumpGoalCmd) Run(ctx *cli.Context) error {
	st, err := ctx.Goals(context.Background())
	if err != nil {
		return err
	}
	ids := make([]string, 0)
	for _, g := range st.Goals() {
		ids = append(ids, g.ID)
	}
	id, err := cli.MatchID(ids, c.ID)
	if err != nil {
		return fmt.Errorf("goal: %w", err)
	}
	g, _ := st.Goal(id)
	return printJSON(ctx, g)
}

type DebugDumpTaskCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *DebugDumpTaskCmd) Run(ctx *cli.Context) error {
	st, err := ctx.Goals(context.Background())
	if err != nil {
		return err
	}
	ids := make([]string, 0)
	for _, t := range st.Tasks() {
		ids = append(ids, t.ID)
	}
	id, err := cli.MatchID(ids, c.ID)
	if err != nil {
		return fmt.Errorf("task: %w", err)
	}
	t, _ := st.Task(id)
	return printJSON(ctx, t)
}
