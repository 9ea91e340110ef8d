package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/cli/plans"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/tui"
)

type ChatCmd struct{}

func (c *ChatCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup(bg)

	conv := planner.NewConversation(plans.NewGenerator(ctx), st, st.UserID(), ctx.Now)
	p := tea.NewProgram(tui.NewModel(bg, st, ctx.Store, conv, ctx.Now), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}
