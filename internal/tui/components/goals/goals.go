// Package goals renders the goal overview tab: one progress bar per goal
// with its next open milestone.
package goals

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

type Model struct {
	viewport viewport.Model
	bar      progress.Model
	goals    []models.Goal
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{
		viewport: viewport.New(width, height),
		bar:      progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.goals) == 0 {
		return "\n  No goals yet."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.bar.Width = min(max(width-4, 10), 60)
	m.Render()
}

func (m *Model) SetGoals(goals []models.Goal) {
	m.goals = goals
	m.Render()
}

func nextMilestone(g models.Goal) (models.Milestone, bool) {
	var next models.Milestone
	found := false
	for _, ms := range g.Milestones {
		if ms.Completed {
			continue
		}
		if !found || ms.TargetDate < next.TargetDate {
			next, found = ms, true
		}
	}
	return next, found
}

func displayDate(date string) string {
	t, err := utils.ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format(constants.DisplayDateFormat)
}

func (m *Model) Render() {
	var b strings.Builder
	for i, g := range m.goals {
		if i > 0 {
			b.WriteString("\n")
		}
		span := displayDate(g.StartDate)
		if g.EndDate != "" {
			span += " to " + displayDate(g.EndDate)
		}
		fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(g.Title), dateStyle.Render(span))
		fmt.Fprintf(&b, "%s\n", m.bar.ViewAs(float64(g.Progress)/100))
		if ms, ok := nextMilestone(g); ok {
			b.WriteString(statusStyle.Render(fmt.Sprintf("next: %s (%s)", ms.Title, displayDate(ms.TargetDate))))
		} else if len(g.Milestones) > 0 {
			b.WriteString(statusStyle.Render("all milestones reached"))
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}
