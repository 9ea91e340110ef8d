package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/tui/components/chart"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateChat:
		content = m.viewChat()
	case constants.StateToday:
		content = m.viewToday()
	case constants.StateGoals:
		content = docStyle.Render(m.goals.View())
	}

	status := ""
	if m.err != nil {
		status = errorStyle.Render("⚠ " + errText(m.err))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		status,
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Chat", "Today", "Goals"} {
		if m.state == constants.SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderChat redraws the transcript; assistant turns are markdown.
func (m *Model) renderChat() {
	width := max(m.chat.Width, 20)
	var b strings.Builder
	for _, msg := range m.conv.Messages() {
		if msg.Role == planner.RoleUser {
			b.WriteString(userStyle.Render("You: ") + msg.Content + "\n\n")
			continue
		}
		out, err := planner.RenderMarkdown(msg.Content, width)
		if err != nil {
			out = msg.Content + "\n"
		}
		b.WriteString(out)
	}
	m.chat.SetContent(b.String())
	m.chat.GotoBottom()
}

func (m Model) viewChat() string {
	prompt := m.input.View()
	if m.busy {
		prompt = m.spinner.View() + " thinking..."
	} else if m.conv.State() == constants.StateGoalTimeline {
		prompt += "\n" + dimStyle.Render("a date (YYYY-MM-DD) or a phrase like '6 months'")
	}
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, m.chat.View(), prompt))
}

func (m Model) viewToday() string {
	header := fmt.Sprintf("%s  streak %d day(s)", m.now().Format(constants.DisplayDateFormat), m.streak)
	spark := chart.Sparkline(m.rates, sparklineWidth, sparklineHeight)
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		spark,
		"",
		m.taskList.View(),
	))
}
