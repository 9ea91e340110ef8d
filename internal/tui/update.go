package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goalkeeper/internal/calendar"
	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/recurrence"
	"github.com/julianstephens/goalkeeper/internal/tui/components/tasklist"
)

const tabCount = 3

type replyMsg struct {
	err error
}

type toggledMsg struct {
	err error
}

type historyMsg struct {
	rates  []float64
	streak int
	err    error
}

func (m Model) reply(text string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.conv.Reply(m.ctx, text)
		return replyMsg{err: err}
	}
}

func (m Model) selectDate(text string) tea.Cmd {
	date, err := planner.ParseTimeline(text, m.now())
	if err != nil {
		return func() tea.Msg { return replyMsg{err: err} }
	}
	return func() tea.Msg {
		_, err := m.conv.SelectDate(m.ctx, date)
		return replyMsg{err: err}
	}
}

func (m Model) toggle(id string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.store.UpdateGoalTask(m.ctx, id)
		return toggledMsg{err: err}
	}
}

func (m Model) loadHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	return func() tea.Msg {
		now := m.now()
		from, to := recurrence.LastDays(historyDays, now)
		completions, err := m.history.ListCompletionsForRange(m.ctx, m.store.UserID(), from, to)
		if err != nil {
			return historyMsg{err: err}
		}
		report := calendar.Analyze(m.store.Goals(), m.store.Tasks(), completions, from, to)
		return historyMsg{rates: report.Completion.Rates(), streak: calendar.Streak(report.Completion, now)}
	}
}

func (m *Model) resize() {
	// tabs, help and the chat input line
	bodyHeight := max(m.height-6, 3)
	w, _ := docStyle.GetFrameSize()
	m.chat.Width = m.width - w
	m.chat.Height = bodyHeight - 2
	m.input.Width = m.width - w - 4
	m.taskList.SetSize(m.width-w, bodyHeight-4)
	m.goals.SetSize(m.width-w, bodyHeight)
	m.help.Width = m.width
	m.renderChat()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case replyMsg:
		if errors.Is(msg.err, planner.ErrWrongState) {
			// restarted while a plan was generating
			return m, nil
		}
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.input.Reset()
		}
		m.renderChat()
		if _, done := m.conv.Goal(); done {
			m.reload()
			return m, m.loadHistory()
		}
		return m, nil

	case toggledMsg:
		m.err = msg.err
		m.reload()
		return m, m.loadHistory()

	case historyMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rates, m.streak = msg.rates, msg.streak
		return m, nil

	case tasklist.ToggleTaskMsg:
		return m, m.toggle(msg.ID)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if m.state == constants.StateChat {
			return m.updateChat(msg)
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case constants.StateToday:
		m.taskList, cmd = m.taskList.Update(msg)
	case constants.StateGoals:
		m.goals, cmd = m.goals.Update(msg)
	case constants.StateChat:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Restart):
		m.conv.Restart()
		m.err = nil
		m.busy = false
		m.input.Reset()
		m.renderChat()
		return m, nil
	case key.Matches(msg, m.keys.Up, m.keys.Down):
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.Send):
		if m.busy {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.err = planner.ErrEmptyInput
			return m, nil
		}
		m.err = nil
		m.busy = true
		var next tea.Cmd
		if m.conv.State() == constants.StateGoalTimeline {
			next = m.selectDate(text)
		} else {
			next = m.reply(text)
		}
		return m, tea.Batch(next, m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func errText(err error) string {
	if errors.Is(err, planner.ErrFinished) {
		return err.Error() + " (ctrl+r)"
	}
	return err.Error()
}
