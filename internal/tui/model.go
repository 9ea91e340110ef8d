package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goalkeeper/internal/calendar"
	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/goalstore"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/tui/components/goals"
	"github.com/julianstephens/goalkeeper/internal/tui/components/tasklist"
)

const historyDays = 30

// History loads completions for the sparkline on the Today tab.
type History interface {
	ListCompletionsForRange(ctx context.Context, userID, from, to string) ([]models.TaskCompletion, error)
}

type Model struct {
	ctx     context.Context
	store   *goalstore.Store
	history History
	conv    *planner.Conversation
	now     func() time.Time

	state    constants.SessionState
	keys     KeyMap
	help     help.Model
	chat     viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	taskList tasklist.Model
	goals    goals.Model

	busy     bool
	err      error
	rates    []float64
	streak   int
	quitting bool
	width    int
	height   int
}

func NewModel(ctx context.Context, store *goalstore.Store, history History, conv *planner.Conversation, now func() time.Time) Model {
	in := textinput.New()
	in.Placeholder = "Type your answer..."
	in.CharLimit = 500
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		store:    store,
		history:  history,
		conv:     conv,
		now:      now,
		state:    constants.StateChat,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		chat:     viewport.New(0, 0),
		input:    in,
		spinner:  sp,
		taskList: tasklist.New(nil, 0, 0),
		goals:    goals.New(0, 0),
	}
	m.reload()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == constants.StateChat {
		keys = append(keys, m.keys.Send, m.keys.Restart)
	}
	if m.state == constants.StateToday {
		keys = append(keys, tasklist.DefaultKeyMap().Toggle)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case constants.StateChat:
		actions = []key.Binding{m.keys.Send, m.keys.Restart}
	case constants.StateToday:
		actions = []key.Binding{tasklist.DefaultKeyMap().Toggle}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadHistory())
}

// reload refreshes the Today and Goals tabs from the in-memory store.
func (m *Model) reload() {
	now := m.now()
	days := calendar.Build(m.store.Goals(), m.store.Tasks(), m.store.TodayCompletions(), now, now, now)
	var entries []calendar.Entry
	if len(days) > 0 {
		entries = days[0].Tasks
	}
	m.taskList.SetEntries(entries)
	m.goals.SetGoals(m.store.Goals())
}
