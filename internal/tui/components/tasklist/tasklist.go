package tasklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goalkeeper/internal/calendar"
	"github.com/julianstephens/goalkeeper/internal/constants"
)

type ToggleTaskMsg struct {
	ID string
}

type Item struct {
	Entry calendar.Entry
}

func (i Item) Title() string {
	if i.Entry.Completed {
		return "[x] " + i.Entry.Task.Title
	}
	return "[ ] " + i.Entry.Task.Title
}

func (i Item) Description() string {
	desc := string(i.Entry.Task.Type())
	if wd, ok := i.Entry.Task.Weekday(); ok && i.Entry.Task.Type() == constants.TaskTypeWeekly {
		desc = fmt.Sprintf("weekly on %s", wd)
	}
	if i.Entry.GoalTitle != "" {
		desc += " | " + i.Entry.GoalTitle
	}
	return desc
}

func (i Item) FilterValue() string { return i.Entry.Task.Title }

type KeyMap struct {
	Toggle key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space/x", "toggle done"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func items(entries []calendar.Entry) []list.Item {
	out := make([]list.Item, len(entries))
	for i, e := range entries {
		out[i] = Item{Entry: e}
	}
	return out
}

func New(entries []calendar.Entry, width, height int) Model {
	l := list.New(items(entries), list.NewDefaultDelegate(), width, height)
	l.Title = "Today"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{list: l, keys: keys}
}

// SetEntries replaces the list, keeping the cursor where it was.
func (m *Model) SetEntries(entries []calendar.Entry) {
	idx := m.list.Index()
	m.list.SetItems(items(entries))
	if idx < len(entries) {
		m.list.Select(idx)
	}
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if key.Matches(msg, m.keys.Toggle) {
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return ToggleTaskMsg{ID: i.Entry.Task.ID} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  Nothing scheduled for today.\n  Build a goal in the Chat tab to get started."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
