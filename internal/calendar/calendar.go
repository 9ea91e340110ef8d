// Package calendar lays task instances and milestones out by day and
// summarises completion over a range.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/recurrence"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// Entry is one task instance on a day.
type Entry struct {
	Task      models.Task `json:"task"`
	GoalTitle string      `json:"goal_title,omitempty"`
	Completed bool        `json:"completed"`
}

type Day struct {
	Date       string             `json:"date"`
	Title      string             `json:"title,omitempty"`
	Tasks      []Entry            `json:"tasks"`
	Milestones []models.Milestone `json:"milestones"`
}

// Done counts the completed entries.
func (d Day) Done() int {
	n := 0
	for _, e := range d.Tasks {
		if e.Completed {
			n++
		}
	}
	return n
}

// Build returns one Day for every date in [from, to] that has task instances
// or milestones. Recurring tasks are projected from today onward; milestones
// dated before today are omitted.
func Build(goals []models.Goal, tasks []models.Task, completions []models.TaskCompletion, from, to, today time.Time) []Day {
	from, to, today = utils.Day(from), utils.Day(to), utils.Day(today)

	byID := make(map[string]models.Goal, len(goals))
	for _, g := range goals {
		byID[g.ID] = g
	}
	ix := recurrence.NewCompletionIndex(completions)

	days := map[string]*Day{}
	get := func(date string) *Day {
		d, ok := days[date]
		if !ok {
			d = &Day{Date: date, Tasks: []Entry{}, Milestones: []models.Milestone{}}
			days[date] = d
		}
		return d
	}

	for _, inst := range recurrence.Project(tasks, byID, from, to, today) {
		e := Entry{Task: inst.Task, Completed: ix.IsComplete(inst)}
		if inst.Task.GoalID != nil {
			e.GoalTitle = byID[*inst.Task.GoalID].Title
		}
		d := get(inst.Date)
		d.Tasks = append(d.Tasks, e)
	}

	for _, g := range goals {
		for _, m := range g.Milestones {
			date, err := utils.ParseDate(m.TargetDate)
			if err != nil || date.Before(today) || date.Before(from) || date.After(to) {
				continue
			}
			d := get(m.TargetDate)
			d.Milestones = append(d.Milestones, m)
		}
	}

	out := make([]Day, 0, len(days))
	for _, d := range days {
		if len(d.Tasks) > 0 {
			d.Title = fmt.Sprintf("%d/%d Tasks", d.Done(), len(d.Tasks))
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
