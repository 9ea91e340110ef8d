// Package recurrence maps task schedules onto calendar days and resolves
// per-day completion state.
package recurrence

import (
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// Instance is one occurrence of a task on a calendar day.
type Instance struct {
	Task models.Task
	Date string // YYYY-MM-DD
}

// ActiveOn reports whether task has an instance on date.
//
// Recurring tasks never occur before the day they were created. Custom tasks
// occur only on their own date; a malformed date means the task never occurs.
func ActiveOn(task models.Task, date time.Time) bool {
	day := utils.Day(date)

	switch s := task.Schedule.(type) {
	case models.Daily:
		return !day.Before(createdDay(task))
	case models.Weekly:
		return !day.Before(createdDay(task)) && day.Weekday() == s.Weekday
	case models.Custom:
		d, err := utils.ParseDate(s.Date)
		if err != nil {
			return false
		}
		return d.Equal(day)
	default:
		return false
	}
}

// createdDay returns the zero time for tasks without a creation timestamp,
// which places no lower bound on their instances.
func createdDay(task models.Task) time.Time {
	if task.CreatedAt.IsZero() {
		return time.Time{}
	}
	return utils.Day(task.CreatedAt)
}

// ProjectionEnd returns the last day a recurring task is projected to: the
// owning goal's end date, or today plus the default horizon when the task has
// no goal or the goal has no usable end date.
func ProjectionEnd(goal *models.Goal, today time.Time) time.Time {
	if goal != nil && goal.EndDate != "" {
		if end, err := utils.ParseDate(goal.EndDate); err == nil {
			return end
		}
	}
	return utils.Day(today).AddDate(0, 0, constants.DefaultProjectionDays)
}

// Project lists every task instance in [from, to], ordered by day and then
// by the order of tasks.
//
// Recurring instances are only produced from max(created, today) onward and
// stop at ProjectionEnd. goals maps goal IDs to goals and may be nil.
func Project(tasks []models.Task, goals map[string]models.Goal, from, to, today time.Time) []Instance {
	from, to, today = utils.Day(from), utils.Day(to), utils.Day(today)
	if to.Before(from) {
		return nil
	}

	type window struct{ start, end time.Time }
	windows := make([]window, len(tasks))
	for i, task := range tasks {
		if !task.IsRecurring() {
			windows[i] = window{from, to}
			continue
		}
		var goal *models.Goal
		if task.GoalID != nil {
			if g, ok := goals[*task.GoalID]; ok {
				goal = &g
			}
		}
		start := utils.MaxDay(utils.MaxDay(from, today), createdDay(task))
		end := utils.MinDay(to, ProjectionEnd(goal, today))
		windows[i] = window{start, end}
	}

	var out []Instance
	utils.EachDay(from, to, func(day time.Time) {
		date := utils.FormatDate(day)
		for i, task := range tasks {
			w := windows[i]
			if day.Before(w.start) || day.After(w.end) {
				continue
			}
			if ActiveOn(task, day) {
				out = append(out, Instance{Task: task, Date: date})
			}
		}
	})
	return out
}

// ActiveTasks returns the tasks with an instance on date.
func ActiveTasks(tasks []models.Task, date time.Time) []models.Task {
	var out []models.Task
	for _, task := range tasks {
		if ActiveOn(task, date) {
			out = append(out, task)
		}
	}
	return out
}
