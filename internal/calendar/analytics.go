package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/progress"
	"github.com/julianstephens/goalkeeper/internal/recurrence"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// Presets are the named analytics ranges.
var Presets = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

// PresetRange resolves a preset such as "30d" into YYYY-MM-DD bounds ending
// today.
func PresetRange(preset string, today time.Time) (from, to string, err error) {
	days, ok := Presets[strings.ToLower(preset)]
	if !ok {
		return "", "", fmt.Errorf("unknown range %q (use 7d, 30d or 90d)", preset)
	}
	from, to = recurrence.LastDays(days, today)
	return from, to, nil
}

type GoalProgress struct {
	GoalID  string `json:"goal_id"`
	Title   string `json:"title"`
	Percent int    `json:"percent"`
}

// Report combines the completion series with each goal's progress.
type Report struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Completion recurrence.Series `json:"completion"`
	Goals      []GoalProgress    `json:"goals"`
}

// Analyze tallies completion for [from, to] over all tasks and lists every
// goal's progress. Goal tasks must carry today's merged completion state.
func Analyze(goals []models.Goal, tasks []models.Task, completions []models.TaskCompletion, from, to string) Report {
	r := Report{
		From:       from,
		To:         to,
		Completion: recurrence.CompletionRate(tasks, recurrence.NewCompletionIndex(completions), from, to),
		Goals:      make([]GoalProgress, 0, len(goals)),
	}
	for _, g := range goals {
		r.Goals = append(r.Goals, GoalProgress{GoalID: g.ID, Title: g.Title, Percent: progress.ForGoal(g)})
	}
	return r
}

// Streak counts consecutive days ending at today whose rate is 1. Days with
// no active tasks end the streak.
func Streak(series recurrence.Series, today time.Time) int {
	want := utils.FormatDate(utils.Day(today))
	n := 0
	for i := len(series.Days) - 1; i >= 0; i-- {
		d := series.Days[i]
		if n == 0 && d.Date != want {
			return 0
		}
		if d.Total == 0 || d.Completed < d.Total {
			break
		}
		n++
	}
	return n
}
