// Package progress computes a goal's completion percentage.
//
// One rule applies everywhere a goal's progress is derived:
//
//	milestones and tasks: round(70 * milestoneRatio + 30 * taskRatio)
//	milestones only:      round(100 * milestoneRatio)
//	tasks only:           round(100 * taskRatio)
//	neither:              0
//
// A task counts as done when its instance for today is complete (the row flag
// for custom tasks).
package progress

import (
	"math"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/recurrence"
)

// Breakdown exposes the inputs of a progress computation.
type Breakdown struct {
	MilestonesDone  int `json:"milestones_done"`
	MilestonesTotal int `json:"milestones_total"`
	TasksDone       int `json:"tasks_done"`
	TasksTotal      int `json:"tasks_total"`
	Percent         int `json:"percent"`
}

// Compute returns the progress breakdown for milestones and tasks. ix and
// today resolve recurring task completion; a nil index treats every recurring
// task as incomplete.
func Compute(milestones []models.Milestone, tasks []models.Task, ix *recurrence.CompletionIndex, today string) Breakdown {
	b := Breakdown{MilestonesTotal: len(milestones), TasksTotal: len(tasks)}
	for _, m := range milestones {
		if m.Completed {
			b.MilestonesDone++
		}
	}
	for _, t := range tasks {
		if ix.IsComplete(recurrence.Instance{Task: t, Date: today}) {
			b.TasksDone++
		}
	}
	b.Percent = Percent(b.MilestonesDone, b.MilestonesTotal, b.TasksDone, b.TasksTotal)
	return b
}

// Percent applies the weighting rule to raw counts.
func Percent(milestonesDone, milestonesTotal, tasksDone, tasksTotal int) int {
	mRatio := recurrence.Ratio(milestonesDone, milestonesTotal)
	tRatio := recurrence.Ratio(tasksDone, tasksTotal)

	var pct float64
	switch {
	case milestonesTotal > 0 && tasksTotal > 0:
		pct = constants.MilestoneWeight*mRatio + constants.TaskWeight*tRatio
	case milestonesTotal > 0:
		pct = 100 * mRatio
	case tasksTotal > 0:
		pct = 100 * tRatio
	}
	return clamp(int(math.Round(pct)))
}

// ForGoal computes progress for a goal from its nested collections, with
// task completion taken from each task's Completed field as merged for today.
func ForGoal(g models.Goal) int {
	done := 0
	for _, t := range g.Tasks {
		if t.Completed {
			done++
		}
	}
	msDone := 0
	for _, m := range g.Milestones {
		if m.Completed {
			msDone++
		}
	}
	return Percent(msDone, len(g.Milestones), done, len(g.Tasks))
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
