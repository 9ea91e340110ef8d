package recurrence

import (
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

type completionKey struct {
	taskID string
	date   string
}

// CompletionIndex answers "was task T done on day D" for recurring tasks.
type CompletionIndex struct {
	done    map[completionKey]bool
	dropped int
}

// NewCompletionIndex indexes completions by (task, day). Records whose date
// does not parse are skipped.
func NewCompletionIndex(completions []models.TaskCompletion) *CompletionIndex {
	ix := &CompletionIndex{done: make(map[completionKey]bool, len(completions))}
	for _, c := range completions {
		d, err := utils.ParseDate(c.Date)
		if err != nil {
			ix.dropped++
			continue
		}
		ix.done[completionKey{c.TaskID, utils.FormatDate(d)}] = c.Completed
	}
	if ix.dropped > 0 {
		logger.Debug("Dropped completions with malformed dates", "count", ix.dropped)
	}
	return ix
}

// Dropped returns how many records were skipped for malformed dates.
func (ix *CompletionIndex) Dropped() int {
	return ix.dropped
}

// Completed reports whether the recurring task was completed on date.
// A missing record means not completed.
func (ix *CompletionIndex) Completed(taskID, date string) bool {
	if ix == nil {
		return false
	}
	return ix.done[completionKey{taskID, date}]
}

// Set records a completion state in the index.
func (ix *CompletionIndex) Set(taskID, date string, completed bool) {
	ix.done[completionKey{taskID, date}] = completed
}

// IsComplete resolves an instance's completion state: recurring tasks look up
// their per-day record, custom tasks use their own flag.
func (ix *CompletionIndex) IsComplete(inst Instance) bool {
	if inst.Task.IsRecurring() {
		return ix.Completed(inst.Task.ID, inst.Date)
	}
	return inst.Task.Completed
}

// MergeToday copies the completion state for today onto recurring tasks and
// returns the updated slice. Custom tasks are left untouched.
func MergeToday(tasks []models.Task, ix *CompletionIndex, today string) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, task := range tasks {
		if task.IsRecurring() {
			task.Completed = ix.Completed(task.ID, today)
		}
		out[i] = task
	}
	return out
}
