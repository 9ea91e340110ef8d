package goalstore

import (
	"context"

	"github.com/julianstephens/goalkeeper/internal/metrics"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/validation"
)

// AddTask writes a task and caches it. A task with a GoalID must belong to a
// cached goal.
func (s *Store) AddTask(ctx context.Context, t models.Task) (models.Task, error) {
	if t.ID == "" {
		t.ID = s.newID()
	}
	t.UserID = s.userID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.IsRecurring() {
		t.Completed = false
	}
	if err := validation.ValidateTask(t).Err(); err != nil {
		return models.Task{}, err
	}
	if t.GoalID != nil {
		if _, ok := s.Goal(*t.GoalID); !ok {
			return models.Task{}, notCached("goal", *t.GoalID)
		}
	}

	if err := s.repo.AddTask(ctx, t); err != nil {
		return models.Task{}, s.fail(ctx, OpAddTask, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollLocked()
	s.tasks[t.ID] = t
	s.commitLocked(taskKey(t.ID))
	if t.GoalID != nil {
		s.recomputeLocked(*t.GoalID)
	}
	return t, nil
}

// UpdateGoalTask toggles a task's completion for today.
//
// Recurring tasks record the change as today's TaskCompletion and leave every
// other day untouched; custom tasks flip their own flag. The owning goal's
// progress is recomputed locally.
func (s *Store) UpdateGoalTask(ctx context.Context, taskID string) (models.Task, error) {
	s.mu.Lock()
	today := s.rollLocked()
	t, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return models.Task{}, notCached("task", taskID)
	}
	t.Completed = !t.Completed
	s.tasks[taskID] = t

	var completion models.TaskCompletion
	if t.IsRecurring() {
		completion, ok = s.completions[taskID]
		if !ok {
			completion = models.TaskCompletion{ID: s.newID(), TaskID: taskID, UserID: s.userID, Date: today}
		}
		completion.Completed = t.Completed
		s.completions[taskID] = completion
	}
	op := s.touchLocked(false, taskKey(taskID))
	if t.GoalID != nil {
		s.recomputeLocked(*t.GoalID)
	}
	s.mu.Unlock()

	metrics.Get().TaskToggles.WithLabelValues(string(t.Type())).Inc()

	var err error
	if t.IsRecurring() {
		err = s.repo.UpsertCompletion(ctx, completion)
	} else {
		err = s.repo.SetTaskCompleted(ctx, taskID, t.Completed)
	}
	if err != nil {
		s.invalidate(op, taskKey(taskID))
		return models.Task{}, s.fail(ctx, OpToggleTask, err)
	}
	s.settle(op, taskKey(taskID))
	return t, nil
}

// DeleteTask deletes the task remotely and then drops it from the cache.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if _, ok := s.Task(id); !ok {
		return notCached("task", id)
	}
	if err := s.repo.DeleteTask(ctx, s.userID, id); err != nil {
		return s.fail(ctx, OpDeleteTask, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	delete(s.tasks, id)
	delete(s.completions, id)
	s.gen++
	s.stamps[taskKey(id)] = stamp{op: s.gen, gen: s.gen, deleted: true}
	s.pruneLocked()
	if ok && t.GoalID != nil {
		s.recomputeLocked(*t.GoalID)
	}
	return nil
}
