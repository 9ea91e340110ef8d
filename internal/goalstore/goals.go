package goalstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/goalkeeper/internal/metrics"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/progress"
	"github.com/julianstephens/goalkeeper/internal/saga"
	"github.com/julianstephens/goalkeeper/internal/validation"
)

const (
	OpCreateGoal      = "create_goal"
	OpCreatePlan      = "create_goal_with_plan"
	OpUpdateGoal      = "update_goal"
	OpDeleteGoal      = "delete_goal"
	OpToggleTask      = "toggle_task"
	OpToggleMilestone = "toggle_milestone"
	OpAddTask         = "add_task"
	OpDeleteTask      = "delete_task"
	OpAddMilestone    = "add_milestone"
	OpDeleteMilestone = "delete_milestone"
)

// prepareGoal fills in the fields the store owns.
func (s *Store) prepareGoal(g *models.Goal) {
	now := s.now()
	if g.ID == "" {
		g.ID = s.newID()
	}
	g.UserID = s.userID
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
}

// commitLocked stamps keys as written and settled.
func (s *Store) commitLocked(keys ...string) {
	s.gen++
	for _, k := range keys {
		s.stamps[k] = stamp{op: s.gen, gen: s.gen}
	}
	s.pruneLocked()
}

// CreateGoal writes the goal and caches it once the write succeeds.
func (s *Store) CreateGoal(ctx context.Context, g models.Goal) (models.Goal, error) {
	s.prepareGoal(&g)
	g.Tasks, g.Milestones = nil, nil
	if err := validation.ValidateGoal(g).Err(); err != nil {
		return models.Goal{}, err
	}

	if err := s.repo.AddGoal(ctx, g); err != nil {
		return models.Goal{}, s.fail(ctx, OpCreateGoal, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g.Progress = 0
	g.Milestones = []models.Milestone{}
	s.goals[g.ID] = g
	s.commitLocked(goalKey(g.ID))
	return s.goalViewLocked(g), nil
}

// CreateGoalWithPlan writes a goal with its milestones and tasks. Only
// recurring tasks are kept. If any write fails the completed ones are undone
// and a *saga.PartialFailure is returned.
func (s *Store) CreateGoalWithPlan(ctx context.Context, g models.Goal, milestones []models.Milestone, tasks []models.Task) (models.Goal, error) {
	s.prepareGoal(&g)
	if err := validation.ValidateGoal(g).Err(); err != nil {
		return models.Goal{}, err
	}

	ms := make([]models.Milestone, 0, len(milestones))
	for _, m := range milestones {
		if m.ID == "" {
			m.ID = s.newID()
		}
		m.GoalID = g.ID
		if err := validation.ValidateMilestone(m).Err(); err != nil {
			return models.Goal{}, err
		}
		ms = append(ms, m)
	}

	goalID := g.ID
	ts := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsRecurring() {
			continue
		}
		if t.ID == "" {
			t.ID = s.newID()
		}
		t.UserID = s.userID
		t.GoalID = &goalID
		t.Completed = false
		if t.CreatedAt.IsZero() {
			t.CreatedAt = g.CreatedAt
		}
		if validation.ValidateTask(t).HasConflicts() {
			continue
		}
		ts = append(ts, t)
	}

	g.Milestones, g.Tasks = ms, ts
	g.Progress = progress.ForGoal(g)
	g.Tasks, g.Milestones = nil, nil

	run := saga.New(OpCreatePlan,
		saga.Step{
			Name:       "goal",
			Do:         func(ctx context.Context) error { return s.repo.AddGoal(ctx, g) },
			Compensate: func(ctx context.Context) error { return s.repo.DeleteGoal(ctx, s.userID, goalID) },
		},
		saga.Step{
			Name:       "milestones",
			Do:         func(ctx context.Context) error { return s.repo.AddMilestones(ctx, ms) },
			Compensate: func(ctx context.Context) error { return s.repo.DeleteMilestonesByGoal(ctx, s.userID, goalID) },
		},
		saga.Step{
			Name:       "tasks",
			Do:         func(ctx context.Context) error { return s.repo.AddTasks(ctx, ts) },
			Compensate: func(ctx context.Context) error { return s.repo.DeleteTasksByGoal(ctx, s.userID, goalID) },
		},
	)
	if err := run.Run(ctx); err != nil {
		metrics.Get().SagaFailures.WithLabelValues(OpCreatePlan).Inc()
		return models.Goal{}, s.fail(ctx, OpCreatePlan, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g.Milestones = ms
	s.goals[g.ID] = g
	keys := []string{goalKey(g.ID)}
	for _, t := range ts {
		s.tasks[t.ID] = t
		keys = append(keys, taskKey(t.ID))
	}
	s.commitLocked(keys...)
	s.recomputeLocked(g.ID)
	return s.goalViewLocked(s.goals[g.ID]), nil
}

// UpdateGoal applies the goal's own fields locally, then writes them. Owned
// collections are not replaced.
func (s *Store) UpdateGoal(ctx context.Context, g models.Goal) (models.Goal, error) {
	s.mu.Lock()
	cur, ok := s.goals[g.ID]
	if !ok {
		s.mu.Unlock()
		return models.Goal{}, notCached("goal", g.ID)
	}
	next := cur
	next.Title = g.Title
	next.Description = g.Description
	next.SmartGoal = g.SmartGoal
	next.StartDate = g.StartDate
	next.EndDate = g.EndDate
	next.Color = g.Color
	next.UpdatedAt = s.now()
	if err := validation.ValidateGoal(next).Err(); err != nil {
		s.mu.Unlock()
		return models.Goal{}, err
	}
	s.goals[g.ID] = next
	op := s.touchLocked(false, goalKey(g.ID))
	view := s.goalViewLocked(next)
	s.mu.Unlock()

	if err := s.repo.UpdateGoal(ctx, next); err != nil {
		s.invalidate(op, goalKey(g.ID))
		return models.Goal{}, s.fail(ctx, OpUpdateGoal, err)
	}
	s.settle(op, goalKey(g.ID))
	return view, nil
}

// DeleteGoal removes the goal and everything it owns from the cache, then
// deletes tasks, milestones and the goal remotely. Every remote delete is
// attempted; when some fail the returned *saga.PartialFailure names them and
// the cache stays cleared. Goals outside this user's cache are not found.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.goals[id]; !ok {
		s.mu.Unlock()
		return notCached("goal", id)
	}
	delete(s.goals, id)
	keys := []string{goalKey(id)}
	for tid, t := range s.tasks {
		if t.BelongsTo(id) {
			delete(s.tasks, tid)
			delete(s.completions, tid)
			keys = append(keys, taskKey(tid))
		}
	}
	op := s.touchLocked(true, keys...)
	s.mu.Unlock()

	run := &saga.Saga{
		Name: OpDeleteGoal,
		Mode: saga.ContinueOnError,
		Steps: []saga.Step{
			{Name: "tasks", Do: func(ctx context.Context) error { return s.repo.DeleteTasksByGoal(ctx, s.userID, id) }},
			{Name: "milestones", Do: func(ctx context.Context) error { return s.repo.DeleteMilestonesByGoal(ctx, s.userID, id) }},
			{Name: "goal", Do: func(ctx context.Context) error { return s.repo.DeleteGoal(ctx, s.userID, id) }},
		},
	}
	err := run.Run(ctx)
	s.settle(op, keys...)
	if err != nil {
		metrics.Get().SagaFailures.WithLabelValues(OpDeleteGoal).Inc()
		s.notify(Notification{Op: OpDeleteGoal, Err: err})
		var pf *saga.PartialFailure
		if errors.As(err, &pf) {
			return pf
		}
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}
