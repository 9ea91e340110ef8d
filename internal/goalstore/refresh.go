package goalstore

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/recurrence"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// Refresh reloads goals, tasks and today's completions from the repository.
//
// Entities changed locally after the refresh began, or whose writes are still
// in flight, keep their local version. A refresh that finishes after a newer
// one has been applied is discarded.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	started := s.gen
	s.refreshing++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.refreshing--
		s.pruneLocked()
		s.mu.Unlock()
	}()

	today := utils.Today(s.now())

	var (
		goals       []models.Goal
		tasks       []models.Task
		completions []models.TaskCompletion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		goals, err = s.repo.ListGoals(gctx, s.userID)
		if err != nil {
			return fmt.Errorf("failed to load goals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tasks, err = s.repo.ListTasks(gctx, s.userID)
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		completions, err = s.repo.ListCompletionsForDay(gctx, s.userID, today)
		if err != nil {
			return fmt.Errorf("failed to load completions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	ix := recurrence.NewCompletionIndex(completions)
	tasks = recurrence.MergeToday(tasks, ix, today)

	nextGoals := make(map[string]models.Goal, len(goals))
	for _, goal := range goals {
		goal.Tasks = nil
		nextGoals[goal.ID] = goal
	}
	nextTasks := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		nextTasks[t.ID] = t
	}
	nextCompletions := make(map[string]models.TaskCompletion, len(completions))
	for _, c := range completions {
		if c.Date == today {
			nextCompletions[c.TaskID] = c
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if started < s.appliedAt {
		return nil
	}
	s.appliedAt = started

	for key, st := range s.stamps {
		if !st.pending && st.gen <= started {
			delete(s.stamps, key)
			continue
		}
		kind, id := splitKey(key)
		switch kind {
		case "goal":
			if local, ok := s.goals[id]; ok && !st.deleted {
				nextGoals[id] = local
			} else {
				delete(nextGoals, id)
			}
		case "task":
			if local, ok := s.tasks[id]; ok && !st.deleted {
				if s.today != today && local.IsRecurring() {
					local.Completed = false
				}
				nextTasks[id] = local
				if c, ok := s.completions[id]; ok && s.today == today {
					nextCompletions[id] = c
				}
			} else {
				delete(nextTasks, id)
				delete(nextCompletions, id)
			}
		}
	}

	s.goals = nextGoals
	s.tasks = nextTasks
	s.completions = nextCompletions
	s.today = today
	for id := range s.goals {
		s.recomputeLocked(id)
	}
	return nil
}
