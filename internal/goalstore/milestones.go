package goalstore

import (
	"context"

	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/validation"
)

// findMilestoneLocked returns the goal owning the milestone and its index.
func (s *Store) findMilestoneLocked(id string) (models.Goal, int, bool) {
	for _, g := range s.goals {
		for i, m := range g.Milestones {
			if m.ID == id {
				return g, i, true
			}
		}
	}
	return models.Goal{}, -1, false
}

// UpdateGoalMilestone sets a milestone's completion, writes it and then
// persists the goal's recomputed progress. The two writes are sequential and
// not atomic; a failure of either refreshes the cache.
func (s *Store) UpdateGoalMilestone(ctx context.Context, milestoneID string, completed bool) (models.Goal, error) {
	s.mu.Lock()
	g, i, ok := s.findMilestoneLocked(milestoneID)
	if !ok {
		s.mu.Unlock()
		return models.Goal{}, notCached("milestone", milestoneID)
	}
	g = g.Clone()
	g.Milestones[i].Completed = completed
	m := g.Milestones[i]
	s.goals[g.ID] = g
	pct, _ := s.recomputeLocked(g.ID)
	key := goalKey(g.ID)
	op := s.touchLocked(false, key)
	view := s.goalViewLocked(s.goals[g.ID])
	s.mu.Unlock()

	if err := s.repo.UpdateMilestone(ctx, m); err != nil {
		s.invalidate(op, key)
		return models.Goal{}, s.fail(ctx, OpToggleMilestone, err)
	}
	if err := s.repo.UpdateGoalProgress(ctx, g.ID, pct); err != nil {
		s.invalidate(op, key)
		return models.Goal{}, s.fail(ctx, OpToggleMilestone, err)
	}
	s.settle(op, key)
	return view, nil
}

// AddMilestone writes a milestone for a cached goal and persists the goal's
// new progress.
func (s *Store) AddMilestone(ctx context.Context, m models.Milestone) (models.Goal, error) {
	if m.ID == "" {
		m.ID = s.newID()
	}
	if err := validation.ValidateMilestone(m).Err(); err != nil {
		return models.Goal{}, err
	}
	if _, ok := s.Goal(m.GoalID); !ok {
		return models.Goal{}, notCached("goal", m.GoalID)
	}

	if err := s.repo.AddMilestone(ctx, m); err != nil {
		return models.Goal{}, s.fail(ctx, OpAddMilestone, err)
	}

	s.mu.Lock()
	g, ok := s.goals[m.GoalID]
	if !ok {
		s.mu.Unlock()
		return models.Goal{}, notCached("goal", m.GoalID)
	}
	g = g.Clone()
	g.Milestones = append(g.Milestones, m)
	s.goals[g.ID] = g
	pct, _ := s.recomputeLocked(g.ID)
	s.commitLocked(goalKey(g.ID))
	view := s.goalViewLocked(s.goals[g.ID])
	s.mu.Unlock()

	if err := s.repo.UpdateGoalProgress(ctx, g.ID, pct); err != nil {
		return models.Goal{}, s.fail(ctx, OpAddMilestone, err)
	}
	return view, nil
}

// DeleteMilestone deletes the milestone remotely, drops it from the cache and
// persists the owning goal's recomputed progress.
func (s *Store) DeleteMilestone(ctx context.Context, id string) error {
	s.mu.RLock()
	_, _, ok := s.findMilestoneLocked(id)
	s.mu.RUnlock()
	if !ok {
		return notCached("milestone", id)
	}
	if err := s.repo.DeleteMilestone(ctx, s.userID, id); err != nil {
		return s.fail(ctx, OpDeleteMilestone, err)
	}

	s.mu.Lock()
	g, i, ok := s.findMilestoneLocked(id)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	g = g.Clone()
	g.Milestones = append(g.Milestones[:i], g.Milestones[i+1:]...)
	s.goals[g.ID] = g
	pct, _ := s.recomputeLocked(g.ID)
	s.commitLocked(goalKey(g.ID))
	s.mu.Unlock()

	if err := s.repo.UpdateGoalProgress(ctx, g.ID, pct); err != nil {
		return s.fail(ctx, OpDeleteMilestone, err)
	}
	return nil
}
