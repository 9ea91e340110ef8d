package goalstore

import (
	"context"

	"github.com/julianstephens/goalkeeper/internal/models"
)

// AddReflection writes a journal entry and attaches it to its goal, if any.
func (s *Store) AddReflection(ctx context.Context, r models.Reflection) (models.Reflection, error) {
	if r.ID == "" {
		r.ID = s.newID()
	}
	r.UserID = s.userID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	if err := s.repo.AddReflection(ctx, r); err != nil {
		return models.Reflection{}, err
	}
	if r.GoalID != nil {
		s.mu.Lock()
		if g, ok := s.goals[*r.GoalID]; ok {
			g = g.Clone()
			g.Reflections = append(g.Reflections, r)
			s.goals[g.ID] = g
		}
		s.mu.Unlock()
	}
	return r, nil
}

func (s *Store) AddResource(ctx context.Context, r models.Resource) (models.Resource, error) {
	if r.ID == "" {
		r.ID = s.newID()
	}
	r.UserID = s.userID
	if err := s.repo.AddResource(ctx, r); err != nil {
		return models.Resource{}, err
	}
	if r.GoalID != nil {
		s.mu.Lock()
		if g, ok := s.goals[*r.GoalID]; ok {
			g = g.Clone()
			g.Resources = append(g.Resources, r)
			s.goals[g.ID] = g
		}
		s.mu.Unlock()
	}
	return r, nil
}
