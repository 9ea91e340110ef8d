package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/goalkeeper/internal/models"
)

func (s *Store) AddReflection(ctx context.Context, r models.Reflection) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.exec(ctx, `
		INSERT INTO reflections (id, user_id, goal_id, content, mood, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, nullString(r.GoalID), r.Content, r.Mood, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert reflection: %w", err)
	}
	return nil
}

func (s *Store) ListReflections(ctx context.Context, userID string) ([]models.Reflection, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, user_id, goal_id, content, mood, created_at
		FROM reflections WHERE user_id = ? ORDER BY created_at DESC, id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reflections: %w", err)
	}
	defer rows.Close()

	out := []models.Reflection{}
	for rows.Next() {
		var r models.Reflection
		var goalID sql.NullString
		var createdAt string
		if err := rows.Scan(&r.ID, &r.UserID, &goalID, &r.Content, &r.Mood, &createdAt); err != nil {
			return nil, err
		}
		r.GoalID = stringPtr(goalID)
		if r.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) AddResource(ctx context.Context, r models.Resource) error {
	_, err := s.exec(ctx, `
		INSERT INTO resources (id, user_id, goal_id, title, url, kind)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, nullString(r.GoalID), r.Title, r.URL, r.Kind)
	if err != nil {
		return fmt.Errorf("failed to insert resource: %w", err)
	}
	return nil
}

func (s *Store) ListResources(ctx context.Context, userID string) ([]models.Resource, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, user_id, goal_id, title, url, kind
		FROM resources WHERE user_id = ? ORDER BY title, id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	out := []models.Resource{}
	for rows.Next() {
		var r models.Resource
		var goalID sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &goalID, &r.Title, &r.URL, &r.Kind); err != nil {
			return nil, err
		}
		r.GoalID = stringPtr(goalID)
		out = append(out, r)
	}
	return out, rows.Err()
}
