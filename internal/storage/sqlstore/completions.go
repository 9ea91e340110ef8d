package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/goalkeeper/internal/models"
)

const completionColumns = `id, task_id, user_id, completion_date, completed`

// UpsertCompletion writes the completion for (TaskID, Date). An existing row
// keeps its ID and takes the new Completed value.
func (s *Store) UpsertCompletion(ctx context.Context, c models.TaskCompletion) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.exec(ctx, `
		INSERT INTO task_completions (id, task_id, user_id, completion_date, completed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (task_id, completion_date) DO UPDATE SET
			completed = excluded.completed,
			updated_at = excluded.updated_at`,
		c.ID, c.TaskID, c.UserID, c.Date, c.Completed, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to upsert task completion: %w", err)
	}
	return nil
}

func (s *Store) GetCompletion(ctx context.Context, taskID, date string) (models.TaskCompletion, error) {
	var c models.TaskCompletion
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT `+completionColumns+` FROM task_completions
		WHERE task_id = ? AND completion_date = ?`), taskID, date).
		Scan(&c.ID, &c.TaskID, &c.UserID, &c.Date, &c.Completed)
	if err != nil {
		return models.TaskCompletion{}, mapNoRows(err, "task completion")
	}
	return c, nil
}

func (s *Store) ListCompletionsForDay(ctx context.Context, userID, date string) ([]models.TaskCompletion, error) {
	return s.ListCompletionsForRange(ctx, userID, date, date)
}

// ListCompletionsForRange returns completions with from <= date <= to.
// Dates compare as strings, so rows holding malformed dates may be included
// and are left for the caller to drop.
func (s *Store) ListCompletionsForRange(ctx context.Context, userID, from, to string) ([]models.TaskCompletion, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+completionColumns+` FROM task_completions
		WHERE user_id = ? AND completion_date >= ? AND completion_date <= ?
		ORDER BY completion_date, task_id`), userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query task completions: %w", err)
	}
	defer rows.Close()

	out := []models.TaskCompletion{}
	for rows.Next() {
		var c models.TaskCompletion
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Date, &c.Completed); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
