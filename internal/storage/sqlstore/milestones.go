package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/goalkeeper/internal/models"
)

const milestoneColumns = `id, goal_id, title, target_date, completed`

func scanMilestone(row scanner) (models.Milestone, error) {
	var m models.Milestone
	err := row.Scan(&m.ID, &m.GoalID, &m.Title, &m.TargetDate, &m.Completed)
	return m, err
}

func (s *Store) insertMilestone(ctx context.Context, e execer, m models.Milestone) error {
	_, err := e.ExecContext(ctx, s.q(`INSERT INTO milestones (`+milestoneColumns+`) VALUES (?, ?, ?, ?, ?)`),
		m.ID, m.GoalID, m.Title, m.TargetDate, m.Completed)
	if err != nil {
		return fmt.Errorf("failed to insert milestone: %w", err)
	}
	return nil
}

func (s *Store) AddMilestone(ctx context.Context, m models.Milestone) error {
	return s.insertMilestone(ctx, s.db, m)
}

func (s *Store) AddMilestones(ctx context.Context, ms []models.Milestone) error {
	if len(ms) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, m := range ms {
			if err := s.insertMilestone(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetMilestone(ctx context.Context, id string) (models.Milestone, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+milestoneColumns+` FROM milestones WHERE id = ?`), id)
	m, err := scanMilestone(row)
	if err != nil {
		return models.Milestone{}, mapNoRows(err, "milestone")
	}
	return m, nil
}

func (s *Store) collectMilestones(rows *sql.Rows) ([]models.Milestone, error) {
	defer rows.Close()
	out := []models.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ListMilestones(ctx context.Context, goalID string) ([]models.Milestone, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+milestoneColumns+` FROM milestones WHERE goal_id = ? ORDER BY target_date, id`), goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	return s.collectMilestones(rows)
}

func (s *Store) listMilestonesForUser(ctx context.Context, userID string) ([]models.Milestone, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT m.id, m.goal_id, m.title, m.target_date, m.completed
		FROM milestones m JOIN goals g ON g.id = m.goal_id
		WHERE g.user_id = ?
		ORDER BY m.target_date, m.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	return s.collectMilestones(rows)
}

func (s *Store) UpdateMilestone(ctx context.Context, m models.Milestone) error {
	return s.execOne(ctx, s.db, "milestone",
		`UPDATE milestones SET title = ?, target_date = ?, completed = ? WHERE id = ?`,
		m.Title, m.TargetDate, m.Completed, m.ID)
}

func (s *Store) DeleteMilestone(ctx context.Context, userID, id string) error {
	return s.execOne(ctx, s.db, "milestone", `
		DELETE FROM milestones
		WHERE id = ? AND goal_id IN (SELECT id FROM goals WHERE user_id = ?)`, id, userID)
}

func (s *Store) DeleteMilestonesByGoal(ctx context.Context, userID, goalID string) error {
	if _, err := s.exec(ctx, `
		DELETE FROM milestones
		WHERE goal_id = ? AND goal_id IN (SELECT id FROM goals WHERE user_id = ?)`, goalID, userID); err != nil {
		return fmt.Errorf("failed to delete milestones: %w", err)
	}
	return nil
}
