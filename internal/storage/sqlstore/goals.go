package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/goalkeeper/internal/models"
)

const goalColumns = `id, user_id, title, description, specific, measurable, achievable,
	relevant, time_bound, start_date, end_date, color, progress, created_at, updated_at`

func (s *Store) AddGoal(ctx context.Context, g models.Goal) error {
	now := time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = g.CreatedAt
	}
	_, err := s.exec(ctx, `
		INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.Description,
		g.SmartGoal.Specific, g.SmartGoal.Measurable, g.SmartGoal.Achievable,
		g.SmartGoal.Relevant, g.SmartGoal.TimeBound,
		g.StartDate, emptyToNull(g.EndDate), g.Color, g.Progress,
		formatTime(g.CreatedAt), formatTime(g.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

func scanGoal(row scanner) (models.Goal, error) {
	var g models.Goal
	var endDate sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description,
		&g.SmartGoal.Specific, &g.SmartGoal.Measurable, &g.SmartGoal.Achievable,
		&g.SmartGoal.Relevant, &g.SmartGoal.TimeBound,
		&g.StartDate, &endDate, &g.Color, &g.Progress, &createdAt, &updatedAt)
	if err != nil {
		return models.Goal{}, err
	}
	g.EndDate = endDate.String
	if g.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Goal{}, err
	}
	if g.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.Goal{}, err
	}
	return g, nil
}

func (s *Store) GetGoal(ctx context.Context, id string) (models.Goal, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+goalColumns+` FROM goals WHERE id = ?`), id)
	g, err := scanGoal(row)
	if err != nil {
		return models.Goal{}, mapNoRows(err, "goal")
	}

	if g.Tasks, err = s.ListTasksByGoal(ctx, id); err != nil {
		return models.Goal{}, err
	}
	if g.Milestones, err = s.ListMilestones(ctx, id); err != nil {
		return models.Goal{}, err
	}
	reflections, err := s.ListReflections(ctx, g.UserID)
	if err != nil {
		return models.Goal{}, err
	}
	resources, err := s.ListResources(ctx, g.UserID)
	if err != nil {
		return models.Goal{}, err
	}
	attachJournal(map[string]*models.Goal{g.ID: &g}, reflections, resources)
	initChildren(&g)
	return g, nil
}

// ListGoals returns the user's goals, newest first, with their children.
// Children are loaded with one query per table rather than one per goal.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at DESC, id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return goals, nil
	}

	byID := make(map[string]*models.Goal, len(goals))
	for i := range goals {
		byID[goals[i].ID] = &goals[i]
	}

	tasks, err := s.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.GoalID == nil {
			continue
		}
		if g, ok := byID[*t.GoalID]; ok {
			g.Tasks = append(g.Tasks, t)
		}
	}

	milestones, err := s.listMilestonesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, m := range milestones {
		if g, ok := byID[m.GoalID]; ok {
			g.Milestones = append(g.Milestones, m)
		}
	}

	reflections, err := s.ListReflections(ctx, userID)
	if err != nil {
		return nil, err
	}
	resources, err := s.ListResources(ctx, userID)
	if err != nil {
		return nil, err
	}
	attachJournal(byID, reflections, resources)

	for i := range goals {
		initChildren(&goals[i])
	}
	return goals, nil
}

func attachJournal(byID map[string]*models.Goal, reflections []models.Reflection, resources []models.Resource) {
	for _, r := range reflections {
		if r.GoalID == nil {
			continue
		}
		if g, ok := byID[*r.GoalID]; ok {
			g.Reflections = append(g.Reflections, r)
		}
	}
	for _, r := range resources {
		if r.GoalID == nil {
			continue
		}
		if g, ok := byID[*r.GoalID]; ok {
			g.Resources = append(g.Resources, r)
		}
	}
}

// initChildren replaces nil child slices with empty ones so goals encode as
// [] rather than null.
func initChildren(g *models.Goal) {
	if g.Tasks == nil {
		g.Tasks = []models.Task{}
	}
	if g.Milestones == nil {
		g.Milestones = []models.Milestone{}
	}
	if g.Reflections == nil {
		g.Reflections = []models.Reflection{}
	}
	if g.Resources == nil {
		g.Resources = []models.Resource{}
	}
}

func (s *Store) UpdateGoal(ctx context.Context, g models.Goal) error {
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = time.Now()
	}
	return s.execOne(ctx, s.db, "goal", `
		UPDATE goals SET title = ?, description = ?, specific = ?, measurable = ?,
			achievable = ?, relevant = ?, time_bound = ?, start_date = ?, end_date = ?,
			color = ?, progress = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		g.Title, g.Description, g.SmartGoal.Specific, g.SmartGoal.Measurable,
		g.SmartGoal.Achievable, g.SmartGoal.Relevant, g.SmartGoal.TimeBound,
		g.StartDate, emptyToNull(g.EndDate), g.Color, g.Progress,
		formatTime(g.UpdatedAt), g.ID, g.UserID)
}

func (s *Store) UpdateGoalProgress(ctx context.Context, id string, progress int) error {
	return s.execOne(ctx, s.db, "goal",
		`UPDATE goals SET progress = ?, updated_at = ? WHERE id = ?`,
		progress, formatTime(time.Now()), id)
}

// DeleteGoal removes the goal row only. Owned tasks and milestones are
// deleted by the caller.
func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.execOne(ctx, s.db, "goal", `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
}
