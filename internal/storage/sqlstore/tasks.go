package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/models"
)

const taskColumns = `id, user_id, goal_id, title, type, weekday, date, completed, created_at`

// taskRow flattens a task's schedule into its stored columns.
func taskRow(t models.Task) ([]any, error) {
	if t.Schedule == nil {
		return nil, fmt.Errorf("task %s has no schedule", t.ID)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	var weekday sql.NullInt64
	if wd, ok := t.Weekday(); ok {
		weekday = sql.NullInt64{Int64: int64(wd), Valid: true}
	}
	return []any{
		t.ID, t.UserID, nullString(t.GoalID), t.Title, string(t.Type()),
		weekday, t.Date(), t.Completed, formatTime(t.CreatedAt),
	}, nil
}

func scanTask(row scanner) (models.Task, error) {
	var t models.Task
	var goalID sql.NullString
	var taskType, date, createdAt string
	var weekday sql.NullInt64
	if err := row.Scan(&t.ID, &t.UserID, &goalID, &t.Title, &taskType, &weekday, &date, &t.Completed, &createdAt); err != nil {
		return models.Task{}, err
	}
	t.GoalID = stringPtr(goalID)

	var wd *int
	if weekday.Valid {
		v := int(weekday.Int64)
		wd = &v
	}
	schedule, err := models.ScheduleFromParts(constants.TaskType(taskType), wd, date)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.Schedule = schedule

	if t.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) insertTask(ctx context.Context, e execer, t models.Task) error {
	args, err := taskRow(t)
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx, s.q(`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`), args...)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (s *Store) AddTask(ctx context.Context, t models.Task) error {
	return s.insertTask(ctx, s.db, t)
}

// AddTasks inserts all tasks in one transaction.
func (s *Store) AddTasks(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tasks {
			if err := s.insertTask(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	t, err := scanTask(row)
	if err != nil {
		return models.Task{}, mapNoRows(err, "task")
	}
	return t, nil
}

func (s *Store) queryTasks(ctx context.Context, where string, arg any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+taskColumns+` FROM tasks WHERE `+where+` ORDER BY created_at, id`), arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	return s.queryTasks(ctx, "user_id = ?", userID)
}

func (s *Store) ListTasksByGoal(ctx context.Context, goalID string) ([]models.Task, error) {
	return s.queryTasks(ctx, "goal_id = ?", goalID)
}

func (s *Store) UpdateTask(ctx context.Context, t models.Task) error {
	args, err := taskRow(t)
	if err != nil {
		return err
	}
	// args: id, user_id, goal_id, title, type, weekday, date, completed, created_at
	return s.execOne(ctx, s.db, "task", `
		UPDATE tasks SET goal_id = ?, title = ?, type = ?, weekday = ?, date = ?, completed = ?
		WHERE id = ? AND user_id = ?`,
		args[2], args[3], args[4], args[5], args[6], args[7], t.ID, t.UserID)
}

// SetTaskCompleted updates the row flag. Only custom tasks use it; recurring
// tasks record completion per day.
func (s *Store) SetTaskCompleted(ctx context.Context, id string, completed bool) error {
	return s.execOne(ctx, s.db, "task", `UPDATE tasks SET completed = ? WHERE id = ?`, completed, id)
}

func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.execOne(ctx, tx, "task", `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.q(`DELETE FROM task_completions WHERE task_id = ?`), id)
		return err
	})
}

func (s *Store) DeleteTasksByGoal(ctx context.Context, userID, goalID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`
			DELETE FROM task_completions
			WHERE task_id IN (SELECT id FROM tasks WHERE goal_id = ? AND user_id = ?)`), goalID, userID); err != nil {
			return fmt.Errorf("failed to delete task completions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM tasks WHERE goal_id = ? AND user_id = ?`), goalID, userID); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		return nil
	})
}
