package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
)

// Schedule is the recurrence rule of a task. It is a closed set: Daily,
// Weekly and Custom are its only implementations, so a weekday can only exist
// on a weekly task and an instance date only on a custom one.
type Schedule interface {
	Type() constants.TaskType
	isSchedule()
}

// Daily tasks occur every day from their creation day onward.
type Daily struct{}

// Weekly tasks occur on one weekday (0=Sunday..6=Saturday).
type Weekly struct {
	Weekday time.Weekday
}

// Custom tasks occur once, on Date (YYYY-MM-DD).
type Custom struct {
	Date string
}

func (Daily) Type() constants.TaskType  { return constants.TaskTypeDaily }
func (Weekly) Type() constants.TaskType { return constants.TaskTypeWeekly }
func (Custom) Type() constants.TaskType { return constants.TaskTypeCustom }

func (Daily) isSchedule()  {}
func (Weekly) isSchedule() {}
func (Custom) isSchedule() {}

type Task struct {
	ID        string
	UserID    string
	GoalID    *string // nil for general tasks
	Title     string
	Schedule  Schedule
	Completed bool // row flag for custom tasks, today's completion for recurring ones
	CreatedAt time.Time
}

// NewDailyTask creates a daily task created at the given time.
func NewDailyTask(id, userID, title string, createdAt time.Time) Task {
	return Task{ID: id, UserID: userID, Title: title, Schedule: Daily{}, CreatedAt: createdAt}
}

// NewWeeklyTask creates a task recurring on the given weekday.
func NewWeeklyTask(id, userID, title string, weekday time.Weekday, createdAt time.Time) Task {
	return Task{ID: id, UserID: userID, Title: title, Schedule: Weekly{Weekday: weekday}, CreatedAt: createdAt}
}

// NewCustomTask creates a one-off task on date (YYYY-MM-DD).
func NewCustomTask(id, userID, title, date string, createdAt time.Time) Task {
	return Task{ID: id, UserID: userID, Title: title, Schedule: Custom{Date: date}, CreatedAt: createdAt}
}

// Type returns the task's discriminant. A task without a schedule reports an
// empty type.
func (t Task) Type() constants.TaskType {
	if t.Schedule == nil {
		return ""
	}
	return t.Schedule.Type()
}

// IsRecurring reports whether completion is tracked per day.
func (t Task) IsRecurring() bool {
	switch t.Schedule.(type) {
	case Daily, Weekly:
		return true
	default:
		return false
	}
}

// Weekday returns the weekday of a weekly task.
func (t Task) Weekday() (time.Weekday, bool) {
	if w, ok := t.Schedule.(Weekly); ok {
		return w.Weekday, true
	}
	return 0, false
}

// Date returns the instance date for custom tasks and the creation day for
// everything else.
func (t Task) Date() string {
	if c, ok := t.Schedule.(Custom); ok {
		return c.Date
	}
	if t.CreatedAt.IsZero() {
		return ""
	}
	return t.CreatedAt.Format(constants.DateFormat)
}

// BelongsTo reports whether the task is owned by the goal.
func (t Task) BelongsTo(goalID string) bool {
	return t.GoalID != nil && *t.GoalID == goalID
}

// ScheduleFromParts rebuilds a schedule from its stored columns.
func ScheduleFromParts(taskType constants.TaskType, weekday *int, date string) (Schedule, error) {
	switch taskType {
	case constants.TaskTypeDaily:
		return Daily{}, nil
	case constants.TaskTypeWeekly:
		if weekday == nil {
			return nil, fmt.Errorf("weekly task requires a weekday")
		}
		if *weekday < 0 || *weekday > 6 {
			return nil, fmt.Errorf("invalid weekday %d: must be between 0 (Sunday) and 6 (Saturday)", *weekday)
		}
		return Weekly{Weekday: time.Weekday(*weekday)}, nil
	case constants.TaskTypeCustom:
		if date == "" {
			return nil, fmt.Errorf("custom task requires a date")
		}
		return Custom{Date: date}, nil
	default:
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}
}

// taskJSON is the wire shape used by the HTTP API.
type taskJSON struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	GoalID    *string            `json:"goal_id"`
	Title     string             `json:"title"`
	Type      constants.TaskType `json:"type"`
	Weekday   *int               `json:"weekday,omitempty"`
	Date      string             `json:"date,omitempty"`
	Completed bool               `json:"completed"`
	CreatedAt time.Time          `json:"created_at"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	out := taskJSON{
		ID:        t.ID,
		UserID:    t.UserID,
		GoalID:    t.GoalID,
		Title:     t.Title,
		Type:      t.Type(),
		Date:      t.Date(),
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
	}
	if wd, ok := t.Weekday(); ok {
		w := int(wd)
		out.Weekday = &w
	}
	return json.Marshal(out)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var in taskJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Type == "" {
		in.Type = constants.TaskTypeCustom
	}
	schedule, err := ScheduleFromParts(in.Type, in.Weekday, in.Date)
	if err != nil {
		return err
	}
	*t = Task{
		ID:        in.ID,
		UserID:    in.UserID,
		GoalID:    in.GoalID,
		Title:     in.Title,
		Schedule:  schedule,
		Completed: in.Completed,
		CreatedAt: in.CreatedAt,
	}
	return nil
}

// TaskCompletion records whether a recurring task was done on one day.
// (TaskID, Date) is unique.
type TaskCompletion struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	UserID    string `json:"user_id"`
	Date      string `json:"completion_date"`
	Completed bool   `json:"completed"`
}
