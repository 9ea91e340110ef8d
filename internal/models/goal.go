package models

import "time"

type SmartGoal struct {
	Specific   string `json:"specific"`
	Measurable string `json:"measurable"`
	Achievable string `json:"achievable"`
	Relevant   string `json:"relevant"`
	TimeBound  string `json:"time_bound"`
}

type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	SmartGoal   SmartGoal `json:"smart_goal"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date,omitempty"`
	Color       string    `json:"color,omitempty"`
	Progress    int       `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Tasks       []Task       `json:"tasks"`
	Milestones  []Milestone  `json:"milestones"`
	Reflections []Reflection `json:"reflections"`
	Resources   []Resource   `json:"resources"`
}

type Milestone struct {
	ID         string `json:"id"`
	GoalID     string `json:"goal_id"`
	Title      string `json:"title"`
	TargetDate string `json:"target_date"`
	Completed  bool   `json:"completed"`
}

type Reflection struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GoalID    *string   `json:"goal_id"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Resource struct {
	ID     string  `json:"id"`
	UserID string  `json:"user_id"`
	GoalID *string `json:"goal_id"`
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Kind   string  `json:"kind,omitempty"`
}

// Clone returns a copy of the goal whose child slices do not alias g's.
func (g Goal) Clone() Goal {
	out := g
	out.Tasks = append([]Task(nil), g.Tasks...)
	out.Milestones = append([]Milestone(nil), g.Milestones...)
	out.Reflections = append([]Reflection(nil), g.Reflections...)
	out.Resources = append([]Resource(nil), g.Resources...)
	return out
}
