package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictMissingField    ConflictType = "missing_field"
	ConflictInvalidDate     ConflictType = "invalid_date"
	ConflictInvertedRange   ConflictType = "inverted_range"
	ConflictInvalidWeekday  ConflictType = "invalid_weekday"
	ConflictInvalidSchedule ConflictType = "invalid_schedule"
)

// Conflict represents one problem found in an entity
type Conflict struct {
	Type        ConflictType
	Field       string
	Description string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Err returns nil when there are no conflicts, otherwise a single error
// listing every conflict description.
func (vr ValidationResult) Err() error {
	if !vr.HasConflicts() {
		return nil
	}
	msgs := make([]string, len(vr.Conflicts))
	for i, c := range vr.Conflicts {
		msgs[i] = c.Description
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// ErrInvalid wraps every error returned by ValidationResult.Err.
var ErrInvalid = errors.New("validation failed")

func (vr *ValidationResult) add(t ConflictType, field, format string, args ...interface{}) {
	vr.Conflicts = append(vr.Conflicts, Conflict{Type: t, Field: field, Description: fmt.Sprintf(format, args...)})
}

func (vr *ValidationResult) requireText(field, value string) {
	if strings.TrimSpace(value) == "" {
		vr.add(ConflictMissingField, field, "%s is required", field)
	}
}

func (vr *ValidationResult) requireDate(field, value string) bool {
	if _, err := utils.ParseDate(value); err != nil {
		vr.add(ConflictInvalidDate, field, "%s %q is not a valid YYYY-MM-DD date", field, value)
		return false
	}
	return true
}

// ValidateGoal checks a goal's own fields. Nested collections are not
// inspected.
func ValidateGoal(g models.Goal) ValidationResult {
	var vr ValidationResult
	vr.requireText("title", g.Title)

	startOK := g.StartDate != "" && vr.requireDate("start_date", g.StartDate)
	if g.StartDate == "" {
		vr.add(ConflictMissingField, "start_date", "start_date is required")
	}
	if g.EndDate != "" && vr.requireDate("end_date", g.EndDate) && startOK {
		if g.EndDate < g.StartDate {
			vr.add(ConflictInvertedRange, "end_date", "end_date %s is before start_date %s", g.EndDate, g.StartDate)
		}
	}
	return vr
}

// ValidateTask checks a task's title and schedule.
func ValidateTask(t models.Task) ValidationResult {
	var vr ValidationResult
	vr.requireText("title", t.Title)

	switch s := t.Schedule.(type) {
	case models.Daily:
	case models.Weekly:
		if s.Weekday < 0 || s.Weekday > 6 {
			vr.add(ConflictInvalidWeekday, "weekday", "weekday %d must be between 0 (Sunday) and 6 (Saturday)", s.Weekday)
		}
	case models.Custom:
		vr.requireDate("date", s.Date)
	default:
		vr.add(ConflictInvalidSchedule, "type", "task has no schedule")
	}
	return vr
}

// ValidateMilestone checks a milestone's title and target date.
func ValidateMilestone(m models.Milestone) ValidationResult {
	var vr ValidationResult
	vr.requireText("title", m.Title)
	vr.requireDate("target_date", m.TargetDate)
	return vr
}

// ValidatePlan checks that a generated plan carries the parts needed to
// create a goal from it. A nil slice means the key was absent; an empty one
// is accepted.
func ValidatePlan[M, T any](specific string, milestones []M, tasks []T) ValidationResult {
	var vr ValidationResult
	if strings.TrimSpace(specific) == "" {
		vr.add(ConflictMissingField, "smartGoal.specific", "missing SMART goal data")
	}
	if milestones == nil {
		vr.add(ConflictMissingField, "milestones", "missing milestones data")
	}
	if tasks == nil {
		vr.add(ConflictMissingField, "tasks", "missing tasks data")
	}
	return vr
}
