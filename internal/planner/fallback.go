package planner

import (
	"fmt"
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// Fallback builds a static plan from the user's own answers. It is used
// whenever generation fails, so it always produces a valid plan.
func Fallback(req Request, now time.Time) Plan {
	start := req.start(now)
	target := req.target(start)
	span := target.Sub(start)

	at := func(num, den int64) string {
		return utils.FormatDate(utils.Day(start.Add(time.Duration(int64(span) * num / den))))
	}

	specific := req.Specific
	if specific == "" {
		specific = req.Title
	}
	sunday, wednesday := int(time.Sunday), int(time.Wednesday)

	return Plan{
		SmartGoal: SmartGoal{
			Specific:   specific,
			Measurable: "Complete the daily practice and reach each milestone by its date",
			Achievable: "The work is split into small daily and weekly steps",
			Relevant:   req.Reasoning,
			TimeBound:  "Reach the goal by " + target.Format(constants.DisplayDateFormat),
		},
		Milestones: []Milestone{
			{Title: fmt.Sprintf("Build the habit: %s", req.Title), Date: at(1, 3)},
			{Title: "Halfway review of progress", Date: at(2, 3)},
			{Title: req.Title, Date: utils.FormatDate(target)},
		},
		Tasks: []Task{
			{Title: fmt.Sprintf("Spend 30 minutes on %s", req.Title), Type: constants.TaskTypeDaily, Date: utils.FormatDate(start)},
			{Title: "Write down what you did today", Type: constants.TaskTypeDaily, Date: utils.FormatDate(start)},
			{Title: "Review the week and plan the next one", Type: constants.TaskTypeWeekly, Weekday: &sunday, Date: utils.FormatDate(start)},
			{Title: "Longer focused session", Type: constants.TaskTypeWeekly, Weekday: &wednesday, Date: utils.FormatDate(start)},
		},
	}
}

// FallbackResult wraps Fallback with its rendering.
func FallbackResult(req Request, now time.Time) *Result {
	p := Fallback(req, now)
	return &Result{Plan: FormatPlan(p), Raw: p, Fallback: true}
}
