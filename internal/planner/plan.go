// Package planner turns a short conversation into a goal plan: SMART
// breakdown, milestones and recurring tasks.
package planner

import (
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// Request holds the user's answers. StartDate defaults to today.
type Request struct {
	Title      string `json:"title"`
	Reasoning  string `json:"reasoning"`
	Specific   string `json:"specific"`
	TargetDate string `json:"targetDate"`
	StartDate  string `json:"startDate,omitempty"`
}

type SmartGoal struct {
	Specific   string `json:"specific"`
	Measurable string `json:"measurable"`
	Achievable string `json:"achievable"`
	Relevant   string `json:"relevant"`
	TimeBound  string `json:"timeBound"`
}

type Milestone struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

// Task is a generated task. Weekday is only meaningful for weekly tasks
// (0=Sunday..6=Saturday).
type Task struct {
	Title   string             `json:"title"`
	Type    constants.TaskType `json:"type"`
	Weekday *int               `json:"weekday,omitempty"`
	Date    string             `json:"date,omitempty"`
}

type Plan struct {
	SmartGoal  SmartGoal   `json:"smartGoal"`
	Milestones []Milestone `json:"milestones"`
	Tasks      []Task      `json:"tasks"`
}

// Result is a generated plan and its human-readable rendering.
type Result struct {
	Plan     string `json:"plan"`
	Raw      Plan   `json:"rawPlan"`
	Fallback bool   `json:"fallback,omitempty"`
}

// start resolves the request's start day against now.
func (r Request) start(now time.Time) time.Time {
	if d, err := utils.ParseDate(r.StartDate); err == nil {
		return d
	}
	return utils.Day(now)
}

// target resolves the target day. A missing, malformed or past target falls
// back to the default timeline after start.
func (r Request) target(start time.Time) time.Time {
	if d, err := utils.ParseDate(r.TargetDate); err == nil && d.After(start) {
		return d
	}
	return start.AddDate(0, constants.DefaultTimelineMonths, 0)
}

// FixDates pins every task to the start day and replaces placeholder or
// unparseable milestone dates with start plus the fallback offset.
func FixDates(p *Plan, start time.Time) {
	startDate := utils.FormatDate(start)
	for i := range p.Tasks {
		p.Tasks[i].Date = startDate
	}
	placeholder := utils.FormatDate(start.AddDate(0, 0, constants.FallbackMilestoneOffset))
	for i := range p.Milestones {
		if _, err := utils.ParseDate(p.Milestones[i].Date); err != nil {
			p.Milestones[i].Date = placeholder
		}
	}
}
