package planner

import (
	"hash/fnv"
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

var goalColors = []string{
	"#e76f51", "#f4a261", "#e9c46a", "#2a9d8f", "#264653",
	"#8ab17d", "#6d597a", "#b56576", "#457b9d", "#1d3557",
}

func colorFor(title string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(title))
	return goalColors[h.Sum32()%uint32(len(goalColors))]
}

// ToModels converts a plan into a goal with its milestones and tasks. IDs are
// left empty for the store to assign. Only daily tasks and weekly tasks with
// a weekday in 0..6 are kept; milestones without a usable date are dropped.
func ToModels(p Plan, req Request, userID string, now time.Time) (models.Goal, []models.Milestone, []models.Task) {
	start := req.start(now)
	target := req.target(start)

	goal := models.Goal{
		UserID:      userID,
		Title:       req.Title,
		Description: "SMART goal: " + req.Title,
		SmartGoal: models.SmartGoal{
			Specific:   p.SmartGoal.Specific,
			Measurable: p.SmartGoal.Measurable,
			Achievable: p.SmartGoal.Achievable,
			Relevant:   p.SmartGoal.Relevant,
			TimeBound:  p.SmartGoal.TimeBound,
		},
		StartDate: utils.FormatDate(start),
		EndDate:   utils.FormatDate(target),
		Color:     colorFor(req.Title),
	}

	milestones := make([]models.Milestone, 0, len(p.Milestones))
	for _, m := range p.Milestones {
		if _, err := utils.ParseDate(m.Date); err != nil || m.Title == "" {
			continue
		}
		milestones = append(milestones, models.Milestone{Title: m.Title, TargetDate: m.Date})
	}

	tasks := make([]models.Task, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		if t.Title == "" {
			continue
		}
		switch t.Type {
		case constants.TaskTypeDaily:
			tasks = append(tasks, models.NewDailyTask("", userID, t.Title, start))
		case constants.TaskTypeWeekly:
			if t.Weekday == nil || *t.Weekday < 0 || *t.Weekday > 6 {
				continue
			}
			tasks = append(tasks, models.NewWeeklyTask("", userID, t.Title, time.Weekday(*t.Weekday), start))
		}
	}
	return goal, milestones, tasks
}
