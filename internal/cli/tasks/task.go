package tasks

import (
	"context"
	"fmt"

	"github.com/julianstephens/goalkeeper/internal/calendar"
	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/goalstore"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

type TaskAddCmd struct {
	Title   string `arg:"" help:"Task title."`
	Type    string `default:"daily" enum:"daily,weekly,custom" help:"Schedule: daily, weekly or custom (one-off)."`
	Weekday string `help:"Weekday for weekly tasks (name or 0-6, Sunday first)."`
	Date    string `help:"Date for custom tasks (YYYY-MM-DD, default today)."`
	Goal    string `help:"Goal ID or unique prefix the task belongs to."`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}

	var weekday *int
	if c.Weekday != "" {
		wd, err := cli.ParseWeekday(c.Weekday)
		if err != nil {
			return err
		}
		w := int(wd)
		weekday = &w
	}
	date := c.Date
	if constants.TaskType(c.Type) == constants.TaskTypeCustom && date == "" {
		date = utils.Today(ctx.Now())
	}
	schedule, err := models.ScheduleFromParts(constants.TaskType(c.Type), weekday, date)
	if err != nil {
		return err
	}

	task := models.Task{Title: c.Title, Schedule: schedule}
	if c.Goal != "" {
		id, err := goalID(st, c.Goal)
		if err != nil {
			return err
		}
		task.GoalID = &id
	}

	added, err := st.AddTask(bg, task)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added task %q (%s, %s)\n", added.Title, cli.FormatSchedule(added), cli.ShortID(added.ID))
	return nil
}

func goalID(st *goalstore.Store, ref string) (string, error) {
	byID := st.GoalsByID()
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	id, err := cli.MatchID(ids, ref)
	if err != nil {
		return "", fmt.Errorf("goal: %w", err)
	}
	return id, nil
}

func taskID(st *goalstore.Store, ref string) (models.Task, error) {
	tasks := st.Tasks()
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	id, err := cli.MatchID(ids, ref)
	if err != nil {
		return models.Task{}, fmt.Errorf("task: %w", err)
	}
	t, _ := st.Task(id)
	return t, nil
}

type TaskListCmd struct {
	Date string `help:"Show the tasks due on this date (YYYY-MM-DD) instead of every task."`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	goals := st.GoalsByID()

	if c.Date == "" {
		tasks := st.Tasks()
		if len(tasks) == 0 {
			ctx.Println("No tasks found.")
			return nil
		}
		for _, t := range tasks {
			ctx.Printf("%s %-9s %-16s %s%s\n", mark(t.Completed), cli.ShortID(t.ID), cli.FormatSchedule(t), t.Title, goalSuffix(goals, t))
		}
		return nil
	}

	day, err := utils.ParseDate(c.Date)
	if err != nil {
		return fmt.Errorf("invalid date %q, use YYYY-MM-DD", c.Date)
	}
	days := calendar.Build(st.Goals(), st.Tasks(), st.TodayCompletions(), day, day, ctx.Now())
	if len(days) == 0 || len(days[0].Tasks) == 0 {
		ctx.Printf("No tasks on %s.\n", cli.FormatDate(c.Date))
		return nil
	}
	ctx.Printf("%s: %s\n", cli.FormatDate(c.Date), days[0].Title)
	for _, e := range days[0].Tasks {
		suffix := ""
		if e.GoalTitle != "" {
			suffix = "  · " + e.GoalTitle
		}
		ctx.Printf("%s %-9s %s%s\n", mark(e.Completed), cli.ShortID(e.Task.ID), e.Task.Title, suffix)
	}
	return nil
}

func goalSuffix(goals map[string]models.Goal, t models.Task) string {
	if t.GoalID == nil {
		return ""
	}
	if g, ok := goals[*t.GoalID]; ok {
		return "  · " + g.Title
	}
	return ""
}

func mark(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

type TaskToggleCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskToggleCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	t, err := taskID(st, c.ID)
	if err != nil {
		return err
	}
	toggled, err := st.UpdateGoalTask(bg, t.ID)
	if err != nil {
		return err
	}
	ctx.Printf("%s %s\n", mark(toggled.Completed), toggled.Title)
	return nil
}

type TaskDeleteCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Goals(bg)
	if err != nil {
		return err
	}
	t, err := taskID(st, c.ID)
	if err != nil {
		return err
	}
	if err := st.DeleteTask(bg, t.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted task %q\n", t.Title)
	return nil
}
