package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/validation"
)

var fixedNow = time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.reply, s.err
}

const validReply = `Sure! Here is your plan:
{
  "smartGoal": {"specific": "Run a 10k", "measurable": "Weekly distance", "achievable": "Gradual build",
    "relevant": "Health", "timeBound": "By June"},
  "milestones": [
    {"title": "First 5k", "date": "2025-03-01"},
    {"title": "Placeholder", "date": "YYYY-MM-DD"}
  ],
  "tasks": [
    {"title": "Stretch", "type": "daily", "date": "2030-01-01"},
    {"title": "Long run", "type": "weekly", "weekday": 0, "date": "YYYY-MM-DD"}
  ]
}
Hope this helps!`

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
	}{
		{"valid with surrounding text", validReply, false},
		{"adjacent objects repaired", `{"smartGoal":{"specific":"x"},"milestones":[{"title":"a","date":"2025-01-01"}{"title":"b","date":"2025-02-01"}],"tasks":[]}`, false},
		{"double comma repaired", `{"smartGoal":{"specific":"x"},,"milestones":[],"tasks":[]}`, false},
		{"not json", "I'm sorry, I can't help with that.", true},
		{"missing smart goal", `{"milestones":[],"tasks":[]}`, true},
		{"empty specific", `{"smartGoal":{"specific":""},"milestones":[],"tasks":[]}`, true},
		{"missing milestones", `{"smartGoal":{"specific":"x"},"tasks":[]}`, true},
		{"missing tasks", `{"smartGoal":{"specific":"x"},"milestones":[]}`, true},
		{"null milestones", `{"smartGoal":{"specific":"x"},"milestones":null,"tasks":[]}`, true},
		{"broken json", `{"smartGoal": {"specific": "x"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan(tt.reply)
			if tt.wantErr {
				if !errors.Is(err, ErrParse) {
					t.Errorf("ParsePlan() error = %v, want ErrParse", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ParsePlan() error = %v", err)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	llm := &stubCompleter{reply: validReply}
	gen := NewGenerator(llm, clock)

	res, err := gen.Generate(context.Background(), Request{Title: "Run a 10k", TargetDate: "2025-06-01"})
	if err != nil {
		t.Fatalf("failed to generate: %v", err)
	}
	for _, task := range res.Raw.Tasks {
		if task.Date != "2025-01-06" {
			t.Errorf("task %q date = %s, want the start date", task.Title, task.Date)
		}
	}
	if got := res.Raw.Milestones[0].Date; got != "2025-03-01" {
		t.Errorf("valid milestone date rewritten to %s", got)
	}
	if got := res.Raw.Milestones[1].Date; got != "2025-02-05" {
		t.Errorf("placeholder milestone date = %s, want start + 30 days", got)
	}
	if !strings.Contains(res.Plan, "Mar 1, 2025") || !strings.Contains(res.Plan, "**Sunday**: Long run") {
		t.Errorf("formatted plan missing content:\n%s", res.Plan)
	}
}

func TestGenerateErrors(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewGenerator(&stubCompleter{err: boom}, clock).Generate(context.Background(), Request{})
	if !errors.Is(err, boom) || errors.Is(err, ErrParse) {
		t.Errorf("completion failure error = %v, want it returned as-is", err)
	}

	_, err = NewGenerator(&stubCompleter{reply: "no json here"}, clock).Generate(context.Background(), Request{})
	if !errors.Is(err, ErrParse) {
		t.Errorf("parse failure error = %v, want ErrParse", err)
	}
}

func TestFallbackIsValid(t *testing.T) {
	tests := []Request{
		{Title: "Learn guitar", Reasoning: "Fun", Specific: "Play 5 songs", TargetDate: "2025-07-06"},
		{Title: "Learn guitar"},
		{Title: "Learn guitar", TargetDate: "2020-01-01"},
	}
	for _, req := range tests {
		p := Fallback(req, fixedNow)
		g, ms, ts := ToModels(p, req, "u1", fixedNow)
		g.ID = "g1"
		if err := validation.ValidateGoal(g).Err(); err != nil {
			t.Errorf("fallback goal for %+v is invalid: %v", req, err)
		}
		if len(ms) != 3 {
			t.Fatalf("expected 3 milestones, got %d", len(ms))
		}
		for _, m := range ms {
			if err := validation.ValidateMilestone(m).Err(); err != nil {
				t.Errorf("fallback milestone invalid: %v", err)
			}
			if m.TargetDate < g.StartDate || m.TargetDate > g.EndDate {
				t.Errorf("milestone %s outside %s..%s", m.TargetDate, g.StartDate, g.EndDate)
			}
		}
		if len(ts) != 4 {
			t.Errorf("expected 4 tasks, got %d", len(ts))
		}
	}

	p := Fallback(tests[0], fixedNow)
	if p.Milestones[2].Date != "2025-07-06" || p.Milestones[2].Title != "Learn guitar" {
		t.Errorf("final milestone = %+v", p.Milestones[2])
	}
	if p.SmartGoal.Relevant != "Fun" || p.SmartGoal.Specific != "Play 5 songs" {
		t.Errorf("fallback ignored answers: %+v", p.SmartGoal)
	}
}

func TestToModelsFiltersTasks(t *testing.T) {
	bad, ok := 9, 2
	p := Plan{
		SmartGoal:  SmartGoal{Specific: "x"},
		Milestones: []Milestone{{Title: "m", Date: "2025-02-01"}, {Title: "bad", Date: "soon"}},
		Tasks: []Task{
			{Title: "daily", Type: constants.TaskTypeDaily},
			{Title: "weekly", Type: constants.TaskTypeWeekly, Weekday: &ok},
			{Title: "no weekday", Type: constants.TaskTypeWeekly},
			{Title: "bad weekday", Type: constants.TaskTypeWeekly, Weekday: &bad},
			{Title: "custom", Type: constants.TaskTypeCustom},
			{Title: "monthly", Type: "monthly"},
		},
	}
	g, ms, ts := ToModels(p, Request{Title: "Goal", TargetDate: "2025-04-01"}, "u1", fixedNow)
	if len(ms) != 1 {
		t.Errorf("expected 1 milestone, got %d", len(ms))
	}
	if len(ts) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(ts))
	}
	if wd, _ := ts[1].Weekday(); wd != time.Tuesday {
		t.Errorf("weekly task weekday = %v", wd)
	}
	if g.StartDate != "2025-01-06" || g.EndDate != "2025-04-01" || g.Color == "" {
		t.Errorf("goal = %+v", g)
	}
}

func TestParseTimeline(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"next year", "2026-01-06", false},
		{"by next year please", "2026-01-06", false},
		{"6 months", "2025-07-06", false},
		{"in 1 month", "2025-02-06", false},
		{"a few months", "2025-04-06", false},
		{"15th of March 2025", "2025-03-15", false},
		{"1st june", "2025-06-01", false},
		{"3 sep 26", "2026-09-03", false},
		{"2025-12-31", "2025-12-31", false},
		{"31st of February 2025", "", true},
		{"15th of Smarch", "", true},
		{"whenever", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeline(tt.input, fixedNow)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimeline(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeline(%q) error = %v", tt.input, err)
			}
			if s := got.Format(constants.DateFormat); s != tt.want {
				t.Errorf("ParseTimeline(%q) = %s, want %s", tt.input, s, tt.want)
			}
		})
	}
}

type recordingPersister struct {
	goal       models.Goal
	milestones []models.Milestone
	tasks      []models.Task
	err        error
	calls      int
}

func (p *recordingPersister) CreateGoalWithPlan(ctx context.Context, g models.Goal, ms []models.Milestone, ts []models.Task) (models.Goal, error) {
	p.calls++
	if p.err != nil {
		return models.Goal{}, p.err
	}
	p.goal, p.milestones, p.tasks = g, ms, ts
	g.ID = "created"
	return g, nil
}

func walkToTimeline(t *testing.T, c *Conversation) {
	t.Helper()
	ctx := context.Background()
	for _, answer := range []string{"Learn Spanish", "Travel to Spain", "Hold a 10 minute conversation"} {
		if _, err := c.Reply(ctx, answer); err != nil {
			t.Fatalf("failed to reply %q: %v", answer, err)
		}
	}
	if c.State() != constants.StateGoalTimeline {
		t.Fatalf("state = %s, want %s", c.State(), constants.StateGoalTimeline)
	}
}

func TestConversationFallbackOnNonJSON(t *testing.T) {
	ctx := context.Background()
	persist := &recordingPersister{}
	c := NewConversation(NewGenerator(&stubCompleter{reply: "Let me think about that..."}, clock), persist, "u1", clock)

	walkToTimeline(t, c)

	if _, err := c.Reply(ctx, "next month"); !errors.Is(err, ErrDateRequired) {
		t.Errorf("text at timeline error = %v, want ErrDateRequired", err)
	}

	target := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	msg, err := c.SelectDate(ctx, target)
	if err != nil {
		t.Fatalf("failed to select date: %v", err)
	}
	if c.State() != constants.StateConfirmPlan {
		t.Fatalf("state = %s, want CONFIRM_PLAN", c.State())
	}
	res := c.Result()
	if res == nil || !res.Fallback {
		t.Fatal("expected the fallback plan")
	}
	if !strings.Contains(msg.Content, "Travel to Spain") || !strings.Contains(msg.Content, "Jun 1, 2025") {
		t.Errorf("fallback plan lacks the user's answers:\n%s", msg.Content)
	}

	if _, err := c.Reply(ctx, "hmm, not sure"); err != nil {
		t.Fatalf("failed to reply: %v", err)
	}
	if c.State() != constants.StateConfirmPlan || persist.calls != 0 {
		t.Fatal("non-yes input should repeat the confirmation")
	}

	if _, err := c.Reply(ctx, "YES"); err != nil {
		t.Fatalf("failed to confirm: %v", err)
	}
	if c.State() != constants.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED", c.State())
	}
	if persist.goal.Title != "Learn Spanish" || persist.goal.EndDate != "2025-06-01" {
		t.Errorf("persisted goal = %+v", persist.goal)
	}
	if persist.goal.SmartGoal.Relevant != "Travel to Spain" {
		t.Errorf("persisted reasoning = %q", persist.goal.SmartGoal.Relevant)
	}
	if g, done := c.Goal(); !done || g.ID != "created" {
		t.Errorf("Goal() = %+v, %v", g, done)
	}
	if _, err := c.Reply(ctx, "again"); !errors.Is(err, ErrFinished) {
		t.Errorf("reply after completion error = %v", err)
	}
}

func TestConversationRules(t *testing.T) {
	ctx := context.Background()
	persist := &recordingPersister{err: errors.New("store down")}
	c := NewConversation(NewGenerator(&stubCompleter{reply: validReply}, clock), persist, "u1", clock)

	if _, err := c.Reply(ctx, "   "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty input error = %v", err)
	}
	if c.State() != constants.StateGoalTitle {
		t.Errorf("empty input moved state to %s", c.State())
	}
	if _, err := c.SelectDate(ctx, fixedNow); !errors.Is(err, ErrWrongState) {
		t.Errorf("SelectDate at GOAL_TITLE error = %v", err)
	}

	walkToTimeline(t, c)
	if _, err := c.SelectDate(ctx, fixedNow.AddDate(0, 5, 0)); err != nil {
		t.Fatalf("failed to select date: %v", err)
	}
	if c.Result().Fallback {
		t.Error("a valid reply should not use the fallback")
	}

	if _, err := c.Reply(ctx, "yes"); err == nil {
		t.Error("expected the persister error")
	}
	if c.State() != constants.StateConfirmPlan {
		t.Errorf("failed save moved state to %s", c.State())
	}

	c.Restart()
	if c.State() != constants.StateGoalTitle || c.Answers() != (Request{}) || c.Result() != nil {
		t.Error("Restart() did not clear the conversation")
	}
	if len(c.Messages()) != 1 {
		t.Errorf("transcript after restart has %d messages", len(c.Messages()))
	}
}
