package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/julianstephens/goalkeeper/internal/llm"
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/metrics"
	"github.com/julianstephens/goalkeeper/internal/validation"
)

// ErrParse marks a model reply that could not be turned into a plan.
var ErrParse = errors.New("failed to parse plan")

var jsonObject = regexp.MustCompile(`\{.*\}`)

var cleanup = strings.NewReplacer(
	"}{", "},{",
	`}"`, `},"`,
	",,", ",",
)

const promptTemplate = `[INST] Build a SMART goal plan for: "%s"

Context:
- Why it matters: %s
- What success looks like: %s
- Target date: %s

Answer with one JSON object and nothing else, shaped exactly like this:
{
  "smartGoal": {
    "specific": "Clear goal statement",
    "measurable": "How progress is tracked",
    "achievable": "Why it is realistic",
    "relevant": "How it connects to the motivation",
    "timeBound": "Timeline with the target date"
  },
  "milestones": [
    {"title": "Milestone description", "date": "YYYY-MM-DD"}
  ],
  "tasks": [
    {"title": "Daily task description", "type": "daily", "date": "YYYY-MM-DD"},
    {"title": "Weekly task description", "type": "weekly", "weekday": 0, "date": "YYYY-MM-DD"}
  ]
}

Rules:
- 2 or 3 daily practice tasks
- at least 5 weekly tasks, each on a different weekday (0-6, 0 is Sunday)
- tasks build up towards the final goal
- task type is exactly "daily" or "weekly"
[/INST]`

// Generator asks a language model for a plan.
type Generator struct {
	llm llm.Completer
	now func() time.Time
}

// NewGenerator returns a generator backed by c. A nil now uses time.Now.
func NewGenerator(c llm.Completer, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{llm: c, now: now}
}

// Prompt renders the model prompt for req.
func Prompt(req Request) string {
	return fmt.Sprintf(promptTemplate, req.Title, req.Reasoning, req.Specific, req.TargetDate)
}

// Generate calls the model once and parses its reply. Parse and shape
// failures wrap ErrParse; completion errors are returned unchanged.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	out, err := g.llm.Complete(ctx, Prompt(req))
	if err != nil {
		metrics.Get().PlanGenerations.WithLabelValues("error").Inc()
		return nil, err
	}

	plan, err := ParsePlan(out)
	if err != nil {
		metrics.Get().PlanGenerations.WithLabelValues("parse_error").Inc()
		logger.Warn("Discarding unparseable plan", "error", err, "reply_chars", len(out))
		return nil, err
	}

	FixDates(&plan, req.start(g.now()))
	metrics.Get().PlanGenerations.WithLabelValues("ok").Inc()
	return &Result{Plan: FormatPlan(plan), Raw: plan}, nil
}

// ParsePlan extracts the outermost JSON object from a model reply, repairs
// common formatting slips and checks that the required keys are present.
func ParsePlan(reply string) (Plan, error) {
	flat := strings.ReplaceAll(reply, "\n", "")
	raw := jsonObject.FindString(flat)
	if raw == "" {
		return Plan{}, fmt.Errorf("%w: no JSON object in reply", ErrParse)
	}
	raw = cleanup.Replace(raw)

	var plan Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := validation.ValidatePlan(plan.SmartGoal.Specific, plan.Milestones, plan.Tasks).Err(); err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return plan, nil
}
