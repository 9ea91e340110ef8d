package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/metrics"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

var (
	ErrEmptyInput = errors.New("please type an answer")
	// ErrDateRequired is returned for text typed while a target date is due.
	ErrDateRequired = errors.New("pick a target date to continue")
	ErrWrongState   = errors.New("that step is not available right now")
	ErrFinished     = errors.New("the goal is already created; restart to build another")
	// ErrNotConfigured stands in for generation when no generator is set.
	ErrNotConfigured = errors.New("no plan generator configured")
)

const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

const (
	welcomeMessage = "Hi there! Let's turn something you want into a goal you can actually reach.\n\n" +
		"What goal have you been thinking about lately?"
	confirmMessage = "Does this plan look right? Type 'yes' to create the goal."
	successMessage = "Your goal is set up. Good luck on the journey!"
)

func motivationPrompt(goal string) string {
	return fmt.Sprintf("%q is a great goal.\n\nWhy does it matter to you, and what will change once you get there?", goal)
}

func specificPrompt(goal string) string {
	return fmt.Sprintf("Thanks. Now let's make it specific.\n\nFor %s, what exactly would success look like?", goal)
}

func timelinePrompt(goal string) string {
	return fmt.Sprintf("When would you like to achieve %s?\n\nA target date lets us space out milestones and tasks.", goal)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PlanGenerator produces a plan for a set of answers.
type PlanGenerator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Persister saves a confirmed plan.
type Persister interface {
	CreateGoalWithPlan(ctx context.Context, g models.Goal, milestones []models.Milestone, tasks []models.Task) (models.Goal, error)
}

// Conversation walks a user through GOAL_TITLE, GOAL_WHY, GOAL_SPECIFIC,
// GOAL_TIMELINE and CONFIRM_PLAN to COMPLETED. Only Restart moves backwards.
type Conversation struct {
	gen     PlanGenerator
	persist Persister
	userID  string
	now     func() time.Time

	mu       sync.Mutex
	state    constants.ConversationState
	answers  Request
	messages []Message
	result   *Result
	goal     models.Goal
}

// NewConversation starts a conversation at GOAL_TITLE with the welcome
// message. A nil now uses time.Now.
func NewConversation(gen PlanGenerator, persist Persister, userID string, now func() time.Time) *Conversation {
	if now == nil {
		now = time.Now
	}
	c := &Conversation{gen: gen, persist: persist, userID: userID, now: now}
	c.reset()
	return c
}

func (c *Conversation) reset() {
	c.state = constants.StateGoalTitle
	c.answers = Request{}
	c.result = nil
	c.goal = models.Goal{}
	c.messages = []Message{{Role: RoleAssistant, Content: welcomeMessage}}
}

// Restart discards all answers and returns to GOAL_TITLE.
func (c *Conversation) Restart() Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	return c.messages[0]
}

func (c *Conversation) State() constants.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conversation) Answers() Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Result returns the plan shown for confirmation, or nil before one exists.
func (c *Conversation) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Goal returns the created goal once the conversation is COMPLETED.
func (c *Conversation) Goal() (models.Goal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goal, c.state == constants.StateCompleted
}

func (c *Conversation) say(content string) Message {
	m := Message{Role: RoleAssistant, Content: content}
	c.messages = append(c.messages, m)
	return m
}

// Reply handles a free-text answer and returns the assistant's response.
// Empty input is rejected without a transition.
func (c *Conversation) Reply(ctx context.Context, input string) (Message, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Message{}, ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case constants.StateGoalTitle:
		c.messages = append(c.messages, Message{Role: RoleUser, Content: input})
		c.answers.Title = input
		c.state = constants.StateGoalWhy
		return c.say(motivationPrompt(input)), nil

	case constants.StateGoalWhy:
		c.messages = append(c.messages, Message{Role: RoleUser, Content: input})
		c.answers.Reasoning = input
		c.state = constants.StateGoalSpecific
		return c.say(specificPrompt(c.answers.Title)), nil

	case constants.StateGoalSpecific:
		c.messages = append(c.messages, Message{Role: RoleUser, Content: input})
		c.answers.Specific = input
		c.state = constants.StateGoalTimeline
		return c.say(timelinePrompt(c.answers.Title)), nil

	case constants.StateGoalTimeline:
		return Message{}, ErrDateRequired

	case constants.StateConfirmPlan:
		c.messages = append(c.messages, Message{Role: RoleUser, Content: input})
		if !strings.EqualFold(input, "yes") {
			return c.say(confirmMessage), nil
		}
		return c.confirmLocked(ctx)

	default:
		return Message{}, ErrFinished
	}
}

func (c *Conversation) confirmLocked(ctx context.Context) (Message, error) {
	g, ms, ts := ToModels(c.result.Raw, c.answers, c.userID, c.now())
	created, err := c.persist.CreateGoalWithPlan(ctx, g, ms, ts)
	if err != nil {
		logger.Error("Failed to create goal from plan", "title", g.Title, "error", err)
		c.say("I couldn't save the goal. Type 'yes' to try again.")
		return Message{}, fmt.Errorf("failed to create goal: %w", err)
	}
	c.goal = created
	c.state = constants.StateCompleted
	return c.say(successMessage), nil
}

// SelectDate answers GOAL_TIMELINE with a target day and generates the plan.
// Any generation failure is replaced by the fallback plan, so the flow always
// reaches CONFIRM_PLAN.
func (c *Conversation) SelectDate(ctx context.Context, date time.Time) (Message, error) {
	c.mu.Lock()
	if c.state != constants.StateGoalTimeline {
		c.mu.Unlock()
		return Message{}, ErrWrongState
	}
	c.answers.TargetDate = utils.FormatDate(date)
	c.answers.StartDate = utils.Today(c.now())
	req := c.answers
	c.messages = append(c.messages, Message{Role: RoleUser, Content: date.Format(constants.DisplayDateFormat)})
	c.mu.Unlock()

	var res *Result
	err := ErrNotConfigured
	if c.gen != nil {
		res, err = c.gen.Generate(ctx, req)
	}
	if err != nil {
		logger.Warn("Plan generation failed, using fallback", "error", err)
		metrics.Get().PlanGenerations.WithLabelValues("fallback").Inc()
		res = FallbackResult(req, c.now())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Restarted while generating.
	if c.state != constants.StateGoalTimeline || c.answers != req {
		return Message{}, ErrWrongState
	}
	c.result = res
	c.state = constants.StateConfirmPlan
	return c.say(res.Plan + "\n\n" + confirmMessage), nil
}
