package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/goalkeeper/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// GoalRepository covers goals and the entities they own.
type GoalRepository interface {
	AddGoal(ctx context.Context, goal models.Goal) error
	// GetGoal returns the goal with its tasks, milestones, reflections and
	// resources populated.
	GetGoal(ctx context.Context, id string) (models.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]models.Goal, error)
	UpdateGoal(ctx context.Context, goal models.Goal) error
	UpdateGoalProgress(ctx context.Context, id string, progress int) error
	// By-ID deletes only touch rows owned by userID and report ErrNotFound
	// otherwise.
	DeleteGoal(ctx context.Context, userID, id string) error

	AddTask(ctx context.Context, task models.Task) error
	AddTasks(ctx context.Context, tasks []models.Task) error
	GetTask(ctx context.Context, id string) (models.Task, error)
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)
	ListTasksByGoal(ctx context.Context, goalID string) ([]models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) error
	SetTaskCompleted(ctx context.Context, id string, completed bool) error
	DeleteTask(ctx context.Context, userID, id string) error
	DeleteTasksByGoal(ctx context.Context, userID, goalID string) error

	AddMilestone(ctx context.Context, m models.Milestone) error
	AddMilestones(ctx context.Context, ms []models.Milestone) error
	GetMilestone(ctx context.Context, id string) (models.Milestone, error)
	ListMilestones(ctx context.Context, goalID string) ([]models.Milestone, error)
	UpdateMilestone(ctx context.Context, m models.Milestone) error
	DeleteMilestone(ctx context.Context, userID, id string) error
	DeleteMilestonesByGoal(ctx context.Context, userID, goalID string) error

	AddReflection(ctx context.Context, r models.Reflection) error
	ListReflections(ctx context.Context, userID string) ([]models.Reflection, error)
	AddResource(ctx context.Context, r models.Resource) error
	ListResources(ctx context.Context, userID string) ([]models.Resource, error)
}

// CompletionRepository stores per-day completion state of recurring tasks.
type CompletionRepository interface {
	// UpsertCompletion inserts or replaces the row for (TaskID, Date).
	UpsertCompletion(ctx context.Context, c models.TaskCompletion) error
	GetCompletion(ctx context.Context, taskID, date string) (models.TaskCompletion, error)
	ListCompletionsForDay(ctx context.Context, userID, date string) ([]models.TaskCompletion, error)
	ListCompletionsForRange(ctx context.Context, userID, from, to string) ([]models.TaskCompletion, error)
}

// CommunityRepository backs the community feed.
type CommunityRepository interface {
	ListCommunities(ctx context.Context) ([]models.Community, error)
	GetCommunity(ctx context.Context, id string) (models.Community, error)
	AddCommunity(ctx context.Context, c models.Community) error
	// ToggleMembership joins or leaves a community and refreshes its member
	// count in the same transaction. It reports whether the user is now a member.
	ToggleMembership(ctx context.Context, communityID, userID string) (bool, error)
	IsMember(ctx context.Context, communityID, userID string) (bool, error)
	ListMemberships(ctx context.Context, userID string) ([]string, error)

	// CreatePost is idempotent on ClientID: a repeated call returns the stored post.
	CreatePost(ctx context.Context, p models.Post) (models.Post, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	ListPosts(ctx context.Context, communityID string, limit int) ([]models.Post, error)
	// ToggleLike reports whether the user now likes the post and its new count.
	ToggleLike(ctx context.Context, postID, userID string) (bool, int, error)
	AddComment(ctx context.Context, c models.Comment) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)

	UpsertProfile(ctx context.Context, p models.Profile) error
	GetProfile(ctx context.Context, id string) (models.Profile, error)
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	GoalRepository
	CompletionRepository
	CommunityRepository

	// Utils
	GetConfigPath() string
}
