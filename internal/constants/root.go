package constants

import "time"

// TaskType is the discriminant stored in the tasks.type column
type TaskType string

// ConversationState is a step of the goal builder dialogue
type ConversationState string

// SessionState represents the active tab of the TUI
type SessionState int

const (
	AppName            = "goalkeeper"
	Version            = "v0.1.0"
	DefaultConfigPath  = "~/.config/goalkeeper/goalkeeper.db"
	DefaultKeyringUser = "database-connection"
	LLMTokenKeyringKey = "llm-token"
	DefaultLocalUserID = "local"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DisplayDateFormat is used when dates are shown to people, e.g. "Mar 5, 2025"
	DisplayDateFormat = "Jan 2, 2006"

	// Projection constants
	DefaultProjectionDays   = 365
	FallbackMilestoneOffset = 30 // days after the start date for placeholder milestone dates
	DefaultTimelineMonths   = 3

	// Progress weighting
	MilestoneWeight = 70
	TaskWeight      = 30

	// Log rotation defaults
	LogDirName      = "logs"
	LogMaxSizeMB    = 10
	LogMaxBackups   = 3
	LogMaxAgeDays   = 28
	LogFormatText   = "text"
	LogFormatJSON   = "json"
	LogFormatLogfmt = "logfmt"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "goalkeeper-"
	BackupFileSuffix = ".db"

	// Server constants
	DefaultHost           = "localhost"
	DefaultPort           = 8080
	DefaultUserHeader     = "X-User-ID"
	PidFileName           = "goalkeeper.pid"
	MaxWebhookBodyBytes   = 1 << 20
	WebhookTolerance      = 5 * time.Minute
	ShutdownTimeout       = 10 * time.Second
	SSEHeartbeatInterval  = 30 * time.Second
	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 20

	// LLM constants
	DefaultLLMModel       = "meta-llama/Llama-2-70b-chat-hf"
	DefaultLLMMaxTokens   = 2048
	DefaultLLMTemperature = 0.7
	DefaultLLMTimeout     = 60 * time.Second

	// Feed constants
	FeedSubjectPrefix = "feed.posts"
	AnonymousAuthor   = "Anonymous"

	// Task types
	TaskTypeDaily  TaskType = "daily"
	TaskTypeWeekly TaskType = "weekly"
	TaskTypeCustom TaskType = "custom"

	// Conversation states
	StateGoalTitle    ConversationState = "GOAL_TITLE"
	StateGoalWhy      ConversationState = "GOAL_WHY"
	StateGoalSpecific ConversationState = "GOAL_SPECIFIC"
	StateGoalTimeline ConversationState = "GOAL_TIMELINE"
	StateConfirmPlan  ConversationState = "CONFIRM_PLAN"
	StateCompleted    ConversationState = "COMPLETED"
)

// TUI tabs
const (
	StateChat SessionState = iota
	StateToday
	StateGoals
)
