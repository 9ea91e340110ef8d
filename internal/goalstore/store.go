// Package goalstore is the client-side cache of one user's goals, tasks and
// today's completions. Mutations are applied locally first and then written
// through to the repository; failures are surfaced through a Notifier and
// repaired by refreshing from the repository.
package goalstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/progress"
	"github.com/julianstephens/goalkeeper/internal/storage"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// Repository is the subset of storage.Provider the store writes through to.
type Repository interface {
	storage.GoalRepository
	storage.CompletionRepository
}

// Notification reports a failed operation. The store has already started
// repairing its state when it is delivered.
type Notification struct {
	Op  string
	Err error
}

type Notifier func(Notification)

type Option func(*Store)

// WithClock sets the time source used for "today" and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// WithIDGenerator replaces uuid.NewString for new entities.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// stamp marks a locally changed entity. op is the generation of the change;
// gen moves forward again when its write settles. Refresh keeps the local
// version of any entity that is pending or settled after the refresh began.
type stamp struct {
	op      uint64
	gen     uint64
	pending bool
	deleted bool
}

type Store struct {
	repo   Repository
	userID string
	now    func() time.Time
	notify Notifier
	newID  func() string

	mu          sync.RWMutex
	gen         uint64
	appliedAt   uint64
	refreshing  int
	stamps      map[string]stamp
	goals       map[string]models.Goal // Tasks left empty; tasks live in s.tasks
	tasks       map[string]models.Task
	completions map[string]models.TaskCompletion // today's, by task ID
	today       string
}

func New(repo Repository, userID string, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		userID:      userID,
		now:         time.Now,
		notify:      func(Notification) {},
		newID:       uuid.NewString,
		stamps:      map[string]stamp{},
		goals:       map[string]models.Goal{},
		tasks:       map[string]models.Task{},
		completions: map[string]models.TaskCompletion{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.today = utils.Today(s.now())
	return s
}

func (s *Store) UserID() string {
	return s.userID
}

// Today returns the store's current calendar day.
func (s *Store) Today() string {
	return utils.Today(s.now())
}

func goalKey(id string) string { return "goal:" + id }
func taskKey(id string) string { return "task:" + id }

func splitKey(key string) (kind, id string) {
	kind, id, _ = strings.Cut(key, ":")
	return kind, id
}

// touchLocked stamps keys as pending under one new generation and returns it.
func (s *Store) touchLocked(deleted bool, keys ...string) uint64 {
	s.gen++
	for _, k := range keys {
		s.stamps[k] = stamp{op: s.gen, gen: s.gen, pending: true, deleted: deleted}
	}
	return s.gen
}

// settle finishes the write started at op. On success the stamps move to a
// fresh generation so that refreshes already in flight keep the local
// version. On failure they are dropped so the repository's state wins again.
func (s *Store) settle(op uint64, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	for _, k := range keys {
		st, ok := s.stamps[k]
		if !ok || st.op != op {
			continue
		}
		st.gen = s.gen
		st.pending = false
		s.stamps[k] = st
	}
	s.pruneLocked()
}

// pruneLocked drops settled stamps while no refresh is running; a refresh
// that starts later reads their writes from the repository.
func (s *Store) pruneLocked() {
	if s.refreshing > 0 {
		return
	}
	for k, st := range s.stamps {
		if !st.pending {
			delete(s.stamps, k)
		}
	}
}

func (s *Store) invalidate(op uint64, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if st, ok := s.stamps[k]; ok && st.op == op {
			delete(s.stamps, k)
		}
	}
}

// fail reports err and reloads state from the repository.
func (s *Store) fail(ctx context.Context, op string, err error) error {
	logger.Warn("Goal store write failed", "op", op, "user", s.userID, "error", err)
	s.notify(Notification{Op: op, Err: err})
	if rerr := s.Refresh(context.WithoutCancel(ctx)); rerr != nil {
		logger.Warn("Goal store refresh after failure failed", "op", op, "error", rerr)
	}
	return err
}

// rollLocked resets today's completion state and the progress derived from
// it when the calendar day changed since the last refresh.
func (s *Store) rollLocked() string {
	today := utils.Today(s.now())
	if today == s.today {
		return today
	}
	s.today = today
	s.completions = map[string]models.TaskCompletion{}
	for id, t := range s.tasks {
		if t.IsRecurring() && t.Completed {
			t.Completed = false
			s.tasks[id] = t
		}
	}
	for id := range s.goals {
		s.recomputeLocked(id)
	}
	return today
}

// roll runs rollLocked for readers once the clock has passed midnight.
func (s *Store) roll() {
	today := utils.Today(s.now())
	s.mu.RLock()
	stale := today != s.today
	s.mu.RUnlock()
	if stale {
		s.mu.Lock()
		s.rollLocked()
		s.mu.Unlock()
	}
}

// tasksForGoalLocked returns the goal's tasks ordered by creation.
func (s *Store) tasksForGoalLocked(goalID string) []models.Task {
	out := []models.Task{}
	for _, t := range s.tasks {
		if t.BelongsTo(goalID) {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out
}

// recomputeLocked refreshes a goal's derived progress and returns it.
func (s *Store) recomputeLocked(goalID string) (int, bool) {
	g, ok := s.goals[goalID]
	if !ok {
		return 0, false
	}
	g.Tasks = s.tasksForGoalLocked(goalID)
	g.Progress = progress.ForGoal(g)
	g.Tasks = nil
	s.goals[goalID] = g
	return g.Progress, true
}

func sortTasks(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

func (s *Store) goalViewLocked(g models.Goal) models.Goal {
	out := g.Clone()
	out.Tasks = s.tasksForGoalLocked(g.ID)
	return out
}

// Goals returns copies of the cached goals, newest first, with tasks attached.
func (s *Store) Goals() []models.Goal {
	s.roll()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, s.goalViewLocked(g))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) Goal(id string) (models.Goal, bool) {
	s.roll()
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok {
		return models.Goal{}, false
	}
	return s.goalViewLocked(g), true
}

// GoalsByID indexes the cached goals for projection.
func (s *Store) GoalsByID() map[string]models.Goal {
	s.roll()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Goal, len(s.goals))
	for id, g := range s.goals {
		out[id] = g.Clone()
	}
	return out
}

// Tasks returns every cached task, with today's completion merged onto
// recurring ones.
func (s *Store) Tasks() []models.Task {
	s.roll()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sortTasks(out)
	return out
}

func (s *Store) Task(id string) (models.Task, bool) {
	s.roll()
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

func (s *Store) TasksForGoal(goalID string) []models.Task {
	s.roll()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasksForGoalLocked(goalID)
}

func (s *Store) TodayCompletions() []models.TaskCompletion {
	s.roll()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TaskCompletion, 0, len(s.completions))
	for _, c := range s.completions {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

func notCached(entity, id string) error {
	return fmt.Errorf("%s %s %w", entity, id, storage.ErrNotFound)
}
