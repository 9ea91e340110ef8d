package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/storage"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store, func() { store.Close() }
}

func strPtr(s string) *string { return &s }

var created = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func seedGoal(t *testing.T, store *Store, id, userID string) models.Goal {
	t.Helper()
	g := models.Goal{
		ID:        id,
		UserID:    userID,
		Title:     "Learn Spanish",
		SmartGoal: models.SmartGoal{Specific: "Hold a 10 minute conversation"},
		StartDate: "2025-01-06",
		EndDate:   "2025-06-30",
		CreatedAt: created,
	}
	if err := store.AddGoal(context.Background(), g); err != nil {
		t.Fatalf("failed to add goal: %v", err)
	}
	return g
}

func TestLoad_Uninitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Fatal("expected an error loading a missing database")
	}
}

func TestInit_CreatesDirAndSeedsCommunities(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "goalkeeper.db")
	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	communities, err := store.ListCommunities(context.Background())
	if err != nil {
		t.Fatalf("failed to list communities: %v", err)
	}
	if len(communities) == 0 {
		t.Error("expected seeded communities")
	}

	current, latest, err := store.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if current != latest {
		t.Errorf("schema version = %d, want %d", current, latest)
	}

	// A second store over the same file loads without migrating.
	reopened := NewStore(dbPath)
	if err := reopened.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	reopened.Close()
}

func TestGoal_NestedChildren(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	g := seedGoal(t, store, "g1", "u1")
	seedGoal(t, store, "g2", "u2")

	tasks := []models.Task{
		models.NewDailyTask("t1", "u1", "Duolingo", created),
		models.NewWeeklyTask("t2", "u1", "Tutor session", time.Wednesday, created),
		models.NewCustomTask("t3", "u1", "Buy textbook", "2025-01-10", created),
	}
	for i := range tasks {
		tasks[i].GoalID = strPtr(g.ID)
	}
	general := models.NewDailyTask("t4", "u1", "Drink water", created)
	if err := store.AddTasks(ctx, append(tasks, general)); err != nil {
		t.Fatalf("failed to add tasks: %v", err)
	}

	milestones := []models.Milestone{
		{ID: "m1", GoalID: g.ID, Title: "Finish A1", TargetDate: "2025-03-01"},
		{ID: "m2", GoalID: g.ID, Title: "Finish A2", TargetDate: "2025-06-01"},
	}
	if err := store.AddMilestones(ctx, milestones); err != nil {
		t.Fatalf("failed to add milestones: %v", err)
	}
	if err := store.AddReflection(ctx, models.Reflection{ID: "r1", UserID: "u1", GoalID: strPtr(g.ID), Content: "Week one done"}); err != nil {
		t.Fatalf("failed to add reflection: %v", err)
	}
	if err := store.AddResource(ctx, models.Resource{ID: "res1", UserID: "u1", Title: "Podcast", URL: "https://example.com"}); err != nil {
		t.Fatalf("failed to add resource: %v", err)
	}

	got, err := store.GetGoal(ctx, g.ID)
	if err != nil {
		t.Fatalf("failed to get goal: %v", err)
	}
	if len(got.Tasks) != 3 || len(got.Milestones) != 2 || len(got.Reflections) != 1 {
		t.Fatalf("unexpected children: %d tasks, %d milestones, %d reflections",
			len(got.Tasks), len(got.Milestones), len(got.Reflections))
	}
	if len(got.Resources) != 0 {
		t.Errorf("goal-less resource should not attach to the goal")
	}
	if got.SmartGoal.Specific != g.SmartGoal.Specific || got.EndDate != "2025-06-30" {
		t.Errorf("goal fields not preserved: %+v", got)
	}

	for _, task := range got.Tasks {
		switch task.ID {
		case "t2":
			if wd, ok := task.Weekday(); !ok || wd != time.Wednesday {
				t.Errorf("weekly task weekday = %v, %v", wd, ok)
			}
		case "t3":
			if task.Date() != "2025-01-10" {
				t.Errorf("custom task date = %q", task.Date())
			}
		}
	}

	goals, err := store.ListGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("failed to list goals: %v", err)
	}
	if len(goals) != 1 || len(goals[0].Tasks) != 3 || len(goals[0].Milestones) != 2 {
		t.Fatalf("ListGoals() returned %+v", goals)
	}

	all, err := store.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("failed to list tasks: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 tasks for u1, got %d", len(all))
	}
}

func TestGoal_UpdateAndDelete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	g := seedGoal(t, store, "g1", "u1")
	g.Title = "Learn Portuguese"
	g.EndDate = ""
	if err := store.UpdateGoal(ctx, g); err != nil {
		t.Fatalf("failed to update goal: %v", err)
	}
	if err := store.UpdateGoalProgress(ctx, g.ID, 42); err != nil {
		t.Fatalf("failed to update progress: %v", err)
	}

	got, err := store.GetGoal(ctx, g.ID)
	if err != nil {
		t.Fatalf("failed to get goal: %v", err)
	}
	if got.Title != "Learn Portuguese" || got.EndDate != "" || got.Progress != 42 {
		t.Errorf("unexpected goal after update: %+v", got)
	}

	if err := store.DeleteGoal(ctx, "u2", g.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteGoal() by another user error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteGoal(ctx, "u1", g.ID); err != nil {
		t.Fatalf("failed to delete goal: %v", err)
	}
	if _, err := store.GetGoal(ctx, g.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetGoal() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteGoal(ctx, "u1", g.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second DeleteGoal() error = %v, want ErrNotFound", err)
	}
	if err := store.UpdateGoalProgress(ctx, "missing", 10); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateGoalProgress() error = %v, want ErrNotFound", err)
	}
}

func TestTask_DeleteByGoalRemovesCompletions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	g := seedGoal(t, store, "g1", "u1")
	task := models.NewDailyTask("t1", "u1", "Practice", created)
	task.GoalID = strPtr(g.ID)
	if err := store.AddTask(ctx, task); err != nil {
		t.Fatalf("failed to add task: %v", err)
	}
	if err := store.UpsertCompletion(ctx, models.TaskCompletion{TaskID: "t1", UserID: "u1", Date: "2025-01-07", Completed: true}); err != nil {
		t.Fatalf("failed to upsert completion: %v", err)
	}

	if err := store.DeleteTasksByGoal(ctx, "u2", g.ID); err != nil {
		t.Fatalf("failed to run foreign delete: %v", err)
	}
	if _, err := store.GetTask(ctx, "t1"); err != nil {
		t.Fatalf("task deleted by another user: %v", err)
	}

	if err := store.DeleteTasksByGoal(ctx, "u1", g.ID); err != nil {
		t.Fatalf("failed to delete tasks: %v", err)
	}
	if _, err := store.GetTask(ctx, "t1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetTask() error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetCompletion(ctx, "t1", "2025-01-07"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetCompletion() error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteTask(ctx, "u1", "t1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteTask() error = %v, want ErrNotFound", err)
	}
}

func TestTask_SetCompletedAndUpdate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	task := models.NewCustomTask("t1", "u1", "Book flights", "2025-02-01", created)
	if err := store.AddTask(ctx, task); err != nil {
		t.Fatalf("failed to add task: %v", err)
	}
	if err := store.SetTaskCompleted(ctx, "t1", true); err != nil {
		t.Fatalf("failed to set completed: %v", err)
	}

	task.Schedule = models.Weekly{Weekday: time.Friday}
	task.Completed = true
	if err := store.UpdateTask(ctx, task); err != nil {
		t.Fatalf("failed to update task: %v", err)
	}
	got, err := store.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if !got.Completed || got.Type() != "weekly" {
		t.Errorf("unexpected task after update: %+v", got)
	}
}

func TestUpsertCompletion_Idempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	c := models.TaskCompletion{TaskID: "t1", UserID: "u1", Date: "2025-01-07", Completed: true}
	for i := 0; i < 2; i++ {
		c.Completed = !c.Completed
		if err := store.UpsertCompletion(ctx, c); err != nil {
			t.Fatalf("failed to upsert completion: %v", err)
		}
	}

	got, err := store.ListCompletionsForDay(ctx, "u1", "2025-01-07")
	if err != nil {
		t.Fatalf("failed to list completions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one row for (task, date), got %d", len(got))
	}
	if !got[0].Completed {
		t.Error("expected the last written state to win")
	}

	if err := store.UpsertCompletion(ctx, models.TaskCompletion{TaskID: "t1", UserID: "u1", Date: "2025-01-08"}); err != nil {
		t.Fatalf("failed to upsert completion: %v", err)
	}
	ranged, err := store.ListCompletionsForRange(ctx, "u1", "2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("failed to list range: %v", err)
	}
	if len(ranged) != 2 {
		t.Errorf("expected 2 rows in range, got %d", len(ranged))
	}
}

func TestMilestones(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedGoal(t, store, "g1", "u1")
	m := models.Milestone{ID: "m1", GoalID: "g1", Title: "First 5k", TargetDate: "2025-02-01"}
	if err := store.AddMilestone(ctx, m); err != nil {
		t.Fatalf("failed to add milestone: %v", err)
	}
	m.Completed = true
	if err := store.UpdateMilestone(ctx, m); err != nil {
		t.Fatalf("failed to update milestone: %v", err)
	}
	got, err := store.GetMilestone(ctx, "m1")
	if err != nil {
		t.Fatalf("failed to get milestone: %v", err)
	}
	if !got.Completed {
		t.Error("expected milestone to be completed")
	}
	if err := store.DeleteMilestone(ctx, "u2", "m1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteMilestone() by another user error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteMilestonesByGoal(ctx, "u2", "g1"); err != nil {
		t.Fatalf("failed to run foreign delete: %v", err)
	}
	if _, err := store.GetMilestone(ctx, "m1"); err != nil {
		t.Fatalf("milestone deleted by another user: %v", err)
	}
	if err := store.DeleteMilestone(ctx, "u1", "m1"); err != nil {
		t.Fatalf("failed to delete milestone: %v", err)
	}
	if err := store.UpdateMilestone(ctx, m); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateMilestone() error = %v, want ErrNotFound", err)
	}
}

func TestCommunity_MembershipAndPosts(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	c := models.Community{ID: "c1", Name: "Runners", CreatedAt: created}
	if err := store.AddCommunity(ctx, c); err != nil {
		t.Fatalf("failed to add community: %v", err)
	}

	joined, err := store.ToggleMembership(ctx, "c1", "u1")
	if err != nil || !joined {
		t.Fatalf("ToggleMembership() = %v, %v; want true", joined, err)
	}
	got, _ := store.GetCommunity(ctx, "c1")
	if got.MemberCount != 1 {
		t.Errorf("member count = %d, want 1", got.MemberCount)
	}
	if ids, _ := store.ListMemberships(ctx, "u1"); len(ids) != 1 || ids[0] != "c1" {
		t.Errorf("ListMemberships() = %v", ids)
	}

	joined, err = store.ToggleMembership(ctx, "c1", "u1")
	if err != nil || joined {
		t.Fatalf("second ToggleMembership() = %v, %v; want false", joined, err)
	}
	got, _ = store.GetCommunity(ctx, "c1")
	if got.MemberCount != 0 {
		t.Errorf("member count = %d, want 0", got.MemberCount)
	}
	if _, err := store.ToggleMembership(ctx, "missing", "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("ToggleMembership() on missing community error = %v", err)
	}

	post := models.Post{ID: "p1", CommunityID: "c1", UserID: "u1", AuthorName: "Ana", Content: "Ran 5k", ClientID: "client-1"}
	first, err := store.CreatePost(ctx, post)
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	post.ID = "p1-retry"
	second, err := store.CreatePost(ctx, post)
	if err != nil {
		t.Fatalf("failed to retry post: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("retry created a second post: %s vs %s", first.ID, second.ID)
	}
	posts, _ := store.ListPosts(ctx, "c1", 0)
	if len(posts) != 1 {
		t.Errorf("expected 1 post, got %d", len(posts))
	}

	liked, count, err := store.ToggleLike(ctx, "p1", "u2")
	if err != nil || !liked || count != 1 {
		t.Fatalf("ToggleLike() = %v, %d, %v; want true, 1", liked, count, err)
	}
	liked, count, err = store.ToggleLike(ctx, "p1", "u2")
	if err != nil || liked || count != 0 {
		t.Fatalf("ToggleLike() = %v, %d, %v; want false, 0", liked, count, err)
	}

	if err := store.AddComment(ctx, models.Comment{ID: "cm1", PostID: "p1", UserID: "u2", AuthorName: "Ben", Content: "Nice!"}); err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}
	if err := store.AddComment(ctx, models.Comment{ID: "cm2", PostID: "missing", UserID: "u2", Content: "?"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("AddComment() on missing post error = %v", err)
	}
	comments, _ := store.ListComments(ctx, "p1")
	stored, _ := store.GetPost(ctx, "p1")
	if len(comments) != 1 || stored.CommentsCount != 1 {
		t.Errorf("comments = %d, comments_count = %d; want 1, 1", len(comments), stored.CommentsCount)
	}
}

func TestProfiles(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.GetProfile(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetProfile() error = %v, want ErrNotFound", err)
	}
	p := models.Profile{ID: "u1", Email: "ana@example.com", FullName: "Ana"}
	if err := store.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("failed to upsert profile: %v", err)
	}
	p.FullName = "Ana Silva"
	if err := store.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("failed to upsert profile: %v", err)
	}
	got, err := store.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("failed to get profile: %v", err)
	}
	if got.FullName != "Ana Silva" {
		t.Errorf("FullName = %q, want %q", got.FullName, "Ana Silva")
	}
}
