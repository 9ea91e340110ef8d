package system

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/goalkeeper/internal/backup"
	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/keyring"
	"github.com/julianstephens/goalkeeper/internal/llm"
	"github.com/julianstephens/goalkeeper/internal/utils"
	"github.com/julianstephens/goalkeeper/internal/validation"
)

type DoctorCmd struct{}

type dbHolder interface {
	GetDB() *sql.DB
}

type checkResult int

const (
	checkOK checkResult = iota
	checkWarn
	checkFail
	checkSkipped
)

func report(ctx *cli.Context, name string, res checkResult, detail string) {
	switch res {
	case checkOK:
		ctx.Printf("✓ %s: OK\n", name)
	case checkWarn:
		ctx.Printf("⚠ %s: WARNING\n", name)
	case checkFail:
		ctx.Printf("❌ %s: FAIL\n", name)
	case checkSkipped:
		ctx.Printf("⊘ %s: SKIPPED (%s)\n", name, detail)
		return
	}
	if detail != "" {
		ctx.Printf("   %s\n", detail)
	}
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hasError := false
	fail := func(name string, err error) {
		report(ctx, name, checkFail, "Error: "+err.Error())
		hasError = true
	}

	dbReachable := false
	if err := checkDBReachable(bg, ctx); err != nil {
		fail("Database reachable", err)
	} else {
		report(ctx, "Database reachable", checkOK, "")
		dbReachable = true
	}

	if dbReachable {
		if err := checkSchemaVersion(bg, ctx); err != nil {
			fail("Schema version", err)
		} else {
			report(ctx, "Schema version", checkOK, "")
		}
		if err := checkValidation(bg, ctx); err != nil {
			fail("Data validation", err)
		} else {
			report(ctx, "Data validation", checkOK, "")
		}
	} else {
		report(ctx, "Schema version", checkSkipped, "database not reachable")
		report(ctx, "Data validation", checkSkipped, "database not reachable")
	}

	if ctx.IsPostgres() {
		report(ctx, "Backups present", checkSkipped, "PostgreSQL")
	} else if err := checkBackupsPresent(ctx); err != nil {
		report(ctx, "Backups present", checkWarn, err.Error())
	} else {
		report(ctx, "Backups present", checkOK, "")
	}

	if keyring.IsAvailable() {
		report(ctx, "OS keyring", checkOK, "")
	} else {
		report(ctx, "OS keyring", checkWarn, "keyring unavailable; set llm.token in the config file instead")
	}

	if err := checkLLMToken(ctx); err != nil {
		report(ctx, "LLM token", checkWarn, err.Error())
	} else {
		report(ctx, "LLM token", checkOK, "")
	}

	if msg, err := checkServer(); err != nil {
		report(ctx, "HTTP server", checkWarn, err.Error())
	} else {
		ctx.Printf("ℹ HTTP server: %s\n", msg)
	}

	if err := checkClockTimezone(ctx); err != nil {
		fail("Clock/timezone", err)
	} else {
		report(ctx, "Clock/timezone", checkOK, "")
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(bg context.Context, ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	h, ok := ctx.Store.(dbHolder)
	if !ok {
		return nil
	}
	db := h.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	var result int
	if err := db.QueryRowContext(bg, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(bg context.Context, ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return nil
	}
	current, latest, err := m.SchemaVersion(bg)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'goalkeeper backup create'")
	}
	return nil
}

// checkValidation re-validates every stored goal, milestone and task of the
// local user.
func checkValidation(bg context.Context, ctx *cli.Context) error {
	goals, err := ctx.Store.ListGoals(bg, ctx.UserID())
	if err != nil {
		return fmt.Errorf("failed to list goals: %w", err)
	}
	tasks, err := ctx.Store.ListTasks(bg, ctx.UserID())
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	var errs []error
	for _, g := range goals {
		if err := validation.ValidateGoal(g).Err(); err != nil {
			errs = append(errs, fmt.Errorf("goal %s: %w", g.ID, err))
		}
		for _, m := range g.Milestones {
			if err := validation.ValidateMilestone(m).Err(); err != nil {
				errs = append(errs, fmt.Errorf("milestone %s: %w", m.ID, err))
			}
		}
	}
	ids := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if ids[t.ID] {
			errs = append(errs, fmt.Errorf("duplicate task ID found: %s", t.ID))
		}
		ids[t.ID] = true
		if err := validation.ValidateTask(t).Err(); err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}

func checkLLMToken(ctx *cli.Context) error {
	if ctx.Config == nil {
		return llm.ErrNotConfigured
	}
	token, err := llm.ConfigToken(ctx.Config.LLM)()
	if err != nil {
		return err
	}
	if token == "" {
		return llm.ErrNotConfigured
	}
	return nil
}

func checkServer() (string, error) {
	path, err := pidFilePath()
	if err != nil {
		return "", err
	}
	pid, running, err := runningServer(path)
	if err != nil {
		return "", err
	}
	if !running {
		if pid != 0 {
			return fmt.Sprintf("not running (stale pid file for PID %d)", pid), nil
		}
		return "not running", nil
	}
	return fmt.Sprintf("running (PID %d)", pid), nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Config != nil && ctx.Config.Local.Timezone != "" {
		if _, err := utils.LoadLocation(ctx.Config.Local.Timezone); err != nil {
			return err
		}
		return nil
	}
	if _, offset := now.Zone(); offset == 0 && now.Location() == time.UTC {
		ctx.Printf("   Note: timezone is UTC\n")
	}
	return nil
}
