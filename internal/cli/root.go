// Package cli holds the shared context for goalkeeper's commands. The
// commands themselves live in the subpackages.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/goalkeeper/internal/backup"
	"github.com/julianstephens/goalkeeper/internal/config"
	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/goalstore"
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/storage"
	"github.com/julianstephens/goalkeeper/internal/storage/postgres"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

type Context struct {
	Store  storage.Provider
	Config *config.Config
	Out    io.Writer

	goals *goalstore.Store
}

// Now returns the current time in the configured timezone.
func (c *Context) Now() time.Time {
	now := time.Now()
	if c.Config == nil {
		return now
	}
	loc, err := utils.LoadLocation(c.Config.Local.Timezone)
	if err != nil {
		return now
	}
	return now.In(loc)
}

// UserID is the local user the CLI acts as.
func (c *Context) UserID() string {
	if c.Config == nil || c.Config.Local.UserID == "" {
		return constants.DefaultLocalUserID
	}
	return c.Config.Local.UserID
}

// Goals returns the local user's goal store, loading it on first use.
// Failed writes are reported on stderr as the store repairs itself.
func (c *Context) Goals(ctx context.Context) (*goalstore.Store, error) {
	if c.goals != nil {
		return c.goals, nil
	}
	st := goalstore.New(c.Store, c.UserID(),
		goalstore.WithClock(c.Now),
		goalstore.WithNotifier(func(n goalstore.Notification) {
			fmt.Fprintf(os.Stderr, "Warning: %s failed: %v\n", n.Op, n.Err)
		}),
	)
	if err := st.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}
	c.goals = st
	return st, nil
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// IsPostgres reports whether the store is backed by PostgreSQL, where file
// backups do not apply.
func (c *Context) IsPostgres() bool {
	_, ok := c.Store.(*postgres.Store)
	return ok
}

// PerformAutomaticBackup creates a backup and only logs failures.
func (c *Context) PerformAutomaticBackup(ctx context.Context) {
	if c.IsPostgres() {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

var weekdays = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts a day name, its three-letter abbreviation, or a
// number from 0 (Sunday) to 6 (Saturday).
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdays[s]; ok {
		return wd, nil
	}
	num, err := strconv.Atoi(s)
	if err == nil && num >= 0 && num <= 6 {
		return time.Weekday(num), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// FormatSchedule describes a task's schedule for listings.
func FormatSchedule(t models.Task) string {
	switch s := t.Schedule.(type) {
	case models.Daily:
		return "daily"
	case models.Weekly:
		return fmt.Sprintf("weekly on %s", s.Weekday.String()[:3])
	case models.Custom:
		return "on " + s.Date
	default:
		return "unknown"
	}
}

// FormatDate renders a YYYY-MM-DD date for display, or returns it unchanged
// when it does not parse.
func FormatDate(date string) string {
	t, err := utils.ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format(constants.DisplayDateFormat)
}

// ShortID trims a UUID to its first block for tables.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// MatchID resolves a full ID or a unique prefix of one.
func MatchID(ids []string, prefix string) (string, error) {
	var found []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no match for %q", prefix)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%q is ambiguous (%d matches)", prefix, len(found))
	}
}
