package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/goalkeeper/internal/cli"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if ctx.IsPostgres() {
			return fmt.Errorf("--force is only supported for SQLite databases")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized goalkeeper storage at: %s\n", displayPath(ctx))
	return nil
}

// displayPath hides connection strings, which may carry a user name.
func displayPath(ctx *cli.Context) string {
	if ctx.IsPostgres() {
		return "PostgreSQL"
	}
	return ctx.Store.GetConfigPath()
}
