package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/keyring"
	"github.com/julianstephens/goalkeeper/internal/storage/postgres"
)

const (
	keyLLMToken         = "llm-token"
	keyConnectionString = "connection-string"
)

func keyringKey(name string) string {
	if name == keyConnectionString {
		return keyring.ConnectionString
	}
	return keyring.LLMToken
}

// KeyringSetCmd stores a secret in the OS keyring.
type KeyringSetCmd struct {
	Key   string `arg:"" enum:"llm-token,connection-string" help:"Secret to store: llm-token or connection-string."`
	Value string `arg:"" help:"Secret value."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	value := strings.TrimSpace(cmd.Value)
	if value == "" {
		return errors.New("value must not be empty")
	}

	if cmd.Key == keyConnectionString {
		if !postgres.IsConnString(value) && !strings.Contains(value, "host=") {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
		if _, err := postgres.ValidateConnString(value); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.Println("⚠️  Warning: Connection string contains embedded credentials.")
			ctx.Println("   It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.Set(keyringKey(cmd.Key), value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", cmd.Key, err)
	}
	ctx.Printf("✓ %s stored successfully in OS keyring\n", cmd.Key)
	return nil
}

// KeyringGetCmd prints a stored secret with its sensitive part masked.
type KeyringGetCmd struct {
	Key string `arg:"" enum:"llm-token,connection-string" help:"Secret to show."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	value, err := keyring.Get(keyringKey(cmd.Key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring. Use 'goalkeeper keyring set %s' to store one", cmd.Key, cmd.Key)
		}
		return fmt.Errorf("failed to retrieve %s from keyring: %w", cmd.Key, err)
	}

	if cmd.Key == keyConnectionString {
		ctx.Println(maskPassword(value))
	} else {
		ctx.Println(maskToken(value))
	}
	return nil
}

type KeyringDeleteCmd struct {
	Key string `arg:"" enum:"llm-token,connection-string" help:"Secret to delete."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.Delete(keyringKey(cmd.Key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", cmd.Key)
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", cmd.Key, err)
	}
	ctx.Printf("✓ %s deleted from OS keyring\n", cmd.Key)
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	ctx.Println("✓ OS keyring is available")
	for _, name := range []string{keyLLMToken, keyConnectionString} {
		_, err := keyring.Get(keyringKey(name))
		switch {
		case err == nil:
			ctx.Printf("✓ %s is stored in keyring\n", name)
		case errors.Is(err, keyring.ErrNotFound):
			ctx.Printf("ℹ No %s stored in keyring\n", name)
		default:
			ctx.Printf("❌ %s: %v\n", name, err)
		}
	}
	return nil
}

// maskToken keeps the first four characters of a token.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}

// maskPassword masks passwords in connection strings for display.
func maskPassword(connStr string) string {
	if postgres.IsConnString(connStr) {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}
