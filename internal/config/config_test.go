package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Port != constants.DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, constants.DefaultPort)
	}
	if cfg.Server.UserHeader != constants.DefaultUserHeader {
		t.Errorf("Server.UserHeader = %q", cfg.Server.UserHeader)
	}
	if cfg.Local.UserID != constants.DefaultLocalUserID {
		t.Errorf("Local.UserID = %q", cfg.Local.UserID)
	}
	if cfg.LLM.Token.IsSet() {
		t.Error("LLM token should be empty by default")
	}
	if cfg.LLM.Timeout != constants.DefaultLLMTimeout {
		t.Errorf("LLM.Timeout = %v", cfg.LLM.Timeout)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  host: 0.0.0.0
llm:
  base_url: https://llm.example.com/v1
  timeout: 15s
  token: from-file
identity:
  webhook_secret: whsec_abc
log:
  format: json
  max_backups: 5
`)
	t.Setenv("GOALKEEPER_SERVER_PORT", "9100")
	t.Setenv("GOALKEEPER_LLM_TOKEN", "from-env")
	t.Setenv("GOALKEEPER_SERVER_USER_HEADER", "X-Auth-User")
	t.Setenv("GOALKEEPER_LOG_MAX_SIZE_MB", "50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q", cfg.Server.Host)
	}
	if cfg.Server.UserHeader != "X-Auth-User" {
		t.Errorf("Server.UserHeader = %q", cfg.Server.UserHeader)
	}
	if cfg.LLM.Token.Value() != "from-env" {
		t.Errorf("LLM.Token = %q, want from-env", cfg.LLM.Token.Value())
	}
	if cfg.LLM.Timeout != 15*time.Second {
		t.Errorf("LLM.Timeout = %v", cfg.LLM.Timeout)
	}
	if cfg.Identity.WebhookSecret.Value() != "whsec_abc" {
		t.Errorf("Identity.WebhookSecret = %q", cfg.Identity.WebhookSecret.Value())
	}
	if cfg.Log.Format != "json" || cfg.Log.MaxBackups != 5 || cfg.Log.MaxSizeMB != 50 {
		t.Errorf("Log = %+v, want json format, 5 backups, 50 MB", cfg.Log)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"bad timezone", "local:\n  timezone: Mars/Olympus\n"},
		{"bad temperature", "llm:\n  temperature: 3.5\n"},
		{"bad yaml", "server: [\n"},
		{"unknown log format", "log:\n  format: xml\n"},
		{"negative log backups", "log:\n  max_backups: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"GOALKEEPER_SERVER_PORT":             "server.port",
		"GOALKEEPER_LLM_BASE_URL":            "llm.base_url",
		"GOALKEEPER_IDENTITY_WEBHOOK_SECRET": "identity.webhook_secret",
		"GOALKEEPER_DEBUG":                   "debug",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("hunter2")
	if got := fmt.Sprintf("%s %v %#v", s, s, s); got != "[REDACTED] [REDACTED] Secret([REDACTED])" {
		t.Errorf("formatted secret = %q", got)
	}
	b, err := json.Marshal(struct{ Token Secret }{s})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if string(b) != `{"Token":"[REDACTED]"}` {
		t.Errorf("json = %s", b)
	}
	if Secret("").String() != "" {
		t.Error("empty secret should print empty")
	}
}
