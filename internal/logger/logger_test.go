package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "config", "logs")

	if err := Init(Config{Dir: logDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { Logger = nil }()

	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}
	if Logger.GetLevel() != log.WarnLevel {
		t.Errorf("level = %v, want %v", Logger.GetLevel(), log.WarnLevel)
	}

	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}

func TestInitJSONWritesFile(t *testing.T) {
	logDir := t.TempDir()
	if err := Init(Config{Dir: logDir, Level: "info", Format: "JSON"}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { Logger = nil }()

	Info("Goal created", "goal", "g1")
	Debug("Hidden at info level")

	data, err := os.ReadFile(filepath.Join(logDir, "goalkeeper.log"))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %s", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v: %s", err, lines[0])
	}
	if entry["msg"] != "Goal created" || entry["goal"] != "g1" {
		t.Errorf("entry = %v, want msg and goal fields", entry)
	}
}

func TestRotatorDefaults(t *testing.T) {
	r := rotator(Config{Dir: "/var/log/gk", MaxBackups: 7})
	if r.Filename != filepath.Join("/var/log/gk", "goalkeeper.log") {
		t.Errorf("filename = %s", r.Filename)
	}
	if r.MaxSize != 10 || r.MaxBackups != 7 || r.MaxAge != 28 {
		t.Errorf("rotation = %d MB, %d backups, %d days; want 10, 7, 28", r.MaxSize, r.MaxBackups, r.MaxAge)
	}
}

func TestResolveFormatter(t *testing.T) {
	tests := []struct {
		in   string
		want log.Formatter
	}{
		{"", log.TextFormatter},
		{"text", log.TextFormatter},
		{"json", log.JSONFormatter},
		{"logfmt", log.LogfmtFormatter},
		{"xml", log.TextFormatter},
	}
	for _, tt := range tests {
		if got := resolveFormatter(tt.in); got != tt.want {
			t.Errorf("resolveFormatter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want log.Level
	}{
		{"default is warn", Config{}, log.WarnLevel},
		{"debug flag", Config{Debug: true}, log.DebugLevel},
		{"explicit level wins", Config{Debug: true, Level: "error"}, log.ErrorLevel},
		{"explicit level is case-insensitive", Config{Level: "INFO"}, log.InfoLevel},
		{"unknown level falls back", Config{Level: "loud"}, log.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveLevel(tt.cfg); got != tt.want {
				t.Errorf("resolveLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHelpersWithoutInit(t *testing.T) {
	Logger = nil

	// None of these may panic before Init.
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")

	if With("component", "test") == nil {
		t.Error("With() returned nil without an initialized logger")
	}
}
