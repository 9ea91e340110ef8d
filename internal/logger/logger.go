package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/goalkeeper/internal/constants"
)

// Logger is the process-wide logger. It stays nil until Init runs, and every
// helper below tolerates that so library code can log unconditionally.
var Logger *log.Logger

// Config controls where log lines go and how the file rotates. Zero rotation
// values fall back to the constants package defaults.
type Config struct {
	Debug  bool
	Level  string // overrides the level implied by Debug when set
	Format string // text, json or logfmt
	Dir    string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Mirror copies lines to stderr outside debug mode. serve sets it so the
	// server log is visible to whatever supervises the process.
	Mirror bool
}

// Init builds the global logger writing to <Dir>/goalkeeper.log.
func Init(cfg Config) error {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return err
	}

	var w io.Writer = rotator(cfg)
	if cfg.Debug || cfg.Mirror {
		w = io.MultiWriter(os.Stderr, w)
	}

	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           resolveLevel(cfg),
		Prefix:          constants.AppName,
		Formatter:       resolveFormatter(cfg.Format),
	})
	return nil
}

func rotator(cfg Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, constants.AppName+".log"),
		MaxSize:    orDefault(cfg.MaxSizeMB, constants.LogMaxSizeMB),
		MaxBackups: orDefault(cfg.MaxBackups, constants.LogMaxBackups),
		MaxAge:     orDefault(cfg.MaxAgeDays, constants.LogMaxAgeDays),
		Compress:   true,
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func resolveLevel(cfg Config) log.Level {
	if cfg.Level != "" {
		if lvl, err := log.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
			return lvl
		}
	}
	if cfg.Debug {
		return log.DebugLevel
	}
	return log.WarnLevel
}

func resolveFormatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case constants.LogFormatJSON:
		return log.JSONFormatter
	case constants.LogFormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// With returns a child logger carrying the given key/value pairs. When the
// global logger is not initialized a discarding logger is returned.
func With(keyvals ...interface{}) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With(keyvals...)
}

func logAt(level log.Level, msg string, keyvals []interface{}) {
	if Logger != nil {
		Logger.Log(level, msg, keyvals...)
	}
}

func Debug(msg string, keyvals ...interface{}) { logAt(log.DebugLevel, msg, keyvals) }
func Info(msg string, keyvals ...interface{})  { logAt(log.InfoLevel, msg, keyvals) }
func Warn(msg string, keyvals ...interface{})  { logAt(log.WarnLevel, msg, keyvals) }
func Error(msg string, keyvals ...interface{}) { logAt(log.ErrorLevel, msg, keyvals) }

// Fatal logs at fatal level and exits with status 1.
func Fatal(msg string, keyvals ...interface{}) {
	logAt(log.FatalLevel, msg, keyvals)
	os.Exit(1)
}
