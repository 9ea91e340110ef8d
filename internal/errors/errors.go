package errors

import (
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/goalkeeper/internal/logger"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// FormatList renders several errors as an indented list under one header.
// Nil entries are skipped; an empty result means nothing was reported.
func FormatList(header string, errs []error) string {
	var lines []string
	for _, err := range errs {
		if err != nil {
			lines = append(lines, "  - "+err.Error())
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return fmt.Sprintf("Error: %s\n%s", header, strings.Join(lines, "\n"))
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
