package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// EnvLogLevel overrides the default log level.
	EnvLogLevel = "EC3000_LOG_LEVEL"
	// EnvJSONLog switches to JSON output when set to "1".
	EnvJSONLog = "EC3000_JSON_LOG"

	linePrefix = "📡 "
)

// NewLogger creates a new hclog logger with standard settings
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv(EnvJSONLog) == "1"
	if !jsonFormat {
		output = NewPrefixWriter(linePrefix, output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// ResolveLogLevel returns flagLevel when set, then the environment, then "warn".
func ResolveLogLevel(flagLevel string) string {
	if flagLevel != "" {
		return flagLevel
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		return level
	}
	return "warn"
}
