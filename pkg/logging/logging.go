// Package logging provides structured logging configuration using log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fdepm/painel/pkg/credential"
)

// secretKeys are attribute keys whose values are masked before output.
var secretKeys = map[string]bool{
	"api_key":         true,
	"chave-api-dados": true,
	"PORTAL_API_KEY":  true,
}

// Config holds logging configuration options.
type Config struct {
	// Level is the minimum log level to output.
	Level slog.Level
	// JSON enables JSON output format.
	JSON bool
	// Output is the writer to write logs to. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns a logging configuration read from the environment.
// LOG_LEVEL accepts DEBUG, INFO, WARN or ERROR (default INFO) and LOG_FORMAT
// accepts text or json (default text).
func DefaultConfig() Config {
	return Config{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		JSON:   strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		Output: os.Stderr,
	}
}

// ParseLevel converts a string log level to slog.Level. Unknown values are INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the default slog logger with the given configuration.
func Setup(cfg Config) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger without installing it as the default.
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       cfg.Level,
		ReplaceAttr: maskSecrets,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.New(handler)
}

func maskSecrets(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[a.Key] && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, credential.Mask(a.Value.String()))
	}
	return a
}
