// Package csv provides a plugin wrapper for the CSV writer.
package csv

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/currency"
	csvwriter "github.com/fdepm/painel/pkg/writer/csv"
)

// Plugin implements the WriterPlugin interface for CSV files.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "csv"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Write report tables and series to CSV files in a directory"
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"dir": map[string]any{
				"type":        "string",
				"description": "Output directory for the CSV files",
			},
			"delimiter": map[string]any{
				"type":        "string",
				"description": "Field delimiter (default: \",\")",
				"default":     ",",
			},
		},
		"required": []string{"dir"},
	}
}

// Config represents the CSV writer configuration.
type Config struct {
	Dir       string `json:"dir"`
	Delimiter string `json:"delimiter,omitempty"`
}

// NewWriter creates a new CSV writer instance.
func (p *Plugin) NewWriter(_ *currency.Formatter, configData json.RawMessage, logger *slog.Logger) (api.ReportWriter, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling csv config: %w", err)
	}

	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}

	writerCfg := csvwriter.Config{Dir: cfg.Dir}
	if cfg.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(cfg.Delimiter)
		if size != len(cfg.Delimiter) {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", cfg.Delimiter)
		}
		writerCfg.Comma = r
	}

	return csvwriter.New(writerCfg, logger)
}
