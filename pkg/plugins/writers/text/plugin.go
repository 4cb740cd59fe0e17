// Package text provides a plugin wrapper for the terminal text writer.
package text

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/currency"
	textwriter "github.com/fdepm/painel/pkg/writer/text"
)

// Plugin implements the WriterPlugin interface for terminal output.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "text"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Render metrics, bar charts and tables as text"
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filePath": map[string]any{
				"type":        "string",
				"description": "Write to this file instead of stdout",
			},
			"maxRows": map[string]any{
				"type":        "integer",
				"description": "Rows shown per raw table, -1 for all (default: 20)",
				"default":     textwriter.DefaultMaxRows,
			},
			"maxBars": map[string]any{
				"type":        "integer",
				"description": "Bars shown per chart before the rest is folded into \"Outros\" (default: all)",
			},
			"barWidth": map[string]any{
				"type":        "integer",
				"description": "Width of the longest chart bar (default: 40)",
				"default":     textwriter.DefaultBarWidth,
			},
		},
	}
}

// Config represents the text writer configuration.
type Config struct {
	FilePath string `json:"filePath,omitempty"`
	MaxRows  int    `json:"maxRows,omitempty"`
	MaxBars  int    `json:"maxBars,omitempty"`
	BarWidth int    `json:"barWidth,omitempty"`
}

// NewWriter creates a new text writer instance.
func (p *Plugin) NewWriter(fmtr *currency.Formatter, configData json.RawMessage, logger *slog.Logger) (api.ReportWriter, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling text config: %w", err)
	}

	writerCfg := textwriter.Config{
		FilePath: cfg.FilePath,
		MaxRows:  cfg.MaxRows,
		MaxBars:  cfg.MaxBars,
		BarWidth: cfg.BarWidth,
	}

	return textwriter.New(fmtr, writerCfg, logger)
}
