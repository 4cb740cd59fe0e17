// Package json provides a plugin wrapper for the JSON writer.
package json

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/currency"
	jsonwriter "github.com/fdepm/painel/pkg/writer/json"
)

// Plugin implements the WriterPlugin interface for JSON output.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "json"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Write the full report as a JSON document"
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filePath": map[string]any{
				"type":        "string",
				"description": "Path to the JSON output file (default: stdout)",
			},
			"indent": map[string]any{
				"type":        "boolean",
				"description": "Pretty-print the document (default: true)",
				"default":     true,
			},
		},
	}
}

// Config represents the JSON writer configuration.
type Config struct {
	FilePath string `json:"filePath,omitempty"`
	Indent   *bool  `json:"indent,omitempty"`
}

// NewWriter creates a new JSON writer instance.
func (p *Plugin) NewWriter(_ *currency.Formatter, configData json.RawMessage, logger *slog.Logger) (api.ReportWriter, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling json config: %w", err)
	}

	writerCfg := jsonwriter.Config{
		FilePath: cfg.FilePath,
		Indent:   cfg.Indent == nil || *cfg.Indent,
	}

	return jsonwriter.New(writerCfg, logger)
}
