// Package xlsx provides a plugin wrapper for the Excel workbook writer.
package xlsx

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/currency"
	xlsxwriter "github.com/fdepm/painel/pkg/writer/xlsx"
)

// Plugin implements the WriterPlugin interface for XLSX workbooks.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "xlsx"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Write an Excel workbook with summary, charted series and raw data sheets"
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filePath": map[string]any{
				"type":        "string",
				"description": "Path to the .xlsx output file",
			},
			"disableCharts": map[string]any{
				"type":        "boolean",
				"description": "Skip the bar charts (default: false)",
				"default":     false,
			},
		},
		"required": []string{"filePath"},
	}
}

// Config represents the XLSX writer configuration.
type Config struct {
	FilePath      string `json:"filePath"`
	DisableCharts bool   `json:"disableCharts,omitempty"`
}

// NewWriter creates a new XLSX writer instance.
func (p *Plugin) NewWriter(_ *currency.Formatter, configData json.RawMessage, logger *slog.Logger) (api.ReportWriter, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling xlsx config: %w", err)
	}

	if cfg.FilePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}

	return xlsxwriter.New(xlsxwriter.Config{
		FilePath:      cfg.FilePath,
		DisableCharts: cfg.DisableCharts,
	}, logger)
}
