// Package plugins provides a plugin registry for report writers.
package plugins

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/currency"
)

// WriterPlugin defines the interface for report writer plugins.
type WriterPlugin interface {
	// Name returns the plugin name (e.g., "text", "csv", "xlsx").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ConfigSchema returns a JSON schema describing the plugin's configuration.
	ConfigSchema() map[string]any
	// NewWriter creates a new writer instance with the given config.
	NewWriter(fmtr *currency.Formatter, config json.RawMessage, logger *slog.Logger) (api.ReportWriter, error)
}

// Registry manages available writer plugins.
type Registry struct {
	writers map[string]WriterPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		writers: make(map[string]WriterPlugin),
	}
}

// RegisterWriter registers a writer plugin.
func (r *Registry) RegisterWriter(plugin WriterPlugin) error {
	name := plugin.Name()
	if _, exists := r.writers[name]; exists {
		return fmt.Errorf("writer plugin %q already registered", name)
	}
	r.writers[name] = plugin
	return nil
}

// GetWriter returns a writer plugin by name.
func (r *Registry) GetWriter(name string) (WriterPlugin, error) {
	plugin, exists := r.writers[name]
	if !exists {
		return nil, fmt.Errorf("writer plugin %q not found (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return plugin, nil
}

// ListWriters returns all registered writer plugins sorted by name.
func (r *Registry) ListWriters() []WriterPlugin {
	plugins := make([]WriterPlugin, 0, len(r.writers))
	for _, name := range r.Names() {
		plugins = append(plugins, r.writers[name])
	}
	return plugins
}

// Names returns the registered plugin names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.writers))
	for name := range r.writers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CreateWriter creates a writer instance from a plugin. An empty config is
// treated as "{}".
func (r *Registry) CreateWriter(name string, fmtr *currency.Formatter, config json.RawMessage, logger *slog.Logger) (api.ReportWriter, error) {
	plugin, err := r.GetWriter(name)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(config))) == 0 {
		config = json.RawMessage("{}")
	}
	return plugin.NewWriter(fmtr, config, logger)
}
