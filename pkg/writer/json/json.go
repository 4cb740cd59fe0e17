// Package json implements a ReportWriter that writes the whole report as JSON.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fdepm/painel/pkg/api"
)

// Writer writes reports as a single JSON document.
type Writer struct {
	filePath string
	out      io.Writer
	indent   bool
	logger   *slog.Logger
}

// Config holds configuration for the JSON writer.
type Config struct {
	// FilePath is the output file. Empty or "-" writes to Output.
	FilePath string
	// Indent pretty-prints the document.
	Indent bool
	// Output is used when FilePath is empty. Defaults to os.Stdout.
	Output io.Writer
}

// New creates a new JSON writer.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FilePath == "-" {
		cfg.FilePath = ""
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	return &Writer{
		filePath: cfg.FilePath,
		out:      cfg.Output,
		indent:   cfg.Indent,
		logger:   logger,
	}, nil
}

// WriteReport implements api.ReportWriter.
func (w *Writer) WriteReport(ctx context.Context, report *api.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	data = append(data, '\n')

	if w.filePath == "" {
		if _, err := w.out.Write(data); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(w.filePath, data, 0o600); err != nil {
		return fmt.Errorf("writing json file: %w", err)
	}
	w.logger.Info("wrote report", "file", w.filePath, "bytes", len(data))
	return nil
}
