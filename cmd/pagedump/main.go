// Command pagedump saves raw Portal da Transparência revenue pages to files.
// This utility is used to collect response samples for unit testing.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fdepm/painel/pkg/client"
	"github.com/fdepm/painel/pkg/config"
	"github.com/fdepm/painel/pkg/credential"
	"github.com/fdepm/painel/pkg/logging"
	"github.com/fdepm/painel/pkg/reader/transparencia"
)

const defaultDumpDir = "testdata/dump"

type options struct {
	dir      string
	year     int
	orgCode  string
	maxPages int
	envFile  string
}

func main() {
	logger := logging.Setup(logging.DefaultConfig())
	if err := newCmd(logger).Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd(logger *slog.Logger) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:          "pagedump",
		Short:        "Dump raw revenue pages for use as test fixtures",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd, o, logger)
		},
	}

	cmd.Flags().StringVar(&o.dir, "dir", defaultDumpDir, "directory to write pages to")
	cmd.Flags().IntVar(&o.year, "year", 0, "fiscal year (default from FDEPM_YEAR)")
	cmd.Flags().StringVar(&o.orgCode, "org", "", "organization code (default from FDEPM_ORG_CODE)")
	cmd.Flags().IntVar(&o.maxPages, "max-pages", 5, "stop after this many pages")
	cmd.Flags().StringVar(&o.envFile, "env-file", config.DefaultEnvFile, "dotenv file to load")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, o options, logger *slog.Logger) error {
	cfg, err := config.Load(config.LoadOptions{EnvFile: o.envFile})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("year") {
		cfg.Year = o.year
	}
	if o.orgCode != "" {
		cfg.OrgCode = o.orgCode
	}

	creds, err := credential.FromSource(cfg.CredentialSource, cfg.APIKey, cfg.EnvFile, logger)
	if err != nil {
		return err
	}
	key, err := creds.APIKey(ctx)
	if err != nil {
		return fmt.Errorf("resolving api key: %w", err)
	}

	reader := transparencia.New(
		client.New(client.Config{Timeout: cfg.HTTPTimeout}, logger),
		transparencia.Config{URL: cfg.RevenueURL},
		logger,
	)

	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return fmt.Errorf("creating dump directory: %w", err)
	}

	dumped := 0
	for page := 1; page <= o.maxPages; page++ {
		n, err := dumpPage(ctx, reader, cfg, key, page, o.dir, logger)
		if err != nil {
			return fmt.Errorf("dumping page %d: %w", page, err)
		}
		if n == 0 {
			break
		}
		dumped++
	}

	logger.Info("page dump complete", "pages", dumped, "directory", o.dir)
	return nil
}

// dumpPage writes one page and returns its record count.
func dumpPage(ctx context.Context, reader *transparencia.Reader, cfg config.Config, key string, page int, dir string, logger *slog.Logger) (int, error) {
	body, err := reader.RawPage(ctx, cfg.Year, cfg.OrgCode, key, page)
	if err != nil {
		return 0, err
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return 0, fmt.Errorf("decoding page: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return 0, fmt.Errorf("formatting page: %w", err)
	}

	filename := fmt.Sprintf("receitas_%s_%d_p%03d.json", cfg.OrgCode, cfg.Year, page)
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); err == nil {
		logger.Debug("file already exists, skipping", "file", filename)
		return len(records), nil
	}

	if err := os.WriteFile(path, pretty.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}
	logger.Info("dumped page", "file", filename, "records", len(records))
	return len(records), nil
}
