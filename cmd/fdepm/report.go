package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fdepm/painel/internal/dashboard"
	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/config"
	"github.com/fdepm/painel/pkg/credential"
	"github.com/fdepm/painel/pkg/currency"
)

type reportFlags struct {
	year             int
	unitCode         string
	orgCode          string
	writer           string
	writerConfig     string
	apiKey           string
	credentialSource string
}

func newReportCmd(a *app) *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Fetch, aggregate and render the dashboard for one fiscal year",
		Example: `  fdepm report --year 2023
  fdepm report --writer xlsx --writer-config '{"filePath":"painel.xlsx"}'
  fdepm report --credential-source prompt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return a.runReport(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&f.year, "year", 0, "fiscal year (default from FDEPM_YEAR)")
	flags.StringVar(&f.unitCode, "unit", "", "budget unit code for expenditures")
	flags.StringVar(&f.orgCode, "org", "", "organization code for revenues")
	flags.StringVarP(&f.writer, "writer", "w", "", "writer plugin (text, csv, json, xlsx)")
	flags.StringVar(&f.writerConfig, "writer-config", "", "writer plugin configuration as JSON")
	flags.StringVar(&f.apiKey, "api-key", "", "Portal da Transparência API key")
	flags.StringVar(&f.credentialSource, "credential-source", "", "where to read the API key: env or prompt")

	return cmd
}

// apply overrides cfg with the flags the user set explicitly.
func (f reportFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("year") {
		cfg.Year = f.year
	}
	if changed("unit") {
		cfg.UnitCode = f.unitCode
	}
	if changed("org") {
		cfg.OrgCode = f.orgCode
	}
	if changed("writer") {
		cfg.WriterPlugin = f.writer
		// A writer chosen on the command line does not inherit another
		// plugin's configuration from the environment.
		if !changed("writer-config") {
			cfg.WriterConfig = nil
		}
	}
	if changed("writer-config") {
		cfg.WriterConfig = json.RawMessage(f.writerConfig)
	}
	if changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if changed("credential-source") {
		cfg.CredentialSource = f.credentialSource
	}
}

func (a *app) runReport(cmd *cobra.Command, cfg config.Config) error {
	registry, err := newRegistry()
	if err != nil {
		return err
	}

	creds, err := credential.FromSource(cfg.CredentialSource, cfg.APIKey, cfg.EnvFile, a.logger.With("component", "credential"))
	if err != nil {
		return err
	}

	expenditures, revenues := newReaders(cfg, a.logger)
	fmtr := currency.New(currency.Config{Locale: cfg.Locale, Symbol: cfg.CurrencySymbol}, a.logger)

	runner := dashboard.New(dashboard.Deps{
		Registry:     registry,
		Formatter:    fmtr,
		Expenditures: expenditures,
		Revenues:     revenues,
		Credentials:  creds,
	}, dashboard.Config{MinYear: cfg.MinYear, MaxYear: cfg.MaxYear}, a.logger)

	report, err := runner.Run(cmd.Context(), api.FetchRequest{
		Year:     cfg.Year,
		UnitCode: cfg.UnitCode,
		OrgCode:  cfg.OrgCode,
	}, cfg.WriterPlugin, cfg.WriterConfig)
	if err != nil {
		a.logger.Error("report failed", "error", err)
		return err
	}

	if report.Expenditure.Status == api.StatusError && report.Revenue.Status == api.StatusError {
		return fmt.Errorf("both providers failed")
	}
	return nil
}
