// Command fdepm renders the FDEPM budget dashboard from SIOP expenditures and
// Portal da Transparência revenues.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fdepm/painel/internal/plugins"
	"github.com/fdepm/painel/pkg/cache"
	"github.com/fdepm/painel/pkg/client"
	"github.com/fdepm/painel/pkg/config"
	"github.com/fdepm/painel/pkg/logging"
	csvplugin "github.com/fdepm/painel/pkg/plugins/writers/csv"
	jsonplugin "github.com/fdepm/painel/pkg/plugins/writers/json"
	textplugin "github.com/fdepm/painel/pkg/plugins/writers/text"
	xlsxplugin "github.com/fdepm/painel/pkg/plugins/writers/xlsx"
	"github.com/fdepm/painel/pkg/reader/siop"
	"github.com/fdepm/painel/pkg/reader/transparencia"
)

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := newRootCmd(logger).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand.
type app struct {
	logger     *slog.Logger
	configFile string
	envFile    string
	verbose    bool
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	a := &app{logger: logger}

	root := &cobra.Command{
		Use:   "fdepm",
		Short: "Budget dashboard for the Fundo de Desenvolvimento do Ensino Profissional Marítimo",
		Long: `fdepm fetches the fund's expenditures from the SIOP SPARQL endpoint and its
revenues from the Portal da Transparência API, aggregates them and renders a
report as text, CSV, JSON or an XLSX workbook.

Configuration is read from .env, an optional JSON file (--config) and the
environment, in increasing order of precedence.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if a.verbose {
				cfg := logging.DefaultConfig()
				cfg.Level = slog.LevelDebug
				a.logger = logging.Setup(cfg)
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "path to a JSON configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", config.DefaultEnvFile, "dotenv file to load")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newReportCmd(a),
		newStatusCmd(a),
		newSetupCmd(a),
		newWritersCmd(),
		newVersionCmd(),
	)
	return root
}

func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: a.configFile, EnvFile: a.envFile})
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newRegistry registers every writer plugin.
func newRegistry() (*plugins.Registry, error) {
	registry := plugins.NewRegistry()
	for _, p := range []plugins.WriterPlugin{
		&textplugin.Plugin{},
		&csvplugin.Plugin{},
		&jsonplugin.Plugin{},
		&xlsxplugin.Plugin{},
	} {
		if err := registry.RegisterWriter(p); err != nil {
			return nil, fmt.Errorf("registering %s plugin: %w", p.Name(), err)
		}
	}
	return registry, nil
}

// newReaders builds both upstream readers. SIOP gets its own client so that
// relaxed TLS never applies to the revenue API.
func newReaders(cfg config.Config, logger *slog.Logger) (*siop.Reader, *transparencia.Reader) {
	memo := cache.Config{MaxEntries: cfg.CacheMaxEntries, TTL: cfg.CacheTTL}

	siopClient := client.New(client.Config{
		Timeout:            cfg.HTTPTimeout,
		InsecureSkipVerify: cfg.SIOPInsecureSkipVerify,
	}, logger)
	portalClient := client.New(client.Config{Timeout: cfg.HTTPTimeout}, logger)

	expenditures := siop.New(siopClient, siop.Config{
		URL:   cfg.SIOPURL,
		Cache: memo,
	}, logger)

	revenues := transparencia.New(portalClient, transparencia.Config{
		URL:      cfg.RevenueURL,
		MaxPages: cfg.RevenueMaxPages,
		Cache:    memo,
	}, logger)

	return expenditures, revenues
}
