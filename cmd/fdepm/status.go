package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/config"
	"github.com/fdepm/painel/pkg/credential"
	"github.com/fdepm/painel/pkg/reader/transparencia"
)

const pingTimeout = 15 * time.Second

func newStatusCmd(a *app) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check configuration, credential and upstream connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok := a.runStatus(cmd.Context(), cmd.OutOrStdout(), offline)
			if !ok {
				return errors.New("some checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the upstream connectivity checks")
	return cmd
}

// runStatus prints one line per check and reports whether all passed.
func (a *app) runStatus(ctx context.Context, w io.Writer, offline bool) bool {
	fmt.Fprintln(w, "=== FDEPM Status ===")
	fmt.Fprintln(w)

	allGood := true

	cfg, err := a.loadConfig()
	fmt.Fprint(w, "Configuration: ")
	if err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		printFinalStatus(w, false)
		return false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		allGood = false
	} else {
		fmt.Fprintf(w, "✓ year %d, unit %s, org %s\n", cfg.Year, cfg.UnitCode, cfg.OrgCode)
	}

	fmt.Fprintf(w, "Writer plugin (%s): ", cfg.WriterPlugin)
	if registry, err := newRegistry(); err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		allGood = false
	} else if _, err := registry.GetWriter(cfg.WriterPlugin); err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		allGood = false
	} else {
		fmt.Fprintln(w, "✓ Available")
	}

	key := checkCredential(ctx, w, cfg, &allGood)

	if offline {
		fmt.Fprintln(w, "Connectivity: skipped (--offline)")
	} else {
		a.checkConnectivity(ctx, w, cfg, key, &allGood)
	}

	printFinalStatus(w, allGood)
	return allGood
}

// checkCredential looks up the key without prompting.
func checkCredential(ctx context.Context, w io.Writer, cfg config.Config, allGood *bool) string {
	fmt.Fprintf(w, "API key (%s): ", credential.EnvVar)

	var provider credential.Provider = credential.Env{File: cfg.EnvFile}
	if !credential.Blank(cfg.APIKey) {
		provider = credential.Static(cfg.APIKey)
	}

	key, err := provider.APIKey(ctx)
	switch {
	case errors.Is(err, api.ErrMissingCredential):
		if cfg.CredentialSource == credential.SourcePrompt {
			fmt.Fprintln(w, "⚠ Not stored (will prompt on report)")
		} else {
			fmt.Fprintln(w, "✗ Not set (run 'fdepm setup')")
			*allGood = false
		}
	case err != nil:
		fmt.Fprintf(w, "✗ %v\n", err)
		*allGood = false
	default:
		fmt.Fprintf(w, "✓ %s\n", credential.Mask(key))
	}
	return key
}

func (a *app) checkConnectivity(ctx context.Context, w io.Writer, cfg config.Config, key string, allGood *bool) {
	expenditures, revenues := newReaders(cfg, a.logger)

	fmt.Fprintf(w, "SIOP endpoint (%s): ", cfg.SIOPURL)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := expenditures.Ping(pingCtx)
	cancel()
	if err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		*allGood = false
	} else {
		fmt.Fprintln(w, "✓ Reachable")
	}

	fmt.Fprintf(w, "Portal da Transparência (%s): ", cfg.RevenueURL)
	if credential.Blank(key) {
		fmt.Fprintln(w, "- skipped (no API key)")
		return
	}
	pingCtx, cancel = context.WithTimeout(ctx, pingTimeout)
	err = revenues.Ping(pingCtx, cfg.Year, cfg.OrgCode, key)
	cancel()
	switch {
	case transparencia.IsAuthError(err):
		fmt.Fprintln(w, "✗ API key rejected")
		*allGood = false
	case err != nil:
		fmt.Fprintf(w, "✗ %v\n", err)
		*allGood = false
	default:
		fmt.Fprintln(w, "✓ Key accepted")
	}
}

func printFinalStatus(w io.Writer, allGood bool) {
	fmt.Fprintln(w)
	if allGood {
		fmt.Fprintln(w, "=== All checks passed ===")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Run 'fdepm report' to render the dashboard.")
		return
	}
	fmt.Fprintln(w, "=== Some checks failed ===")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'fdepm setup' to store an API key, or see 'fdepm --help'.")
}
