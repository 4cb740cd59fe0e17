package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fdepm/painel/pkg/config"
	"github.com/fdepm/painel/pkg/credential"
	"github.com/fdepm/painel/pkg/reader/transparencia"
)

type setupFlags struct {
	force    bool
	apiKey   string
	noVerify bool
}

func newSetupCmd(a *app) *cobra.Command {
	var f setupFlags

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Store the Portal da Transparência API key in the dotenv file",
		Long: `setup asks for the Portal da Transparência API key, checks it against the
revenue API and saves it as PORTAL_API_KEY in the dotenv file (default .env).

Keys are issued at https://portaldatransparencia.gov.br/api-de-dados/cadastrar-email`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.runSetup(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cfg, f)
		},
	}

	cmd.Flags().BoolVar(&f.force, "force", false, "replace a key that is already stored")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "key to store instead of prompting")
	cmd.Flags().BoolVar(&f.noVerify, "no-verify", false, "store the key without checking it")
	return cmd
}

func (a *app) runSetup(ctx context.Context, in io.Reader, out io.Writer, cfg config.Config, f setupFlags) error {
	fmt.Fprintln(out, "=== FDEPM Setup ===")
	fmt.Fprintln(out)

	if !f.force {
		stored, err := godotenv.Read(cfg.EnvFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", cfg.EnvFile, err)
		}
		if key := stored[credential.EnvVar]; !credential.Blank(key) {
			fmt.Fprintf(out, "An API key is already stored in %s: %s\n", cfg.EnvFile, credential.Mask(key))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "To replace it, run: fdepm setup --force")
			return nil
		}
	}

	key := f.apiKey
	if credential.Blank(key) {
		prompt := credential.NewPrompt(a.logger)
		prompt.In, prompt.Out = in, out
		var err error
		if key, err = prompt.APIKey(ctx); err != nil {
			return fmt.Errorf("reading api key: %w", err)
		}
	}

	if !f.noVerify {
		fmt.Fprint(out, "Checking key against the revenue API... ")
		_, revenues := newReaders(cfg, a.logger)
		err := revenues.Ping(ctx, cfg.Year, cfg.OrgCode, key)
		switch {
		case transparencia.IsAuthError(err):
			fmt.Fprintln(out, "✗")
			return fmt.Errorf("api key rejected: %w", err)
		case err != nil:
			fmt.Fprintln(out, "⚠")
			a.logger.Warn("could not verify api key, storing it anyway", "error", err)
		default:
			fmt.Fprintln(out, "✓")
		}
	}

	if err := credential.Save(cfg.EnvFile, key); err != nil {
		return fmt.Errorf("saving api key: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Setup Complete ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Key saved to: %s\n", cfg.EnvFile)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Run 'fdepm status' to check connectivity")
	fmt.Fprintln(out, "  2. Run 'fdepm report' to render the dashboard")
	fmt.Fprintln(out)
	return nil
}
