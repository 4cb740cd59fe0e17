// Package credential supplies the transparency portal API key from the
// environment, a .env file or an interactive prompt.
package credential

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/fdepm/painel/pkg/api"
)

// EnvVar is the environment variable holding the portal API key.
const EnvVar = "PORTAL_API_KEY"

// DefaultEnvFile is the dotenv file read by Env and written by Save.
const DefaultEnvFile = ".env"

// Source names accepted by FromSource.
const (
	SourceEnv    = "env"
	SourcePrompt = "prompt"
)

// Provider returns the API key to forward to the revenue API.
// An empty or whitespace-only key yields api.ErrMissingCredential.
type Provider interface {
	APIKey(ctx context.Context) (string, error)
}

// Blank reports whether key is empty or whitespace only.
func Blank(key string) bool {
	return strings.TrimSpace(key) == ""
}

// Mask returns a loggable preview of key: its first four characters
// followed by asterisks.
func Mask(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	r := []rune(key)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:4]) + strings.Repeat("*", min(len(r)-4, 8))
}

func check(key string) (string, error) {
	if Blank(key) {
		return "", api.ErrMissingCredential
	}
	return strings.TrimSpace(key), nil
}

// Static is a fixed key, typically supplied on the command line.
type Static string

// APIKey implements Provider.
func (s Static) APIKey(context.Context) (string, error) {
	return check(string(s))
}

// Env reads the key from the process environment, falling back to a dotenv file.
type Env struct {
	// Var defaults to EnvVar.
	Var string
	// File is an optional dotenv file consulted when Var is unset.
	File string
}

// APIKey implements Provider.
func (e Env) APIKey(context.Context) (string, error) {
	name := e.Var
	if name == "" {
		name = EnvVar
	}

	if v, ok := os.LookupEnv(name); ok && !Blank(v) {
		return strings.TrimSpace(v), nil
	}
	if e.File == "" {
		return "", api.ErrMissingCredential
	}

	values, err := godotenv.Read(e.File)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", api.ErrMissingCredential
		}
		return "", fmt.Errorf("reading %s: %w", e.File, err)
	}
	return check(values[name])
}

// Prompt asks for the key interactively. Input from a terminal is not echoed.
type Prompt struct {
	In     io.Reader
	Out    io.Writer
	Label  string
	logger *slog.Logger
}

// NewPrompt creates a Prompt reading from stdin and writing to stderr.
func NewPrompt(logger *slog.Logger) *Prompt {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prompt{
		In:     os.Stdin,
		Out:    os.Stderr,
		Label:  "Portal da Transparência API key: ",
		logger: logger,
	}
}

// APIKey implements Provider.
func (p *Prompt) APIKey(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.logger != nil {
		p.logger.Debug("prompting for api key")
	}
	if p.Out != nil && p.Label != "" {
		fmt.Fprint(p.Out, p.Label)
	}

	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if p.Out != nil {
			fmt.Fprintln(p.Out)
		}
		if err != nil {
			return "", fmt.Errorf("reading key from terminal: %w", err)
		}
		return check(strings.TrimSpace(string(b)))
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading key: %w", err)
	}
	return check(strings.TrimSpace(line))
}

// FromSource returns the provider for a configured source name. An explicit
// key takes precedence over any source.
func FromSource(source, explicit, envFile string, logger *slog.Logger) (Provider, error) {
	if !Blank(explicit) {
		return Static(explicit), nil
	}
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", SourceEnv:
		return Env{File: envFile}, nil
	case SourcePrompt:
		return NewPrompt(logger), nil
	}
	return nil, fmt.Errorf("unknown credential source %q (want %s or %s)", source, SourceEnv, SourcePrompt)
}

// Save writes key to the dotenv file at path, preserving its other entries.
func Save(path, key string) error {
	if Blank(key) {
		return api.ErrMissingCredential
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		values = make(map[string]string)
	}
	values[EnvVar] = strings.TrimSpace(key)

	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("restricting permissions on %s: %w", path, err)
	}
	return nil
}
