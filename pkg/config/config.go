// Package config loads dashboard configuration from a .env file, an optional
// JSON file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/currency"
	"github.com/fdepm/painel/pkg/reader/siop"
	"github.com/fdepm/painel/pkg/reader/transparencia"
)

// DefaultEnvFile is loaded before the environment is read, if it exists.
const DefaultEnvFile = ".env"

// Config holds the application configuration. Every field can be set with
// the environment variable named in its koanf tag.
type Config struct {
	// Year is the fiscal year to report on.
	Year    int `koanf:"FDEPM_YEAR" json:"FDEPM_YEAR"`
	MinYear int `koanf:"FDEPM_MIN_YEAR" json:"FDEPM_MIN_YEAR"`
	MaxYear int `koanf:"FDEPM_MAX_YEAR" json:"FDEPM_MAX_YEAR"`

	// UnitCode is the budget unit (UO) for expenditures.
	UnitCode string `koanf:"FDEPM_UNIT_CODE" json:"FDEPM_UNIT_CODE"`
	// OrgCode is the organization (órgão) for revenues.
	OrgCode string `koanf:"FDEPM_ORG_CODE" json:"FDEPM_ORG_CODE"`

	// APIKey is the Portal da Transparência key.
	// Environment variable: PORTAL_API_KEY
	APIKey string `koanf:"PORTAL_API_KEY" json:"-"`
	// CredentialSource is "env" or "prompt".
	CredentialSource string `koanf:"FDEPM_CREDENTIAL_SOURCE" json:"FDEPM_CREDENTIAL_SOURCE"`
	// EnvFile is the dotenv file consulted for the key and written by setup.
	EnvFile string `koanf:"FDEPM_ENV_FILE" json:"FDEPM_ENV_FILE"`

	RevenueURL      string `koanf:"FDEPM_REVENUE_URL" json:"FDEPM_REVENUE_URL"`
	RevenueMaxPages int    `koanf:"FDEPM_REVENUE_MAX_PAGES" json:"FDEPM_REVENUE_MAX_PAGES"`

	SIOPURL string `koanf:"FDEPM_SIOP_URL" json:"FDEPM_SIOP_URL"`
	// SIOPInsecureSkipVerify disables TLS verification for SIOP only.
	SIOPInsecureSkipVerify bool `koanf:"FDEPM_SIOP_INSECURE_SKIP_VERIFY" json:"FDEPM_SIOP_INSECURE_SKIP_VERIFY"`

	HTTPTimeout time.Duration `koanf:"FDEPM_HTTP_TIMEOUT" json:"FDEPM_HTTP_TIMEOUT"`

	// CacheMaxEntries of zero means unbounded.
	CacheMaxEntries int `koanf:"FDEPM_CACHE_MAX_ENTRIES" json:"FDEPM_CACHE_MAX_ENTRIES"`
	// CacheTTL of zero keeps entries for the process lifetime.
	CacheTTL time.Duration `koanf:"FDEPM_CACHE_TTL" json:"FDEPM_CACHE_TTL"`

	Locale         string `koanf:"FDEPM_LOCALE" json:"FDEPM_LOCALE"`
	CurrencySymbol string `koanf:"FDEPM_CURRENCY_SYMBOL" json:"FDEPM_CURRENCY_SYMBOL"`

	// WriterPlugin is the name of the report writer plugin to use.
	// Environment variable: FDEPM_WRITER
	WriterPlugin string `koanf:"FDEPM_WRITER" json:"FDEPM_WRITER"`
	// WriterConfig is the JSON configuration for the writer plugin.
	// Environment variable: FDEPM_WRITER_CONFIG
	WriterConfig json.RawMessage `koanf:"FDEPM_WRITER_CONFIG" json:"FDEPM_WRITER_CONFIG,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Year:             2024,
		MinYear:          api.MinYear,
		MaxYear:          api.MaxYear,
		UnitCode:         api.DefaultUnitCode,
		OrgCode:          api.DefaultOrgCode,
		CredentialSource: "env",
		EnvFile:          DefaultEnvFile,
		RevenueURL:       transparencia.DefaultURL,
		RevenueMaxPages:  transparencia.DefaultMaxPages,
		SIOPURL:          siop.DefaultURL,
		HTTPTimeout:      30 * time.Second,
		Locale:           currency.DefaultLocale,
		CurrencySymbol:   currency.DefaultSymbol,
		WriterPlugin:     "text",
	}
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// ConfigFile is an optional JSON file whose keys match the koanf tags.
	ConfigFile string
	// EnvFile defaults to DefaultEnvFile. A missing file is not an error.
	EnvFile string
}

// Load builds a Config from defaults, the dotenv file, the JSON config file
// and the environment, in increasing order of precedence.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	// FDEPM_ENV_FILE, read below, still overrides the file named here.
	cfg.EnvFile = envFile
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("loading %s: %w", envFile, err)
	}

	k := koanf.New(".")
	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), kjson.Parser()); err != nil {
			return cfg, fmt.Errorf("loading config file %s: %w", opts.ConfigFile, err)
		}
	}
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return cfg, fmt.Errorf("loading environment: %w", err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}

	if strings.TrimSpace(cfg.EnvFile) == "" {
		cfg.EnvFile = envFile
	}
	cfg.UnitCode = strings.TrimSpace(cfg.UnitCode)
	cfg.OrgCode = strings.TrimSpace(cfg.OrgCode)
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.MinYear > c.MaxYear {
		errs = append(errs, fmt.Errorf("FDEPM_MIN_YEAR %d is after FDEPM_MAX_YEAR %d", c.MinYear, c.MaxYear))
	} else if err := api.ValidateYear(c.Year, c.MinYear, c.MaxYear); err != nil {
		errs = append(errs, fmt.Errorf("FDEPM_YEAR: %w", err))
	}
	if c.UnitCode == "" {
		errs = append(errs, errors.New("FDEPM_UNIT_CODE is required"))
	}
	if c.OrgCode == "" {
		errs = append(errs, errors.New("FDEPM_ORG_CODE is required"))
	}
	switch strings.ToLower(c.CredentialSource) {
	case "", "env", "prompt":
	default:
		errs = append(errs, fmt.Errorf("FDEPM_CREDENTIAL_SOURCE %q must be env or prompt", c.CredentialSource))
	}
	if err := checkURL(c.RevenueURL); err != nil {
		errs = append(errs, fmt.Errorf("FDEPM_REVENUE_URL: %w", err))
	}
	if err := checkURL(c.SIOPURL); err != nil {
		errs = append(errs, fmt.Errorf("FDEPM_SIOP_URL: %w", err))
	}
	if c.RevenueMaxPages <= 0 {
		errs = append(errs, fmt.Errorf("FDEPM_REVENUE_MAX_PAGES must be positive, got %d", c.RevenueMaxPages))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FDEPM_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout))
	}
	if c.CacheMaxEntries < 0 {
		errs = append(errs, fmt.Errorf("FDEPM_CACHE_MAX_ENTRIES must not be negative, got %d", c.CacheMaxEntries))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("FDEPM_CACHE_TTL must not be negative, got %s", c.CacheTTL))
	}
	if c.WriterPlugin == "" {
		errs = append(errs, errors.New("FDEPM_WRITER is required"))
	}
	if len(c.WriterConfig) > 0 && !json.Valid(c.WriterConfig) {
		errs = append(errs, errors.New("FDEPM_WRITER_CONFIG is not valid JSON"))
	}

	return errors.Join(errs...)
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
