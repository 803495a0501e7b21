package devcli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/steven3002/datamarket-go/market"
)

// EnvPrefix marks environment variables read as configuration, for example
// MARKET_BASE_URL or MARKET_PREVIEW_RETRY_DELAY.
const EnvPrefix = "MARKET_"

// Config file names searched in the working directory.
var configFileNames = []string{"marketdev.yaml", "marketdev.yml"}

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Defaults for a local development backend.
const (
	DefaultRetries     = 0
	DefaultBackoffInit = 300 * time.Millisecond
	DefaultBackoffMax  = 3 * time.Second
)

// Config captures CLI-wide settings.
type Config struct {
	BaseURL     string        `koanf:"base_url"`
	Timeout     time.Duration `koanf:"timeout"`
	Retries     int           `koanf:"retries"`
	BackoffInit time.Duration `koanf:"backoff_init"`
	BackoffMax  time.Duration `koanf:"backoff_max"`
	Verbose     bool          `koanf:"verbose"`
	Output      string        `koanf:"output"`

	Debounce          time.Duration `koanf:"debounce"`
	PreviewRetryDelay time.Duration `koanf:"preview_retry_delay"`
	PreviewMaxRetries int           `koanf:"preview_max_retries"`
}

func defaults() map[string]any {
	return map[string]any{
		"base_url":            market.DefaultBaseURL,
		"timeout":             market.DefaultTimeout,
		"retries":             DefaultRetries,
		"backoff_init":        DefaultBackoffInit,
		"backoff_max":         DefaultBackoffMax,
		"verbose":             false,
		"output":              OutputTable,
		"debounce":            market.DefaultDebounce,
		"preview_retry_delay": market.DefaultPreviewRetryDelay,
		"preview_max_retries": market.DefaultPreviewMaxRetries,
	}
}

// LoadConfig layers defaults, the config file, MARKET_* environment
// variables and explicitly set flags, in increasing priority. It returns the
// config file used, if any.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, "", fmt.Errorf("load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("read config file %s: %w", used, err)
		}
	}

	// MARKET_PREVIEW_RETRY_DELAY -> preview_retry_delay
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, "", fmt.Errorf("load env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, used, nil
}

// Validate rejects settings the commands cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", c.Retries))
	}
	switch c.Output {
	case OutputTable, OutputJSON:
	default:
		errs = append(errs, fmt.Errorf("output must be %q or %q, got %q", OutputTable, OutputJSON, c.Output))
	}
	return errors.Join(errs...)
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
