package devcli

import (
	"context"
	"io"
	"log/slog"

	"github.com/steven3002/datamarket-go/market"
)

// NewLogger returns a text logger on w. Verbose lowers the level to debug,
// which also surfaces per-request client logs.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewClient constructs a market client from the CLI configuration.
func NewClient(cfg *Config, log *slog.Logger) *market.Client {
	opts := []market.Option{
		market.WithBaseURL(cfg.BaseURL),
		market.WithTimeout(cfg.Timeout),
		market.WithRetries(cfg.Retries),
		market.WithBackoff(cfg.BackoffInit, cfg.BackoffMax),
	}
	if cfg.Verbose {
		opts = append(opts, market.WithLogger(market.SlogLogger(log)))
	}
	return market.New(opts...)
}

// SessionConfig builds the FilterSession settings for interactive commands.
func (c *Config) SessionConfig(log *slog.Logger, onChange func(market.SessionState)) market.SessionConfig {
	return market.SessionConfig{
		Debounce: c.Debounce,
		Logger:   log,
		OnChange: onChange,
	}
}

// PreviewConfig builds the PreviewController settings.
func (c *Config) PreviewConfig(log *slog.Logger, onChange func(market.PreviewState)) market.PreviewConfig {
	maxRetries := c.PreviewMaxRetries
	if maxRetries == 0 {
		// Zero in config means "no automatic retry", not "use the default".
		maxRetries = -1
	}
	return market.PreviewConfig{
		MaxRetries: maxRetries,
		RetryDelay: c.PreviewRetryDelay,
		Logger:     log,
		OnChange:   onChange,
	}
}

// Env is the per-invocation state shared by commands.
type Env struct {
	Config  *Config
	Logger  *slog.Logger
	Client  *market.Client
	Printer *Printer
}

type envKey struct{}

// WithEnv stores e in ctx.
func WithEnv(ctx context.Context, e *Env) context.Context {
	return context.WithValue(ctx, envKey{}, e)
}

// EnvFrom returns the Env stored by WithEnv, or nil.
func EnvFrom(ctx context.Context) *Env {
	e, _ := ctx.Value(envKey{}).(*Env)
	return e
}

// Ctx returns a context bounded by the configured timeout.
func (e *Env) Ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, e.Config.Timeout)
}
