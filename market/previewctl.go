package market

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/steven3002/datamarket-go/internal/timer"
)

const (
	DefaultPreviewMaxRetries = 2
	DefaultPreviewRetryDelay = time.Second
)

// PreviewFetcher loads a table preview. *Client satisfies it.
type PreviewFetcher interface {
	GetTablePreview(ctx context.Context, tableReference string, opts ...CallOption) (*TablePreview, error)
}

var _ PreviewFetcher = (*Client)(nil)

// PreviewConfig configures a PreviewController.
type PreviewConfig struct {
	// MaxRetries bounds RetryCount. Zero means DefaultPreviewMaxRetries;
	// a negative value disables the automatic retry.
	MaxRetries int
	// RetryDelay is the wait before the automatic retry. Zero means
	// DefaultPreviewRetryDelay.
	RetryDelay time.Duration
	Logger     *slog.Logger
	// OnChange receives a snapshot after every state change. It must not
	// call back into the controller.
	OnChange func(PreviewState)
	// Clock drives the retry timer. Nil means the wall clock.
	Clock timer.Clock
}

// PreviewStatus is the phase of a preview fetch.
type PreviewStatus int

const (
	StatusIdle PreviewStatus = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s PreviewStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// PreviewState is the visible state of a PreviewController.
type PreviewState struct {
	Reference string
	Enabled   bool
	Status    PreviewStatus
	// Payload is kept on soft errors and cleared on hard ones.
	Payload *TablePreview
	Err     error
	// Soft marks Err as a backend-reported error that came with a payload.
	Soft bool
	// RetryCount counts automatic retries for Reference. It never exceeds
	// the configured maximum.
	RetryCount int
	// ManualRetries counts Refetch calls for Reference.
	ManualRetries int
	// RetryPending is set while the automatic retry is scheduled.
	RetryPending bool
	// Attempts counts requests issued for Reference.
	Attempts int
}

// Settled reports a terminal state: success, or an error with no automatic
// retry pending.
func (s PreviewState) Settled() bool {
	return s.Status == StatusSuccess || (s.Status == StatusError && !s.RetryPending)
}

// Unavailable reports whether the preview should be presented as "not
// available". An empty successful preview counts.
func (s PreviewState) Unavailable() bool {
	switch s.Status {
	case StatusError:
		return true
	case StatusSuccess:
		return s.Payload.Empty()
	}
	return false
}

// Problem returns the error to present when Unavailable is true.
func (s PreviewState) Problem() error {
	if s.Err != nil {
		return s.Err
	}
	if s.Status == StatusSuccess && s.Payload.Empty() {
		return ErrEmptyPreview
	}
	return nil
}

// PreviewController fetches the preview for one table reference at a time
// and retries once automatically after the first failure. Results for a
// reference that is no longer current are dropped.
type PreviewController struct {
	fetcher  PreviewFetcher
	cfg      PreviewConfig
	log      *slog.Logger
	retry    *timer.Slot
	maxRetry int

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	notifyMu sync.Mutex

	mu       sync.Mutex
	state    PreviewState
	gen      uint64
	inflight context.CancelFunc
	closed   bool
}

// NewPreviewController returns an enabled, idle controller.
func NewPreviewController(f PreviewFetcher, cfg PreviewConfig) *PreviewController {
	maxRetry := cfg.MaxRetries
	switch {
	case maxRetry == 0:
		maxRetry = DefaultPreviewMaxRetries
	case maxRetry < 0:
		maxRetry = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultPreviewRetryDelay
	}
	log := cfg.Logger
	if log == nil {
		log = discardLogger
	}
	ctx, stop := context.WithCancel(context.Background())
	return &PreviewController{
		fetcher:  f,
		cfg:      cfg,
		log:      log,
		retry:    timer.NewSlot(cfg.Clock),
		maxRetry: maxRetry,
		ctx:      ctx,
		stop:     stop,
		state:    PreviewState{Enabled: true},
	}
}

// SetReference switches to a new table reference. State restarts from idle
// and, when enabled and ref is non-empty, a fetch starts immediately.
// Setting the current reference again is a no-op.
func (c *PreviewController) SetReference(ref string) {
	c.mu.Lock()
	if c.closed || ref == c.state.Reference {
		c.mu.Unlock()
		return
	}
	c.resetLocked(ref)
	if c.state.Enabled && ref != "" {
		c.startLocked()
	}
	c.mu.Unlock()
	c.notify()
}

// SetEnabled toggles fetching. Disabling drops in-flight work and returns
// to idle; enabling with a reference set starts a fresh fetch.
func (c *PreviewController) SetEnabled(enabled bool) {
	c.mu.Lock()
	if c.closed || enabled == c.state.Enabled {
		c.mu.Unlock()
		return
	}
	c.state.Enabled = enabled
	c.resetLocked(c.state.Reference)
	if enabled && c.state.Reference != "" {
		c.startLocked()
	}
	c.mu.Unlock()
	c.notify()
}

// Refetch issues a fresh request for the current reference. It does not
// consume the automatic retry budget; a pending automatic retry is dropped.
func (c *PreviewController) Refetch() {
	c.mu.Lock()
	if c.closed || !c.state.Enabled || c.state.Reference == "" {
		c.mu.Unlock()
		return
	}
	c.retry.Cancel()
	c.state.RetryPending = false
	c.state.ManualRetries++
	c.startLocked()
	c.mu.Unlock()
	c.notify()
}

// State returns a snapshot of the visible state.
func (c *PreviewController) State() PreviewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close cancels the retry timer and any in-flight request, then waits for
// background work to finish.
func (c *PreviewController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.retry.Close()
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
	c.mu.Unlock()
	c.stop()
	c.wg.Wait()
}

func (c *PreviewController) resetLocked(ref string) {
	c.retry.Cancel()
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
	c.gen++
	c.state = PreviewState{Reference: ref, Enabled: c.state.Enabled}
}

func (c *PreviewController) startLocked() {
	if c.inflight != nil {
		c.inflight()
	}
	c.gen++
	gen := c.gen
	ref := c.state.Reference
	c.state.Status = StatusLoading
	c.state.Err = nil
	c.state.Soft = false
	c.state.Attempts++

	ctx, cancel := context.WithCancel(c.ctx)
	c.inflight = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		p, err := c.fetcher.GetTablePreview(ctx, ref)
		c.finish(gen, p, err)
	}()
}

func (c *PreviewController) finish(gen uint64, p *TablePreview, err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		c.log.Debug("discard stale preview", "generation", gen)
		return
	}
	c.inflight = nil

	var soft *PreviewError
	switch {
	case err == nil:
		c.state.Status = StatusSuccess
		c.state.Payload = p
	case errors.As(err, &soft) && p != nil:
		c.state.Status = StatusError
		c.state.Payload = p
		c.state.Err = err
		c.state.Soft = true
	default:
		c.state.Status = StatusError
		c.state.Payload = nil
		c.state.Err = err
	}

	if c.state.Status == StatusError {
		c.log.Warn("preview failed",
			"table_reference", c.state.Reference,
			"soft", c.state.Soft,
			"retry_count", c.state.RetryCount,
			"error", err)
		if c.state.RetryCount == 0 && c.state.RetryCount < c.maxRetry {
			c.scheduleRetryLocked(gen)
		}
	}
	c.mu.Unlock()
	c.notify()
}

func (c *PreviewController) scheduleRetryLocked(gen uint64) {
	c.state.RetryPending = true
	c.retry.Schedule(c.cfg.RetryDelay, func() {
		c.mu.Lock()
		if c.closed || gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.state.RetryPending = false
		c.state.RetryCount++
		c.log.Debug("retry preview",
			"table_reference", c.state.Reference,
			"retry_count", c.state.RetryCount)
		c.startLocked()
		c.mu.Unlock()
		c.notify()
	})
}

func (c *PreviewController) notify() {
	if c.cfg.OnChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.cfg.OnChange(c.State())
}
