package market

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/steven3002/datamarket-go/internal/timer"
)

// DefaultDebounce is the quiet period applied to search query updates.
const DefaultDebounce = 300 * time.Millisecond

// SessionConfig configures a FilterSession.
type SessionConfig struct {
	// Debounce is the trailing quiet period for SetQuery. Zero means
	// DefaultDebounce.
	Debounce time.Duration
	Logger   *slog.Logger
	// OnChange receives a snapshot after every visible state change. It must
	// not call back into the session.
	OnChange func(SessionState)
	// Clock drives the debounce timer. Nil means the wall clock.
	Clock timer.Clock
}

// SessionState is the visible state of a FilterSession.
type SessionState struct {
	Filters  FilterState
	Decision FetchDecision
	Datasets []Dataset
	Loading  bool
	// Debouncing is set while a query change waits for its quiet period.
	Debouncing bool
	Err        error
	Generation uint64
}

// FilterSession owns a filter selection and the dataset list resolved for
// it. Only the most recently triggered resolution may commit; superseded
// requests are cancelled and their results dropped on arrival.
type FilterSession struct {
	resolver Resolver
	cfg      SessionConfig
	log      *slog.Logger
	debounce *timer.Slot

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	notifyMu sync.Mutex

	mu       sync.Mutex
	state    SessionState
	inflight context.CancelFunc
	closed   bool
	// pendingQuery identifies the latest scheduled debounce. Any filter
	// change bumps it, so a callback that already left the timer is dropped.
	pendingQuery uint64
}

// NewFilterSession returns an idle session. Nothing is fetched until the
// first filter change or Refetch.
func NewFilterSession(r Resolver, cfg SessionConfig) *FilterSession {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	log := cfg.Logger
	if log == nil {
		log = discardLogger
	}
	if r.Logger == nil {
		r.Logger = log
	}
	ctx, stop := context.WithCancel(context.Background())
	return &FilterSession{
		resolver: r,
		cfg:      cfg,
		log:      log,
		debounce: timer.NewSlot(cfg.Clock),
		ctx:      ctx,
		stop:     stop,
		state:    SessionState{Datasets: []Dataset{}},
	}
}

// SetCategories replaces the selected categories and resolves immediately.
func (s *FilterSession) SetCategories(cats ...Category) {
	s.update(func(f *FilterState) { f.Categories = slices.Clone(cats) })
}

// SetFilters replaces the whole filter state and resolves immediately.
func (s *FilterSession) SetFilters(f FilterState) {
	s.update(func(cur *FilterState) {
		cur.Categories = slices.Clone(f.Categories)
		cur.SearchQuery = f.SearchQuery
	})
}

// SetQuery records the search query and resolves once the query has been
// stable for the debounce period. Only the final value is sent.
func (s *FilterSession) SetQuery(q string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state.Filters.SearchQuery = q
	s.state.Debouncing = true
	s.pendingQuery++
	token := s.pendingQuery
	s.debounce.Schedule(s.cfg.Debounce, func() { s.fireDebounced(token) })
	s.mu.Unlock()
	s.notify()
}

func (s *FilterSession) fireDebounced(token uint64) {
	s.mu.Lock()
	if s.closed || token != s.pendingQuery || !s.state.Debouncing {
		s.mu.Unlock()
		return
	}
	s.log.Debug("debounced query", "query", s.state.Filters.SearchQuery)
	s.state.Debouncing = false
	s.resolveLocked()
	s.mu.Unlock()
	s.notify()
}

// Refetch resolves the current filters again.
func (s *FilterSession) Refetch() {
	s.update(func(*FilterState) {})
}

// State returns a snapshot of the visible state.
func (s *FilterSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close cancels the debounce timer and any in-flight resolution, then waits
// for background work to finish. The session is inert afterwards.
func (s *FilterSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state.Debouncing = false
	s.debounce.Close()
	if s.inflight != nil {
		s.inflight()
		s.inflight = nil
	}
	s.mu.Unlock()
	s.stop()
	s.wg.Wait()
}

func (s *FilterSession) update(mutate func(*FilterState)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	mutate(&s.state.Filters)
	// An immediate resolution already covers any pending query change.
	s.debounce.Cancel()
	s.pendingQuery++
	s.state.Debouncing = false
	s.resolveLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *FilterSession) resolveLocked() {
	if s.inflight != nil {
		s.inflight()
	}
	s.state.Generation++
	gen := s.state.Generation
	filters := FilterState{
		Categories:  slices.Clone(s.state.Filters.Categories),
		SearchQuery: s.state.Filters.SearchQuery,
	}
	s.state.Decision = Decide(filters)
	s.state.Loading = true

	ctx, cancel := context.WithCancel(s.ctx)
	s.inflight = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		ds, d, err := s.resolver.Resolve(ctx, filters)
		s.commit(gen, ds, d, err)
	}()
}

func (s *FilterSession) commit(gen uint64, ds []Dataset, d FetchDecision, err error) {
	s.mu.Lock()
	if s.closed || gen != s.state.Generation {
		s.mu.Unlock()
		s.log.Debug("discard stale resolution", "generation", gen, "decision", d.String())
		return
	}
	s.inflight = nil
	s.state.Decision = d
	s.state.Datasets = ds
	s.state.Err = err
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *FilterSession) snapshotLocked() SessionState {
	st := s.state
	st.Filters.Categories = slices.Clone(st.Filters.Categories)
	st.Datasets = slices.Clone(st.Datasets)
	return st
}

// notify publishes the current state. Snapshots are taken under notifyMu so
// observers never see an older state after a newer one.
func (s *FilterSession) notify() {
	if s.cfg.OnChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.cfg.OnChange(s.State())
}
