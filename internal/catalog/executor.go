package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/muraqqa/storefront/pkg/logger"
	"github.com/muraqqa/storefront/pkg/metrics"
)

// DefaultDebounce is the quiet interval before a submission is dispatched.
const DefaultDebounce = 300 * time.Millisecond

// Lister fetches one catalog page for the given criteria.
type Lister interface {
	List(ctx context.Context, criteria FilterCriteria) (Page, error)
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// State is what a catalog view renders.
type State struct {
	Criteria   FilterCriteria
	Page       Page
	Err        error
	Loading    bool
	Generation uint64
}

// Visible returns the page items after client-side refinement.
func (s State) Visible() []Entry {
	return Refine(s.Page.Items, s.Criteria.Availability)
}

// Option customizes an Executor.
type Option func(*Executor)

// WithDebounce overrides the quiet interval. Zero dispatches on the next tick.
func WithDebounce(d time.Duration) Option {
	return func(e *Executor) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithScheduler swaps the time source, mostly for tests.
func WithScheduler(s Scheduler) Option {
	return func(e *Executor) {
		if s != nil {
			e.scheduler = s
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(e *Executor) {
		if logg != nil {
			e.logg = logg
		}
	}
}

func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithContext sets the parent context of every dispatched request.
func WithContext(ctx context.Context) Option {
	return func(e *Executor) {
		if ctx != nil {
			e.baseCtx = ctx
		}
	}
}

// Executor turns criteria changes into catalog requests. Submissions inside
// the quiet interval collapse into the last one, and a response is applied
// only if no newer request was dispatched after it.
type Executor struct {
	lister    Lister
	delay     time.Duration
	scheduler Scheduler
	logg      *logger.Logger
	metrics   *metrics.CatalogMetrics
	baseCtx   context.Context

	mu         sync.Mutex
	timer      Timer
	pending    *FilterCriteria
	last       *FilterCriteria
	generation uint64
	cancel     context.CancelFunc
	state      State
	listeners  []func(State)
	closed     bool

	applyMu sync.Mutex
	wg      sync.WaitGroup
}

// NewExecutor builds an executor around lister.
func NewExecutor(lister Lister, opts ...Option) (*Executor, error) {
	if lister == nil {
		return nil, fmt.Errorf("catalog lister required")
	}
	e := &Executor{
		lister:    lister,
		delay:     DefaultDebounce,
		scheduler: wallClock{},
		logg:      logger.Nop(),
		baseCtx:   context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// OnChange registers a listener for applied results. Listeners run on the
// goroutine that completed the request.
func (e *Executor) OnChange(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// State returns the current snapshot.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Submit schedules criteria, replacing any submission still waiting.
func (e *Executor) Submit(criteria FilterCriteria) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.timer != nil && e.timer.Stop() {
		e.metrics.IncCollapsed()
	}
	c := criteria
	e.pending = &c
	e.timer = e.scheduler.AfterFunc(e.delay, e.fire)
}

// Refresh dispatches immediately. A submission still waiting out the quiet
// interval goes now; otherwise the last dispatched criteria are re-issued.
// It reports false when there is nothing to send.
func (e *Executor) Refresh() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	next := e.pending
	if next == nil {
		next = e.last
	}
	if next == nil {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.pending = nil
	e.dispatchLocked(*next)
	return true
}

// Close stops pending timers and cancels the in-flight request.
func (e *Executor) Close() {
	e.mu.Lock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Executor) fire() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.pending == nil {
		return
	}
	criteria := *e.pending
	e.pending = nil
	e.timer = nil
	e.dispatchLocked(criteria)
}

func (e *Executor) dispatchLocked(criteria FilterCriteria) {
	e.generation++
	gen := e.generation
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(e.baseCtx)
	e.cancel = cancel
	c := criteria
	e.last = &c
	e.state.Loading = true

	e.wg.Add(1)
	go e.run(ctx, cancel, gen, criteria)
}

func (e *Executor) run(ctx context.Context, cancel context.CancelFunc, gen uint64, criteria FilterCriteria) {
	defer e.wg.Done()
	defer cancel()

	started := time.Now()
	page, err := e.lister.List(ctx, criteria)
	e.metrics.ObserveProvider("list", time.Since(started))

	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		e.metrics.IncDiscarded()
		e.metrics.IncDispatched("superseded")
		return
	}
	e.state.Loading = false
	e.state.Generation = gen
	if err != nil {
		// keep the previous page on screen
		e.state.Err = err
		e.metrics.IncDispatched(outcome(err))
	} else {
		e.state.Criteria = criteria
		e.state.Page = page
		e.state.Err = nil
		e.metrics.IncDispatched("ok")
	}
	snapshot := e.state
	listeners := make([]func(State), len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	if err != nil {
		e.logg.Warn(e.logg.WithFields(ctx, map[string]any{
			"generation": gen,
			"error":      err.Error(),
		}), "catalog query failed")
	}
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func outcome(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "error"
}
