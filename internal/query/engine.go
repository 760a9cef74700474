// Package query owns the dashboard filter and the expense slice it selects.
// Every filter change starts a fetch; results are applied only when they
// belong to the most recently started fetch, so a slow response for an old
// filter can never overwrite a newer one.
package query

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"expensectl/internal/core"
	"expensectl/internal/log"
)

// Lister fetches the expenses matching a filter from the server.
type Lister interface {
	List(ctx context.Context, f core.FilterState) ([]core.Expense, error)
}

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	Filter      core.FilterState
	Expenses    []core.Expense
	Aggregation core.Aggregation
	Loading     bool
	Err         error
	Generation  uint64
}

// HasChart reports whether the chart has anything to draw.
func (s Snapshot) HasChart() bool {
	return !s.Aggregation.Empty()
}

type Engine struct {
	lister Lister
	logger *log.Logger

	mu          sync.Mutex
	filter      core.FilterState
	expenses    []core.Expense
	aggregation core.Aggregation
	loading     bool
	err         error
	latest      uint64
	applied     uint64
	group       *errgroup.Group
	subscribers []Subscriber
}

// Subscriber receives every applied result.
type Subscriber func(Snapshot)

func New(lister Lister, initial core.FilterState, logger *log.Logger) *Engine {
	return &Engine{
		lister:      lister,
		logger:      log.OrDiscard(logger).WithComponent(log.ComponentQuery),
		filter:      initial,
		aggregation: core.Aggregate(nil),
		group:       &errgroup.Group{},
	}
}

// Refresh fetches the current filter and waits for the result. It returns the
// fetch error only if this fetch was still the latest when it completed.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	gen, f := e.beginLocked()
	e.mu.Unlock()
	return e.run(ctx, gen, f)
}

// SetFilter replaces the filter and starts a background refresh. Setting an
// identical filter does nothing.
func (e *Engine) SetFilter(ctx context.Context, f core.FilterState) error {
	if err := f.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if f.Equal(e.filter) {
		e.mu.Unlock()
		return nil
	}
	e.filter = f
	gen, snapshot := e.beginLocked()
	g := e.group
	e.mu.Unlock()

	g.Go(func() error { return e.run(ctx, gen, snapshot) })
	return nil
}

// Update edits a copy of the current filter and applies it with SetFilter.
func (e *Engine) Update(ctx context.Context, edit func(*core.FilterState)) error {
	f := e.Filter()
	edit(&f)
	return e.SetFilter(ctx, f)
}

// Wait blocks until background refreshes started so far have finished and
// returns the first error among those that were applied.
func (e *Engine) Wait() error {
	e.mu.Lock()
	g := e.group
	e.group = &errgroup.Group{}
	e.mu.Unlock()
	return g.Wait()
}

// Filter returns the current filter.
func (e *Engine) Filter() core.FilterState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// Snapshot returns the currently displayed state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn to receive every applied result.
func (e *Engine) Subscribe(fn Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

func (e *Engine) beginLocked() (uint64, core.FilterState) {
	e.latest++
	e.loading = true
	return e.latest, e.filter
}

func (e *Engine) run(ctx context.Context, gen uint64, f core.FilterState) error {
	e.logger.DebugContext(ctx, "Refreshing expenses",
		log.FieldGeneration, gen,
		log.FieldGranularity, string(f.Granularity),
		log.FieldYear, f.Year,
		log.FieldMonth, f.Month)

	items, err := e.lister.List(ctx, f)

	e.mu.Lock()
	if gen != e.latest {
		latest := e.latest
		e.mu.Unlock()
		e.logger.DebugContext(ctx, "Discarding stale result",
			log.FieldGeneration, gen,
			"latest", latest)
		return nil
	}

	// A failed fetch leaves nothing on screen: the old slice belongs to an
	// older filter.
	if err != nil {
		e.expenses = nil
		e.aggregation = core.Aggregate(nil)
		e.err = err
	} else {
		e.expenses = items
		e.aggregation = core.Aggregate(items)
		e.err = nil
	}
	e.loading = false
	e.applied = gen
	snap := e.snapshotLocked()
	subscribers := append([]Subscriber(nil), e.subscribers...)
	e.mu.Unlock()

	if err == nil {
		e.logger.DebugContext(ctx, "Applied expenses",
			log.FieldGeneration, gen,
			log.FieldCount, len(items),
			log.FieldAmountCents, snap.Aggregation.Total.Cents)
	}
	for _, fn := range subscribers {
		fn(snap)
	}
	return err
}

func (e *Engine) snapshotLocked() Snapshot {
	byCategory := append([]core.CategoryAmount{}, e.aggregation.ByCategory...)
	return Snapshot{
		Filter:   e.filter,
		Expenses: append([]core.Expense(nil), e.expenses...),
		Aggregation: core.Aggregation{
			Total:      e.aggregation.Total,
			Count:      e.aggregation.Count,
			ByCategory: byCategory,
		},
		Loading:    e.loading,
		Err:        e.err,
		Generation: e.applied,
	}
}
