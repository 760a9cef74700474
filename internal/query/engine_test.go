package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"expensectl/internal/core"
)

type pendingCall struct {
	filter core.FilterState
	reply  chan result
}

type result struct {
	items []core.Expense
	err   error
}

// blockingLister hands every call to the test, which decides when and how it resolves.
type blockingLister struct {
	calls chan pendingCall
}

func newBlockingLister() *blockingLister {
	return &blockingLister{calls: make(chan pendingCall, 16)}
}

func (l *blockingLister) List(ctx context.Context, f core.FilterState) ([]core.Expense, error) {
	c := pendingCall{filter: f, reply: make(chan result, 1)}
	l.calls <- c
	select {
	case r := <-c.reply:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *blockingLister) next(t *testing.T) pendingCall {
	t.Helper()
	select {
	case c := <-l.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fetch")
		return pendingCall{}
	}
}

type staticLister struct {
	mu    sync.Mutex
	items []core.Expense
	err   error
	calls int
}

func (l *staticLister) List(context.Context, core.FilterState) ([]core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.items, l.err
}

func expense(title string, cents int64, c core.Category) core.Expense {
	return core.Expense{ID: title, Title: title, Amount: core.Money{Cents: cents}, Category: c}
}

var march = core.FilterState{Granularity: core.Month, Year: 2024, Month: 3}

func TestRefreshAggregates(t *testing.T) {
	lister := &staticLister{items: []core.Expense{
		expense("a", 1000, core.Food),
		expense("b", 250, core.Travel),
		expense("c", 500, core.Food),
	}}
	e := New(lister, march, nil)

	if err := e.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := e.Snapshot()
	if snap.Loading || snap.Err != nil {
		t.Fatalf("unexpected state %+v", snap)
	}
	if snap.Aggregation.Total.Cents != 1750 || len(snap.Expenses) != 3 {
		t.Fatalf("unexpected aggregation %+v", snap.Aggregation)
	}
	var sum int64
	for _, c := range snap.Aggregation.ByCategory {
		sum += c.Amount.Cents
	}
	if sum != snap.Aggregation.Total.Cents {
		t.Fatalf("byCategory sum %d != total %d", sum, snap.Aggregation.Total.Cents)
	}
	if !snap.HasChart() {
		t.Fatal("expected chart")
	}
}

func TestRefreshEmpty(t *testing.T) {
	e := New(&staticLister{}, march, nil)
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := e.Snapshot()
	if snap.Aggregation.Total.Cents != 0 || len(snap.Aggregation.ByCategory) != 0 || snap.HasChart() {
		t.Fatalf("empty set should aggregate to zero with no chart: %+v", snap.Aggregation)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	lister := newBlockingLister()
	e := New(lister, march, nil)
	ctx := context.Background()

	filterA := core.FilterState{Granularity: core.Month, Year: 2024, Month: 1}
	filterB := core.FilterState{Granularity: core.Month, Year: 2024, Month: 2}

	if err := e.SetFilter(ctx, filterA); err != nil {
		t.Fatal(err)
	}
	callA := lister.next(t)
	if err := e.SetFilter(ctx, filterB); err != nil {
		t.Fatal(err)
	}
	callB := lister.next(t)

	if callA.filter.Month != 1 || callB.filter.Month != 2 {
		t.Fatalf("fetches issued with wrong filters: %+v %+v", callA.filter, callB.filter)
	}

	// B resolves first, then the stale A
	callB.reply <- result{items: []core.Expense{expense("feb", 200, core.Bills)}}
	callA.reply <- result{items: []core.Expense{expense("jan", 100, core.Food)}}

	if err := e.Wait(); err != nil {
		t.Fatal(err)
	}
	snap := e.Snapshot()
	if len(snap.Expenses) != 1 || snap.Expenses[0].Title != "feb" {
		t.Fatalf("displayed set should be B's, got %+v", snap.Expenses)
	}
	if snap.Filter.Month != 2 || snap.Loading {
		t.Fatalf("unexpected state %+v", snap)
	}
}

func TestStaleErrorDiscarded(t *testing.T) {
	lister := newBlockingLister()
	e := New(lister, march, nil)
	ctx := context.Background()

	_ = e.SetFilter(ctx, core.FilterState{Granularity: core.Year, Year: 2023, Month: 1})
	callA := lister.next(t)
	_ = e.SetFilter(ctx, core.FilterState{Granularity: core.Year, Year: 2024, Month: 1})
	callB := lister.next(t)

	callB.reply <- result{items: []core.Expense{expense("x", 1, core.Other)}}
	callA.reply <- result{err: errors.New("late failure")}

	if err := e.Wait(); err != nil {
		t.Fatalf("a stale failure must not surface, got %v", err)
	}
	if snap := e.Snapshot(); snap.Err != nil || len(snap.Expenses) != 1 {
		t.Fatalf("unexpected state %+v", snap)
	}
}

func TestLoadingFlag(t *testing.T) {
	lister := newBlockingLister()
	e := New(lister, march, nil)

	_ = e.SetFilter(context.Background(), core.FilterState{Granularity: core.Year, Year: 2024, Month: 1})
	call := lister.next(t)
	if !e.Snapshot().Loading {
		t.Fatal("expected loading while the fetch is in flight")
	}
	call.reply <- result{}
	_ = e.Wait()
	if e.Snapshot().Loading {
		t.Fatal("loading should clear after the result is applied")
	}
}

func TestFailedRefreshClearsSlice(t *testing.T) {
	lister := &staticLister{items: []core.Expense{expense("a", 100, core.Food)}}
	e := New(lister, march, nil)
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	lister.mu.Lock()
	lister.err = boom
	lister.mu.Unlock()

	if err := e.Refresh(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	snap := e.Snapshot()
	if len(snap.Expenses) != 0 || snap.Aggregation.Total.Cents != 0 || !errors.Is(snap.Err, boom) {
		t.Fatalf("failed refresh should leave nothing displayed: %+v", snap)
	}
}

func TestSetFilterValidation(t *testing.T) {
	lister := &staticLister{}
	e := New(lister, march, nil)

	err := e.SetFilter(context.Background(), core.FilterState{Granularity: core.Month, Year: 2024, Month: 13})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := e.SetFilter(context.Background(), march); err != nil {
		t.Fatal(err)
	}
	_ = e.Wait()
	if lister.calls != 0 {
		t.Fatalf("unchanged or invalid filters must not fetch, got %d calls", lister.calls)
	}
}

func TestUpdateAndSubscribe(t *testing.T) {
	lister := &staticLister{items: []core.Expense{expense("a", 100, core.Food)}}
	e := New(lister, march, nil)

	var mu sync.Mutex
	var seen []Snapshot
	e.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	if err := e.Update(context.Background(), func(f *core.FilterState) { f.Category = core.Food }); err != nil {
		t.Fatal(err)
	}
	if err := e.Wait(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0].Filter.Category != core.Food || seen[0].Aggregation.Total.Cents != 100 {
		t.Fatalf("subscriber saw %+v", seen)
	}
}
