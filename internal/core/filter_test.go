package core

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))
	if f.Granularity != Day || f.Year != 2024 || f.Month != 3 {
		t.Fatalf("unexpected default %+v", f)
	}
	if f.Category != "" || f.Min != nil || f.Max != nil {
		t.Fatalf("default filter must be unconstrained: %+v", f)
	}
	if f.Label() != "Today" {
		t.Fatalf("expected Today label, got %q", f.Label())
	}
}

func TestFilterQuery(t *testing.T) {
	f := FilterState{Granularity: Month, Year: 2024, Month: 3}
	q := f.Query()
	if q.Encode() != "month=3&type=month&year=2024" {
		t.Fatalf("unexpected query %q", q.Encode())
	}

	lo, hi := Money{Cents: 500}, Money{Cents: 12050}
	f.Category = Food
	f.Min = &lo
	f.Max = &hi
	q = f.Query()
	if q.Get("category") != "Food" || q.Get("min") != "5" || q.Get("max") != "120.5" {
		t.Fatalf("unexpected optional params %q", q.Encode())
	}
}

func TestFilterValidate(t *testing.T) {
	lo, hi := Money{Cents: 100}, Money{Cents: 50}
	neg := Money{Cents: -1}
	cases := []struct {
		name string
		f    FilterState
		err  error
	}{
		{"ok", FilterState{Granularity: Year, Year: 2024, Month: 1}, nil},
		{"granularity", FilterState{Granularity: "week", Year: 2024, Month: 1}, ErrInvalidGranularity},
		{"month", FilterState{Granularity: Day, Year: 2024, Month: 13}, ErrInvalidMonth},
		{"year", FilterState{Granularity: Day, Year: 12, Month: 1}, ErrInvalidYear},
		{"category", FilterState{Granularity: Day, Year: 2024, Month: 1, Category: "Rent"}, ErrInvalidCategory},
		{"range", FilterState{Granularity: Day, Year: 2024, Month: 1, Min: &lo, Max: &hi}, ErrInvalidRange},
		{"negative", FilterState{Granularity: Day, Year: 2024, Month: 1, Min: &neg}, ErrInvalidBound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.f.Validate()
			if tc.err == nil {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.err) || !errors.Is(err, ErrValidation) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestFilterEqual(t *testing.T) {
	a, b := Money{Cents: 1}, Money{Cents: 1}
	f1 := FilterState{Granularity: Day, Year: 2024, Month: 1, Min: &a}
	f2 := FilterState{Granularity: Day, Year: 2024, Month: 1, Min: &b}
	if !f1.Equal(f2) {
		t.Fatalf("filters with equal bounds must compare equal")
	}
	f2.Min = nil
	if f1.Equal(f2) {
		t.Fatalf("nil bound must differ from set bound")
	}
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]Granularity{"today": Day, "Day": Day, "month": Month, "YEAR": Year} {
		got, err := ParseGranularity(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q (err=%v)", in, got, err)
		}
	}
	if _, err := ParseGranularity("week"); err == nil {
		t.Fatalf("expected error")
	}
}
