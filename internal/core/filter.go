package core

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	Day   Granularity = "day"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// Granularity is the time bucket a query is scoped to.
type Granularity string

var (
	ErrInvalidGranularity = errors.New("granularity must be day, month or year")
	ErrInvalidMonth       = errors.New("month must be between 1 and 12")
	ErrInvalidYear        = errors.New("year must be between 1970 and 9999")
	ErrInvalidRange       = errors.New("min must not exceed max")
)

// FilterState drives the server query for the expense list.
// Category, Min and Max are optional; zero values mean "no constraint".
type FilterState struct {
	Granularity Granularity
	Year        int
	Month       int
	Category    Category
	Min         *Money
	Max         *Money
}

// DefaultFilter is "today": day granularity in the current year and month.
func DefaultFilter(now time.Time) FilterState {
	return FilterState{
		Granularity: Day,
		Year:        now.Year(),
		Month:       int(now.Month()),
	}
}

// ParseGranularity accepts day/month/year and the "today" alias.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "today":
		return Day, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	default:
		return "", ErrInvalidGranularity
	}
}

func (f FilterState) Validate() error {
	switch f.Granularity {
	case Day, Month, Year:
	default:
		return Invalid("granularity", ErrInvalidGranularity)
	}
	if f.Year < 1970 || f.Year > 9999 {
		return Invalid("year", ErrInvalidYear)
	}
	if f.Month < 1 || f.Month > 12 {
		return Invalid("month", ErrInvalidMonth)
	}
	if f.Category != "" && !f.Category.Valid() {
		return Invalid("category", fmt.Errorf("%w %q", ErrInvalidCategory, f.Category))
	}
	if f.Min != nil && f.Min.Cents < 0 {
		return Invalid("min", ErrInvalidBound)
	}
	if f.Max != nil && f.Max.Cents < 0 {
		return Invalid("max", ErrInvalidBound)
	}
	if f.Min != nil && f.Max != nil && f.Min.Cents > f.Max.Cents {
		return Invalid("min", ErrInvalidRange)
	}
	return nil
}

// Query encodes the filter as GET /expenses parameters. Unset optionals are omitted.
func (f FilterState) Query() url.Values {
	q := url.Values{}
	q.Set("type", string(f.Granularity))
	q.Set("year", strconv.Itoa(f.Year))
	q.Set("month", strconv.Itoa(f.Month))
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	if f.Min != nil {
		q.Set("min", f.Min.String())
	}
	if f.Max != nil {
		q.Set("max", f.Max.String())
	}
	return q
}

// Label is the filter trigger caption.
func (f FilterState) Label() string {
	switch f.Granularity {
	case Day:
		return "Today"
	case Month:
		return fmt.Sprintf("Month %04d-%02d", f.Year, f.Month)
	case Year:
		return fmt.Sprintf("Year %04d", f.Year)
	default:
		return string(f.Granularity)
	}
}

// Equal compares filters by value, including the optional bounds.
func (f FilterState) Equal(o FilterState) bool {
	return f.Granularity == o.Granularity &&
		f.Year == o.Year &&
		f.Month == o.Month &&
		f.Category == o.Category &&
		boundEqual(f.Min, o.Min) &&
		boundEqual(f.Max, o.Max)
}

func boundEqual(a, b *Money) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cents == b.Cents
}
