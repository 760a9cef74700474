package cli

import (
	"github.com/spf13/cobra"

	"expensectl/internal/core"
)

// filterFlags are the dashboard filter controls. Unset flags keep the
// engine's current value, so the shell remembers the last filter.
type filterFlags struct {
	period   string
	year     int
	month    int
	category string
	min      string
	max      string
	clear    bool

	// full is set when the category and amount controls are registered too
	full bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	f.registerPeriod(cmd)
	f.full = true
	fs := cmd.Flags()
	fs.StringVar(&f.category, "category", "", "only this category")
	fs.StringVar(&f.min, "min", "", "minimum amount")
	fs.StringVar(&f.max, "max", "", "maximum amount")
	fs.BoolVar(&f.clear, "all", false, "drop category and amount constraints")
}

// registerPeriod adds only the time controls.
func (f *filterFlags) registerPeriod(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.period, "period", "", "today, month or year")
	fs.IntVar(&f.year, "year", 0, "year for month/year periods")
	fs.IntVar(&f.month, "month", 0, "month (1-12) for the month period")
}

// apply edits base with whatever flags were set on cmd.
func (f *filterFlags) apply(cmd *cobra.Command, base core.FilterState) (core.FilterState, error) {
	out := base
	fs := cmd.Flags()

	if fs.Changed("period") {
		g, err := core.ParseGranularity(f.period)
		if err != nil {
			return base, core.Invalid("period", err)
		}
		out.Granularity = g
	}
	if fs.Changed("year") {
		out.Year = f.year
	}
	if fs.Changed("month") {
		out.Month = f.month
	}
	if !f.full {
		return out, out.Validate()
	}
	if f.clear {
		out.Category, out.Min, out.Max = "", nil, nil
	}
	if fs.Changed("category") {
		if f.category == "" {
			out.Category = ""
		} else {
			c, err := core.ParseCategory(f.category)
			if err != nil {
				return base, core.Invalid("category", err)
			}
			out.Category = c
		}
	}
	if fs.Changed("min") {
		m, err := core.ParseBound(f.min)
		if err != nil {
			return base, core.Invalid("min", err)
		}
		out.Min = m
	}
	if fs.Changed("max") {
		m, err := core.ParseBound(f.max)
		if err != nil {
			return base, core.Invalid("max", err)
		}
		out.Max = m
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}
