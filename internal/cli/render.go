package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"expensectl/internal/core"
	"expensectl/internal/query"
)

const (
	dateTimeLayout = "02 Jan 2006, 15:04"
	chartWidth     = 24
)

// renderDashboard prints the filter caption, the total with a per-category
// chart when there is anything to chart, and the expense list.
func renderDashboard(w io.Writer, snap query.Snapshot) {
	fmt.Fprintln(w, snap.Filter.Label())
	if extra := constraints(snap.Filter); extra != "" {
		fmt.Fprintln(w, extra)
	}
	fmt.Fprintln(w)

	if snap.HasChart() {
		renderChart(w, snap.Aggregation)
		fmt.Fprintln(w)
	}

	if len(snap.Expenses) == 0 {
		fmt.Fprintln(w, "No expenses added yet")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range snap.Expenses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Title, e.Amount.Format(), e.Category)
		if !e.CreatedAt.IsZero() {
			fmt.Fprintf(tw, "\t  Added: %s\t\t\n", e.CreatedAt.Local().Format(dateTimeLayout))
		}
		if e.Edited() {
			fmt.Fprintf(tw, "\t  Updated: %s\t\t\n", e.UpdatedAt.Local().Format(dateTimeLayout))
		}
	}
	_ = tw.Flush()
}

func renderChart(w io.Writer, agg core.Aggregation) {
	fmt.Fprintf(w, "Total Expense: %s\n", agg.Total.Format())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range agg.ByCategory {
		bar := 0
		if agg.Total.Cents > 0 {
			bar = int(c.Amount.Cents * chartWidth / agg.Total.Cents)
		}
		if bar == 0 && c.Amount.Cents > 0 {
			bar = 1
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Category, c.Amount.Format(), strings.Repeat("#", bar))
	}
	_ = tw.Flush()
}

func constraints(f core.FilterState) string {
	var parts []string
	if f.Category != "" {
		parts = append(parts, "category "+string(f.Category))
	}
	if f.Min != nil {
		parts = append(parts, "min "+f.Min.Format())
	}
	if f.Max != nil {
		parts = append(parts, "max "+f.Max.Format())
	}
	if len(parts) == 0 {
		return ""
	}
	return "Filtered by " + strings.Join(parts, ", ")
}
