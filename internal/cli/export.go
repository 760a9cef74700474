package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"expensectl/internal/export/sheets"
)

func (rt *runtime) exportCommand() *cobra.Command {
	var (
		ff     filterFlags
		header bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Append the current view to a Google Sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			scfg, err := sheets.ConfigFromApp(rt.app.Config)
			if err != nil {
				return err
			}

			snap, err := rt.loadDashboard(cmd, &ff)
			if err != nil {
				return inline(err, "Error loading expenses")
			}
			if len(snap.Expenses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No expenses added yet")
				return nil
			}

			exp, err := sheets.New(ctx, scfg, rt.app.Logger)
			if err != nil {
				return err
			}
			res, err := exp.Export(ctx, snap.Filter, snap.Expenses, header)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d expenses (%s) to %s\n", len(snap.Expenses), snap.Filter.Label(), res.Range)
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().BoolVar(&header, "header", false, "write a header row first")
	return cmd
}
