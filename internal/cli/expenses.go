package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"expensectl/internal/core"
	"expensectl/internal/navigation"
	"expensectl/internal/query"
	"expensectl/internal/services"
)

func (rt *runtime) expensesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"exp", "dashboard"},
		Short:   "List and manage expenses",
	}
	cmd.AddCommand(
		rt.listCommand(),
		rt.addCommand(),
		rt.editCommand(),
		rt.cancelCommand(),
		rt.deleteCommand(),
	)
	return cmd
}

// loadDashboard enters the protected dashboard, applies the filter flags and
// waits for the resulting fetch.
func (rt *runtime) loadDashboard(cmd *cobra.Command, ff *filterFlags) (query.Snapshot, error) {
	ctx := cmd.Context()
	app := rt.app
	if err := app.Guard.Enter(ctx, navigation.Dashboard); err != nil {
		return query.Snapshot{}, err
	}

	f, err := ff.apply(cmd, app.Engine.Filter())
	if err != nil {
		return query.Snapshot{}, inline(err, "Invalid filter")
	}
	if f.Equal(app.Engine.Filter()) {
		err = app.Engine.Refresh(ctx)
	} else if err = app.Engine.SetFilter(ctx, f); err == nil {
		err = app.Engine.Wait()
	}
	return app.Engine.Snapshot(), err
}

// refreshAfterMutation refetches the current view the way the dashboard does
// after a save or delete. A failure here does not undo the mutation.
func (rt *runtime) refreshAfterMutation(ctx context.Context) {
	if err := rt.app.Engine.Refresh(ctx); err != nil {
		rt.app.Logger.WarnContext(ctx, "Refresh after mutation failed", "error", err)
	}
}

func (rt *runtime) listCommand() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the dashboard for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := rt.loadDashboard(cmd, &ff)
			if err != nil {
				return inline(err, "Error loading expenses")
			}
			renderDashboard(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}

type draftFlags struct {
	title    string
	amount   string
	category string
}

func (d *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.title, "title", "", "what the money went on")
	cmd.Flags().StringVar(&d.amount, "amount", "", "amount, e.g. 12.50 or 12,50")
	cmd.Flags().StringVar(&d.category, "category", "", "Food, Travel, Bills, Shopping or Other")
}

// over writes the flags that were set onto base.
func (d *draftFlags) over(cmd *cobra.Command, base core.ExpenseDraft) core.ExpenseDraft {
	fs := cmd.Flags()
	if fs.Changed("title") {
		base.Title = d.title
	}
	if fs.Changed("amount") {
		base.Amount = d.amount
	}
	if fs.Changed("category") {
		base.Category = d.category
	}
	return base
}

func (rt *runtime) addCommand() *cobra.Command {
	var df draftFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := rt.app.Guard.Enter(ctx, navigation.Dashboard); err != nil {
				return err
			}
			e, err := rt.app.Expenses.Create(ctx, df.over(cmd, core.ExpenseDraft{Category: string(core.Food)}))
			if err != nil {
				return inline(err, services.MsgExpenseFailed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expense added: %s (%s)\n", e.Title, e.ID)
			rt.refreshAfterMutation(ctx)
			return nil
		},
	}
	df.register(cmd)
	return cmd
}

func (rt *runtime) editCommand() *cobra.Command {
	var (
		df draftFlags
		ff filterFlags
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an expense shown in the current view",
		Long: "Edit an expense shown in the current view. Fields not given keep their value.\n" +
			"Use --period/--year/--month to widen the view when the expense is older.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := rt.loadDashboard(cmd, &ff)
			if err != nil {
				return inline(err, "Error loading expenses")
			}

			var found *core.Expense
			for i := range snap.Expenses {
				if snap.Expenses[i].ID == args[0] {
					found = &snap.Expenses[i]
					break
				}
			}
			if found == nil {
				return fmt.Errorf("expense %s is not in the current view (%s)", args[0], snap.Filter.Label())
			}

			form := rt.app.Form
			form.Edit(*found)
			form.SetDraft(df.over(cmd, form.Draft()))
			e, err := form.Submit(ctx)
			if err != nil {
				// the form stays in edit mode until `expenses cancel`
				return inline(err, services.MsgExpenseFailed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expense updated: %s (%s)\n", e.Title, e.ID)
			rt.refreshAfterMutation(ctx)
			return nil
		},
	}
	df.register(cmd)
	// --category belongs to the draft here; the view filter keeps its category
	ff.registerPeriod(cmd)
	return cmd
}

func (rt *runtime) cancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Discard an unfinished edit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form := rt.app.Form
			if form.Mode() != services.ModeEdit {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to cancel")
				return nil
			}
			id := form.EditingID()
			form.Cancel()
			fmt.Fprintf(cmd.OutOrStdout(), "Edit of %s cancelled\n", id)
			return nil
		},
	}
}

func (rt *runtime) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := rt.app.Guard.Enter(ctx, navigation.Dashboard); err != nil {
				return err
			}
			if err := rt.app.Expenses.Delete(ctx, args[0]); err != nil {
				return inline(err, services.MsgExpenseFailed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expense deleted: %s\n", args[0])
			rt.refreshAfterMutation(ctx)
			return nil
		},
	}
}
