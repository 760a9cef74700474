package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"expensectl/internal/amqp"
	"expensectl/internal/log"
)

func (rt *runtime) watchCommand() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the dashboard current as expenses change",
		Long: "Show the dashboard, then refetch and redraw it whenever an expense-changed\n" +
			"event arrives on the message broker. Runs until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app := rt.app
			if app.Events == nil {
				return errEventsDisabled
			}
			app.StartSweeper()

			snap, err := rt.loadDashboard(cmd, &ff)
			if err != nil {
				return inline(err, "Error loading expenses")
			}
			out := cmd.OutOrStdout()
			renderDashboard(out, snap)

			err = app.Events.Consume(ctx, func(ctx context.Context, msg *amqp.ExpenseChangedMessage) error {
				app.Logger.DebugContext(ctx, "Expense changed", "action", msg.Action, log.FieldExpenseID, msg.ExpenseID)
				if err := app.Engine.Refresh(ctx); err != nil {
					if rt.loggedOut(ctx) {
						return nil
					}
					return err
				}
				fmt.Fprintf(out, "\n-- %s %s --\n", msg.Action, msg.ExpenseID)
				renderDashboard(out, app.Engine.Snapshot())
				return nil
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	ff.register(cmd)
	return cmd
}

// loggedOut reports whether a failed refresh ended the session. The event is
// then acknowledged rather than requeued forever.
func (rt *runtime) loggedOut(ctx context.Context) bool {
	_, ok := rt.app.Sessions.Get(ctx)
	return !ok
}
