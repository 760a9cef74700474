package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"expensectl/internal/navigation"
	"expensectl/internal/services"
)

func (rt *runtime) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change your name or password",
	}
	cmd.AddCommand(rt.changeNameCommand(), rt.changePasswordCommand())
	return cmd
}

func (rt *runtime) changeNameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "name <new name>",
		Short: "Change the display name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := rt.app.Guard.Enter(ctx, navigation.Dashboard); err != nil {
				return err
			}
			form := &services.NameForm{Name: joinArgs(args)}
			msg, err := rt.app.Profile.ChangeName(ctx, form)
			if err != nil {
				return inline(err, services.MsgNameFailed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func (rt *runtime) changePasswordCommand() *cobra.Command {
	var form services.PasswordForm
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := rt.app.Guard.Enter(ctx, navigation.Dashboard); err != nil {
				return err
			}
			if form.OldPassword == "" {
				pw, err := rt.readLine("Current password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				form.OldPassword = pw
			}
			if form.NewPassword == "" {
				pw, err := rt.readLine("New password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				form.NewPassword = pw
			}
			msg, err := rt.app.Profile.ChangePassword(ctx, &form)
			if err != nil {
				return inline(err, services.MsgPasswordFailed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.OldPassword, "old", "", "current password (prompted when empty)")
	cmd.Flags().StringVar(&form.NewPassword, "new", "", "new password (prompted when empty)")
	return cmd
}
