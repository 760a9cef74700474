package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"expensectl/internal/navigation"
	"expensectl/internal/services"
	"expensectl/internal/session"
)

func (rt *runtime) registerCommand() *cobra.Command {
	var form services.RegisterForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Password == "" {
				pw, err := rt.readLine("Password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				form.Password = pw
			}
			rt.app.Router.Navigate(cmd.Context(), navigation.Register)
			msg, err := rt.app.Auth.Register(cmd.Context(), form)
			if err != nil {
				return inline(err, services.MsgRegisterFailed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "display name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "password (prompted when empty)")
	return cmd
}

func (rt *runtime) loginCommand() *cobra.Command {
	var (
		form     services.LoginForm
		remember bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long: "Log in and store the session. With --remember the token is kept on disk and\n" +
			"the email is prefilled next time; otherwise the session lasts for this process\n" +
			"only (use it from `expensectl shell`).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if form.Email == "" {
				form.Email = rt.app.Auth.PrefillEmail(ctx)
			}
			if form.Email == "" {
				email, err := rt.readLine("Email: ")
				if err != nil {
					return fmt.Errorf("read email: %w", err)
				}
				form.Email = email
			}
			if form.Password == "" {
				pw, err := rt.readLine("Password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				form.Password = pw
			}

			// leave any earlier error view so a repeated failure is redirected again
			rt.app.Router.Navigate(ctx, navigation.Login)
			msg, err := rt.app.Auth.Login(ctx, form, remember)
			if err != nil {
				return inline(err, services.MsgLoginFailed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email (defaults to the remembered one)")
	cmd.Flags().StringVar(&form.Password, "password", "", "password (prompted when empty)")
	cmd.Flags().BoolVar(&remember, "remember", false, "keep the session on disk and remember the email")
	return cmd
}

func (rt *runtime) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (rt *runtime) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the API, session tier and token expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			app := rt.app

			fmt.Fprintf(out, "API:      %s\n", app.Config.APIURL)
			if email, ok := app.Sessions.RememberedEmail(ctx); ok {
				fmt.Fprintf(out, "Email:    %s\n", email)
			}

			token, ok := app.Sessions.Get(ctx)
			if !ok {
				fmt.Fprintln(out, "Session:  not logged in")
				return nil
			}
			tier, _ := app.Sessions.Tier(ctx)
			fmt.Fprintf(out, "Session:  %s\n", tierLabel(tier))

			info, err := session.Inspect(token)
			if err != nil {
				// opaque token: only the server can judge it
				fmt.Fprintln(out, "Token:    opaque")
				return nil
			}
			if info.ExpiresAt.IsZero() {
				fmt.Fprintln(out, "Expires:  never")
				return nil
			}
			state := "valid"
			if info.Expired(rt.opts.Now()) {
				state = "expired"
			}
			fmt.Fprintf(out, "Expires:  %s (%s)\n", info.ExpiresAt.Local().Format(dateTimeLayout), state)
			return nil
		},
	}
}

func tierLabel(k session.Kind) string {
	switch k {
	case session.Durable:
		return "remembered (durable)"
	case session.Ephemeral:
		return "this process only (ephemeral)"
	default:
		return string(k)
	}
}

var errEventsDisabled = errors.New("mutation events are disabled (set AMQP_URL)")
