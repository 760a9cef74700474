package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"expensectl/internal/config"
	"expensectl/internal/gateway"
	"expensectl/internal/guard"
	"expensectl/internal/log"
	"expensectl/internal/navigation"
)

// Options configures a command tree. Zero fields fall back to the process
// environment and standard streams.
type Options struct {
	Config *config.Config
	Logger *log.Logger
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	Now    func() time.Time
}

// runtime is shared by every command tree built for one process, so the
// shell can rebuild commands per line while keeping a single App.
type runtime struct {
	opts  Options
	app   *App
	input *bufio.Reader
}

func newRuntime(opts Options) *runtime {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &runtime{opts: opts, input: bufio.NewReader(opts.In)}
}

// readLine prompts on Err and reads one line from the shared input, so
// prompts inside the shell consume the same stream as the shell itself.
func (rt *runtime) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(rt.opts.Err, prompt)
	}
	line, err := rt.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NewRootCommand builds the command tree. The App is created lazily by the
// first command that runs.
func NewRootCommand(opts Options) *cobra.Command {
	return newRuntime(opts).root()
}

// Execute runs args against a fresh tree and returns the exit code.
func Execute(ctx context.Context, opts Options, args []string) int {
	rt := newRuntime(opts)
	defer rt.close()

	cmd := rt.root()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		rt.reportError(err)
		return 1
	}
	return 0
}

func (rt *runtime) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "expensectl",
		Short:         "Track personal expenses against the expense API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.ensureApp(cmd.Context())
		},
	}
	cmd.SetIn(rt.opts.In)
	cmd.SetOut(rt.opts.Out)
	cmd.SetErr(rt.opts.Err)

	cmd.AddCommand(
		rt.registerCommand(),
		rt.loginCommand(),
		rt.logoutCommand(),
		rt.statusCommand(),
		rt.expensesCommand(),
		rt.profileCommand(),
		rt.watchCommand(),
		rt.exportCommand(),
		rt.shellCommand(),
	)
	return cmd
}

func (rt *runtime) ensureApp(ctx context.Context) error {
	if rt.app != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := rt.opts.Config
	if cfg == nil {
		LoadEnvFile()
		var err error
		if cfg, err = LoadAndValidateConfig(); err != nil {
			return err
		}
	}
	logger := rt.opts.Logger
	if logger == nil {
		logger = SetupLogger(cfg.LogLevel, rt.opts.Err)
	}

	app, err := NewApp(ctx, cfg, logger, rt.opts.Now)
	if err != nil {
		return err
	}
	app.Router.OnNavigate(func(_, to navigation.View) {
		if notice := viewNotice(to); notice != "" {
			fmt.Fprintln(rt.opts.Err, notice)
		}
	})
	rt.app = app
	return nil
}

func (rt *runtime) close() {
	if rt.app == nil {
		return
	}
	if err := rt.app.Close(); err != nil {
		rt.app.Logger.Error("Failed to close client", log.FieldError, err)
	}
	rt.app = nil
}

// viewNotice tells the user about redirects they did not ask for.
func viewNotice(to navigation.View) string {
	switch to {
	case navigation.ServerError:
		return "Cannot reach the expense server. Check your connection and try again."
	default:
		return ""
	}
}

// reportError prints err the way the dashboard would show it inline.
// Globally handled failures already produced their redirect notice.
func (rt *runtime) reportError(err error) {
	var ie *inlineError
	switch {
	case errors.As(err, &ie):
		fmt.Fprintln(rt.opts.Err, ie.msg)
	case errors.Is(err, guard.ErrNotAuthenticated):
		fmt.Fprintln(rt.opts.Err, "Not logged in. Run `expensectl login` first.")
	case errors.Is(err, gateway.ErrUnauthorized):
		fmt.Fprintln(rt.opts.Err, "Session expired. Please log in again.")
	case gateway.Handled(err):
		// the navigation notice said it already
	case errors.Is(err, context.Canceled):
	default:
		fmt.Fprintln(rt.opts.Err, "Error:", gateway.MessageOf(err, err.Error()))
	}
}

// inlineError carries the text a form shows under itself after a failed submit.
type inlineError struct {
	msg string
	err error
}

func (e *inlineError) Error() string { return e.msg }
func (e *inlineError) Unwrap() error { return e.err }

// inline attaches the display text for err: the server message, the field
// problem, or fallback. Globally handled failures and a missing session pass
// through unchanged so reportError can say what happened.
func inline(err error, fallback string) error {
	if err == nil || gateway.Handled(err) || errors.Is(err, context.Canceled) ||
		errors.Is(err, guard.ErrNotAuthenticated) {
		return err
	}
	return &inlineError{msg: gateway.MessageOf(err, fallback), err: err}
}
