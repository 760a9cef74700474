package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
)

var errUnterminatedQuote = errors.New("unterminated quote")

func (rt *runtime) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands in one process so a session without --remember lives on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt.app.StartSweeper()
			fmt.Fprintln(rt.opts.Err, `Type "help" for commands, "exit" to quit.`)

			for ctx.Err() == nil {
				line, err := rt.readLine("expensectl> ")
				if errors.Is(err, io.EOF) {
					fmt.Fprintln(rt.opts.Err)
					return nil
				}
				if err != nil {
					return err
				}

				args, err := splitArgs(line)
				if err != nil {
					fmt.Fprintln(rt.opts.Err, "Error:", err)
					continue
				}
				if len(args) == 0 {
					continue
				}
				switch args[0] {
				case "exit", "quit":
					return nil
				case "shell":
					fmt.Fprintln(rt.opts.Err, "Already in the shell")
					continue
				}

				// fresh tree per line: cobra flag values do not reset between runs
				sub := rt.root()
				sub.SetArgs(args)
				if err := sub.ExecuteContext(ctx); err != nil {
					rt.reportError(err)
				}
			}
			return nil
		},
	}
}

// splitArgs splits a shell line into words. Single and double quotes group
// words; a backslash escapes the next rune outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
