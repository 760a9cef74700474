// Command expensectl is a terminal client for the expense tracker API.
package main

import (
	"os"

	"expensectl/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
