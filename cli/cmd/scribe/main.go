// Command scribe streams model responses into documents from the terminal.
package main

import (
	"errors"
	"os"

	"github.com/petal-labs/scribe/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}
