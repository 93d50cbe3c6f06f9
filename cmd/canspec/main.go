// Command canspec compiles CAN bus schemas into a KCD network definition
// and a C++ header.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/canspec/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands that produce their own error output return an ExitError.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
