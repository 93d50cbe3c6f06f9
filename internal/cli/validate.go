package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/canspec/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool   `json:"valid"`
	Bus         string `json:"bus"`
	Fingerprint string `json:"fingerprint"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var idBase uint32

	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Check a schema without writing artifacts",
		Long: `Run the full compile pipeline on a schema and report the first error.

No artifacts are emitted. Faster feedback than compile while editing.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], idBase, cmd)
		},
	}

	cmd.Flags().Uint32Var(&idBase, "id-base", 0, "first automatically assigned CAN identifier")

	return cmd
}

func runValidate(opts *RootOptions, path string, idBase uint32, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	bus, err := LoadBus(path, compiler.Options{
		IDBase: idBase,
		Logger: compileLogger(opts, formatter.GetErrWriter()),
	})
	if err != nil {
		if compiler.Code(err) != "" {
			// An invalid schema is a validation failure, not a command error.
			return formatter.Fail(ExitFailure, err)
		}
		return formatter.Fail(ExitCommandError, err)
	}

	result := ValidationResult{Valid: true, Bus: bus.Name, Fingerprint: bus.Fingerprint}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "\u2713 %s is valid (bus %s, %d message(s))\n", path, bus.Name, len(bus.Messages))
	return nil
}
