package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/canspec/internal/codec"
	"github.com/roach88/canspec/internal/compiler"
	"github.com/roach88/canspec/internal/emit/kcd"
)

// DecodeResult is the decoded form of one frame.
type DecodeResult struct {
	Message string       `json:"message"`
	ID      string       `json:"id"`
	Payload string       `json:"payload"`
	Values  codec.Values `json:"values"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	var idBase uint32

	cmd := &cobra.Command{
		Use:   "decode <schema> <message|id> <payload-hex>",
		Short: "Decode a frame payload into signal values",
		Long: `Decode a hex payload with the layout of one message.

The message may be given by name or by CAN identifier.

Examples:
  canspec decode rover.yaml PitchPositionTelem FF0700
  canspec decode rover.yaml 0x1 0006 --format json`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], args[1], args[2], idBase, cmd)
		},
	}

	cmd.Flags().Uint32Var(&idBase, "id-base", 0, "first automatically assigned CAN identifier")

	return cmd
}

func runDecode(opts *RootOptions, path, ref, payload string, idBase uint32, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	bus, err := LoadBus(path, compiler.Options{IDBase: idBase})
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	m, err := findMessage(bus, ref)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	data, err := parsePayload(payload)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	values, err := codec.Unpack(m, data)
	if err != nil {
		return formatter.Fail(ExitFailure, &UsageError{Message: err.Error()})
	}

	result := DecodeResult{
		Message: m.Name,
		ID:      kcd.FormatID(m.ID, m.Extended),
		Payload: fmt.Sprintf("%X", data),
		Values:  values,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s %s [%s]\n", result.Message, result.ID, result.Payload)
	for _, name := range values.Names() {
		fmt.Fprintf(formatter.Writer, "  %s = %s\n", name, formatValue(values[name]))
	}
	return nil
}
