package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/canspec/internal/codec"
	"github.com/roach88/canspec/internal/compiler"
	"github.com/roach88/canspec/internal/emit/kcd"
	"github.com/roach88/canspec/internal/ir"
)

// EncodeResult is one packed frame.
type EncodeResult struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Length  int    `json:"length"`
	Payload string `json:"payload"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	var idBase uint32

	cmd := &cobra.Command{
		Use:   "encode <schema> <message|id> [signal=value ...]",
		Short: "Pack signal values into a frame payload",
		Long: `Pack physical values into a frame of one message and print the payload
in hex. Every signal of the message must be given. Enum signals take a
variant name, bool signals take true or false.

A value outside its declared range fails with E108 and exit code 1.

Examples:
  canspec encode rover.yaml PitchControl target=180 enable=true
  canspec encode rover.yaml EStop stop=true --format json`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(rootOpts, args[0], args[1], args[2:], idBase, cmd)
		},
	}

	cmd.Flags().Uint32Var(&idBase, "id-base", 0, "first automatically assigned CAN identifier")

	return cmd
}

func runEncode(opts *RootOptions, path, ref string, assignments []string, idBase uint32, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	bus, err := LoadBus(path, compiler.Options{IDBase: idBase})
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	m, err := findMessage(bus, ref)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	values, err := parseAssignments(m, assignments)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	frame, err := codec.Pack(m, values)
	if err != nil {
		if compiler.Code(err) == "" {
			err = &UsageError{Message: err.Error()}
		}
		return formatter.Fail(ExitFailure, err)
	}

	result := EncodeResult{
		Message: m.Name,
		ID:      kcd.FormatID(m.ID, m.Extended),
		Length:  m.Length,
		Payload: frame.Hex(),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.Payload)
	return nil
}

// parseAssignments turns name=value arguments into codec values, typed by
// the kind of the named slot.
func parseAssignments(m *ir.Message, args []string) (codec.Values, error) {
	values := make(codec.Values, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, &UsageError{Message: fmt.Sprintf("expected signal=value, got %q", arg)}
		}
		s, ok := m.Slot(name)
		if !ok {
			return nil, &UsageError{Message: fmt.Sprintf("message %s has no signal %q", m.Name, name)}
		}
		if _, dup := values[name]; dup {
			return nil, &UsageError{Message: fmt.Sprintf("signal %q given twice", name)}
		}
		v, err := parseValue(s, raw)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}
	return values, nil
}
