package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/canspec/internal/compiler"
	"github.com/roach88/canspec/internal/emit/kcd"
	"github.com/roach88/canspec/internal/ir"
)

// SignalLayout is one row of the layout table.
type SignalLayout struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Offset int      `json:"bit_offset"`
	Width  int      `json:"bit_width"`
	Range  ir.Range `json:"range"`
	Scale  string   `json:"scale,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	Enum   string   `json:"enum,omitempty"`
}

// MessageLayout describes the wire layout of one message.
type MessageLayout struct {
	Name    string         `json:"name"`
	ID      string         `json:"id"`
	Length  int            `json:"length"`
	Width   int            `json:"bit_width"`
	Signals []SignalLayout `json:"signals"`
}

// NewLayoutCommand creates the layout command.
func NewLayoutCommand(rootOpts *RootOptions) *cobra.Command {
	var idBase uint32

	cmd := &cobra.Command{
		Use:   "layout <schema> [message]",
		Short: "Print the bit layout of compiled messages",
		Long: `Print the flattened signals of every message, or of one message
given by name or CAN identifier.

Examples:
  canspec layout rover.yaml
  canspec layout rover.yaml PitchControl
  canspec layout rover.yaml 0x2 --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 2 {
				ref = args[1]
			}
			return runLayout(rootOpts, args[0], ref, idBase, cmd)
		},
	}

	cmd.Flags().Uint32Var(&idBase, "id-base", 0, "first automatically assigned CAN identifier")

	return cmd
}

func runLayout(opts *RootOptions, path, ref string, idBase uint32, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	bus, err := LoadBus(path, compiler.Options{IDBase: idBase})
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	messages := make([]*ir.Message, 0, len(bus.Messages))
	if ref != "" {
		m, err := findMessage(bus, ref)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		messages = append(messages, m)
	} else {
		for i := range bus.Messages {
			messages = append(messages, &bus.Messages[i])
		}
	}

	layouts := make([]MessageLayout, len(messages))
	for i, m := range messages {
		layouts[i] = messageLayout(m)
	}

	if formatter.Format == "json" {
		return formatter.Success(layouts)
	}

	for i, l := range layouts {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		writeLayoutText(formatter.Writer, l)
	}
	return nil
}

func messageLayout(m *ir.Message) MessageLayout {
	l := MessageLayout{
		Name:    m.Name,
		ID:      kcd.FormatID(m.ID, m.Extended),
		Length:  m.Length,
		Width:   m.Width,
		Signals: make([]SignalLayout, len(m.Slots)),
	}
	for i, s := range m.Slots {
		sig := SignalLayout{
			Name:   s.Name(),
			Kind:   string(s.Kind),
			Offset: s.Offset,
			Width:  s.Width,
			Range:  s.Range,
			Unit:   s.Unit,
			Enum:   s.Enum,
		}
		if s.Kind == ir.SlotScaled {
			sig.Scale = ir.Decimal(s.Scale)
		}
		l.Signals[i] = sig
	}
	return l
}

func writeLayoutText(w io.Writer, l MessageLayout) {
	fmt.Fprintf(w, "%s %s (%d byte(s), %d bit(s))\n", l.Name, l.ID, l.Length, l.Width)
	for _, s := range l.Signals {
		var detail string
		switch s.Kind {
		case string(ir.SlotScaled):
			detail = fmt.Sprintf("[%s, %s] step %s", ir.Decimal(s.Range.Min), ir.Decimal(s.Range.Max), s.Scale)
			if s.Unit != "" {
				detail += " " + s.Unit
			}
		case string(ir.SlotEnum):
			detail = s.Enum
		default:
			detail = s.Kind
		}
		fmt.Fprintf(w, "  %-24s %s  %s\n", s.Name, bitSpan(s.Offset, s.Width), strings.TrimSpace(detail))
	}
}

// bitSpan renders "offset:width" as used by scenario files.
func bitSpan(offset, width int) string {
	return fmt.Sprintf("%d:%d", offset, width)
}
