package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/canspec/internal/codec"
	"github.com/roach88/canspec/internal/compiler"
	"github.com/roach88/canspec/internal/ir"
	"github.com/roach88/canspec/internal/schema"
)

// Harness runs scenarios.
type Harness struct {
	logger *slog.Logger
}

// New creates a harness logging to logger. Nil discards.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	}
	return &Harness{logger: logger}
}

// Run executes a scenario with a silent harness.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Compile the schema
// 2. Match the outcome against expect_error, if given
// 3. Check message layout expectations
// 4. Check frame vectors in order
//
// Failed expectations are reported in the result; the returned error is
// reserved for scenarios that cannot be executed at all.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("nil scenario")
	}

	result := NewResult()
	bus, err := compiler.CompileFile(scenario.Schema, compiler.Options{
		IDBase: scenario.IDBase,
		Logger: h.logger,
	})

	if scenario.ExpectError != nil {
		checkExpectedError(result, scenario.ExpectError, err)
		h.logger.Info("scenario finished", "scenario", scenario.Name, "pass", result.Pass)
		return result, nil
	}

	if err != nil {
		result.AddError(fmt.Sprintf("compile %s: %v", scenario.Schema, err))
		return result, nil
	}
	result.Bus = bus.Name
	result.Fingerprint = bus.Fingerprint

	for _, msg := range checkMessages(bus, scenario.Messages) {
		result.AddError(msg)
	}

	for i, v := range scenario.Vectors {
		frame, err := h.runVector(bus, v)
		if err != nil {
			result.AddError(fmt.Sprintf("vectors[%d] %s: %v", i, v.Message, err))
			continue
		}
		if frame != nil {
			result.AddFrame(*frame)
		}
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"bus", bus.Name,
		"frames", len(result.Frames),
		"pass", result.Pass,
	)
	return result, nil
}

// runVector checks one vector. It returns the checked frame, or nil when
// the vector expected (and got) an error.
func (h *Harness) runVector(bus *ir.Bus, v Vector) (*FrameRecord, error) {
	m, ok := bus.Message(v.Message)
	if !ok {
		return nil, fmt.Errorf("no such message")
	}

	var (
		payload []byte
		err     error
	)
	if v.Payload != "" {
		payload, err = codec.ParseHex(v.Payload)
		if err != nil {
			return nil, err
		}
	}

	if v.Values != nil {
		frame, err := codec.Pack(m, codec.Values(v.Values))
		if v.Error != "" {
			return nil, expectFailure(v.Error, err)
		}
		if err != nil {
			return nil, err
		}
		if payload != nil && !strings.EqualFold(frame.Hex(), hexOf(payload)) {
			return nil, fmt.Errorf("packed %s, want %s", frame.Hex(), hexOf(payload))
		}
		payload = frame.Payload()
	}

	decoded, err := codec.Unpack(m, payload)
	if v.Values == nil && v.Error != "" {
		return nil, expectFailure(v.Error, err)
	}
	if err != nil {
		return nil, err
	}
	if v.Values != nil {
		if err := matchValues(m, v.Values, decoded); err != nil {
			return nil, err
		}
	}

	h.logger.Debug("vector checked", "message", m.Name, "payload", hexOf(payload))
	return &FrameRecord{
		Message: m.Name,
		ID:      m.ID,
		Payload: hexOf(payload),
		Values:  decoded,
	}, nil
}

func checkExpectedError(result *Result, want *ExpectError, err error) {
	if err == nil {
		result.AddError(fmt.Sprintf("expected %s, schema compiled successfully", want.Category))
		return
	}
	if got := categoryOf(err); got != want.Category {
		result.AddError(fmt.Sprintf("expected %s, got %s: %v", want.Category, got, err))
		return
	}
	if want.Contains != "" && !strings.Contains(err.Error(), want.Contains) {
		result.AddError(fmt.Sprintf("error %q does not contain %q", err.Error(), want.Contains))
	}
}

// expectFailure turns an operation outcome into a vector verdict when the
// vector expects an error.
func expectFailure(want string, err error) error {
	if err == nil {
		return fmt.Errorf("expected %s, operation succeeded", want)
	}
	if categoryOf(err) == want || strings.Contains(err.Error(), want) {
		return nil
	}
	return fmt.Errorf("expected %s, got %v", want, err)
}

// categoryOf extends compiler.Category with front-end parse errors.
func categoryOf(err error) string {
	if c := compiler.Category(err); c != "" {
		return c
	}
	var pe *schema.ParseError
	if errors.As(err, &pe) {
		return "ParseError"
	}
	return ""
}

func hexOf(data []byte) string {
	return fmt.Sprintf("%X", data)
}
