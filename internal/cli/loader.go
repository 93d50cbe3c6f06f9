package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/roach88/canspec/internal/codec"
	"github.com/roach88/canspec/internal/compiler"
	"github.com/roach88/canspec/internal/ir"
	"github.com/roach88/canspec/internal/schema"
)

// Error code constants - unified across all CLI commands. Compile errors
// keep their own codes (E101-E107) and RangeError is E108.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeParse       = "E008" // Schema file could not be parsed
	ErrCodeStore       = "E009" // Build history unavailable
	ErrCodeUsage       = "E010" // Bad message reference, payload or value
)

// LoadError represents an error that occurred before compilation started.
type LoadError struct {
	Code    string
	Message string
	Pos     schema.Pos // parse position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// UsageError reports a bad argument to a codec command.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// LoadBus reads and compiles a schema file.
// Missing files and parse failures are reported as *LoadError; compile
// failures keep their typed compiler error.
func LoadBus(path string, opts compiler.Options) (*ir.Bus, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema file not found: %s", path), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema file: %v", err), Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}
	}
	if !schema.IsSchemaFile(path) {
		return nil, &LoadError{
			Code:    ErrCodeParse,
			Message: fmt.Sprintf("unsupported schema file %s (want .yaml, .yml, .json or .cue)", path),
		}
	}

	root, err := schema.Load(path)
	if err != nil {
		var pe *schema.ParseError
		if errors.As(err, &pe) {
			return nil, &LoadError{Code: ErrCodeParse, Message: pe.Message, Pos: pe.Pos, Err: err}
		}
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error(), Err: err}
	}

	return compiler.Compile(root, opts)
}

// compileLogger returns the slog logger for the compile pipeline: debug
// output on stderr in verbose mode, nothing otherwise.
func compileLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	if !opts.Verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// ErrorCode classifies an error into a stable CLI error code.
func ErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	if code := compiler.Code(err); code != "" {
		return code
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return ErrCodeUsage
	}
	return ErrCodeGeneric
}

// errorDetails returns the typed error for JSON output, or nil.
func errorDetails(err error) interface{} {
	var c compiler.Categorized
	if errors.As(err, &c) {
		return map[string]interface{}{
			"category": c.Category(),
			"error":    c,
		}
	}
	return nil
}

// findMessage resolves a message by name or by CAN identifier ("0x120",
// "288").
func findMessage(bus *ir.Bus, ref string) (*ir.Message, error) {
	if m, ok := bus.Message(ref); ok {
		return m, nil
	}
	if id, err := strconv.ParseUint(ref, 0, 32); err == nil {
		if m, ok := bus.MessageByID(uint32(id)); ok {
			return m, nil
		}
	}
	return nil, &UsageError{Message: fmt.Sprintf("bus %s has no message %q", bus.Name, ref)}
}

// parseValue converts a command-line value for slot s.
func parseValue(s ir.Slot, raw string) (any, error) {
	switch s.Kind {
	case ir.SlotScaled:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &UsageError{Message: fmt.Sprintf("signal %q wants a number, got %q", s.Name(), raw)}
		}
		return f, nil
	case ir.SlotBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &UsageError{Message: fmt.Sprintf("signal %q wants a bool, got %q", s.Name(), raw)}
		}
		return b, nil
	default:
		return raw, nil
	}
}

// formatValue renders a decoded value for text output.
func formatValue(v any) string {
	if f, ok := v.(float64); ok {
		return ir.Decimal(f)
	}
	return fmt.Sprint(v)
}

// parsePayload wraps codec.ParseHex errors as usage errors.
func parsePayload(raw string) ([]byte, error) {
	data, err := codec.ParseHex(raw)
	if err != nil {
		return nil, &UsageError{Message: err.Error()}
	}
	return data, nil
}
