package harness

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/canspec/internal/codec"
	"github.com/roach88/canspec/internal/ir"
)

// AssertionError is returned when a layout or value expectation fails.
type AssertionError struct {
	Subject  string // message or signal the assertion is about
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Subject, e.Expected, e.Actual)
}

// checkMessages evaluates layout expectations against the bus and returns
// one message per failed check.
func checkMessages(bus *ir.Bus, expects []MessageExpect) []string {
	var errs []string
	fail := func(subject, expected, actual string) {
		errs = append(errs, (&AssertionError{Subject: subject, Expected: expected, Actual: actual}).Error())
	}

	for _, want := range expects {
		m, ok := bus.Message(want.Name)
		if !ok {
			fail(want.Name, "a compiled message", "nothing")
			continue
		}
		if want.ID != nil && *want.ID != m.ID {
			fail(m.Name+" id", fmt.Sprintf("0x%X", *want.ID), fmt.Sprintf("0x%X", m.ID))
		}
		if want.Extended != nil && *want.Extended != m.Extended {
			fail(m.Name+" extended", strconv.FormatBool(*want.Extended), strconv.FormatBool(m.Extended))
		}
		if want.Length != 0 && want.Length != m.Length {
			fail(m.Name+" length", strconv.Itoa(want.Length), strconv.Itoa(m.Length))
		}
		if want.Width != 0 && want.Width != m.Width {
			fail(m.Name+" bit_width", strconv.Itoa(want.Width), strconv.Itoa(m.Width))
		}

		names := make([]string, 0, len(want.Signals))
		for name := range want.Signals {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			s, ok := m.Slot(name)
			if !ok {
				fail(m.Name+"."+name, "a signal", "nothing")
				continue
			}
			got := fmt.Sprintf("%d:%d", s.Offset, s.Width)
			if strings.ReplaceAll(want.Signals[name], " ", "") != got {
				fail(m.Name+"."+name, want.Signals[name], got)
			}
		}
	}
	return errs
}

// matchValues compares decoded values against the expected ones. Scaled
// values match within half a quantization step.
func matchValues(m *ir.Message, want map[string]any, got codec.Values) error {
	for _, name := range codec.Values(want).Names() {
		s, ok := m.Slot(name)
		if !ok {
			return fmt.Errorf("unknown signal %q", name)
		}
		subject := m.Name + "." + name

		switch s.Kind {
		case ir.SlotScaled:
			w, ok := number(want[name])
			if !ok {
				return &AssertionError{Subject: subject, Expected: "a number", Actual: fmt.Sprintf("%T", want[name])}
			}
			g, _ := got[name].(float64)
			if math.Abs(g-w) > s.Scale/2+1e-9*math.Max(1, math.Abs(w)) {
				return &AssertionError{Subject: subject, Expected: ir.Decimal(w), Actual: ir.Decimal(g)}
			}
		default:
			if want[name] != got[name] {
				return &AssertionError{
					Subject:  subject,
					Expected: fmt.Sprint(want[name]),
					Actual:   fmt.Sprint(got[name]),
				}
			}
		}
	}
	return nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
