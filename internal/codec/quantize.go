package codec

import (
	"fmt"
	"math"

	"github.com/roach88/canspec/internal/ir"
)

// ErrRange is the error code of RangeError.
const ErrRange = "E108"

// RangeError reports a physical value outside a signal's declared range.
// It is raised at encode time; compilation never produces it.
type RangeError struct {
	Signal string   `json:"signal"`
	Value  float64  `json:"value"`
	Range  ir.Range `json:"range"`
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("[%s] signal %q: value %s outside range [%s, %s]",
		ErrRange, e.Signal, ir.Decimal(e.Value), ir.Decimal(e.Range.Min), ir.Decimal(e.Range.Max))
}

func (e *RangeError) Code() string { return ErrRange }
func (e *RangeError) Category() string { return "RangeError" }

// twoTo64 is 2^64 as a float; float64(math.MaxUint64) rounds up to it.
const twoTo64 = 1 << 64

// Quantize converts a physical value to the integer code of a scaled slot.
// Values outside the range, NaN and infinities are a RangeError; values
// inside are rounded half to even, never truncated.
func Quantize(s ir.Slot, physical float64) (uint64, error) {
	if math.IsNaN(physical) || !s.Range.Contains(physical) {
		return 0, &RangeError{Signal: s.Name(), Value: physical, Range: s.Range}
	}

	maxCode := s.MaxCode()
	x := math.RoundToEven((physical - s.Range.Min) / s.Range.Span() * float64(maxCode))
	if x >= twoTo64 {
		return maxCode, nil
	}
	return min(uint64(x), maxCode), nil
}

// Dequantize converts an integer code back to its physical value,
// Intercept + code*Scale. The generated header uses the same expression.
func Dequantize(s ir.Slot, code uint64) float64 {
	return s.Intercept + float64(code)*s.Scale
}
