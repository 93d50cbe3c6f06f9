package harness

import "github.com/roach88/canspec/internal/codec"

// FrameRecord is one frame produced or consumed by a vector.
type FrameRecord struct {
	Message string       `json:"message"`
	ID      uint32       `json:"id"`
	Payload string       `json:"payload"`
	Values  codec.Values `json:"values"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Bus and Fingerprint identify the compiled bus; empty when compilation
	// failed.
	Bus         string `json:"bus,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	// Frames lists every successfully checked vector in scenario order.
	Frames []FrameRecord `json:"frames"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Frames: []FrameRecord{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddFrame records a checked frame.
func (r *Result) AddFrame(f FrameRecord) {
	r.Frames = append(r.Frames, f)
}
