package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/canspec/internal/ir"
)

// FrameSnapshot is the deterministic golden form of a scenario's frames.
type FrameSnapshot struct {
	ScenarioName string
	Bus          string
	Frames       []FrameRecord
}

// Canonical renders the snapshot as canonical JSON. Physical values use
// their shortest decimal form so the snapshot is stable across platforms.
func (s FrameSnapshot) Canonical() ([]byte, error) {
	frames := make(ir.IRArray, len(s.Frames))
	for i, f := range s.Frames {
		values := ir.IRObject{}
		for name, v := range f.Values {
			iv, err := toIRValue(v)
			if err != nil {
				return nil, fmt.Errorf("frame %d signal %q: %w", i, name, err)
			}
			values[name] = iv
		}
		frames[i] = ir.IRObject{
			"message": ir.IRString(f.Message),
			"id":      ir.IRInt(f.ID),
			"payload": ir.IRString(f.Payload),
			"values":  values,
		}
	}

	return ir.MarshalCanonical(ir.IRObject{
		"scenario": ir.IRString(s.ScenarioName),
		"bus":      ir.IRString(s.Bus),
		"frames":   frames,
	})
}

func toIRValue(v any) (ir.IRValue, error) {
	switch x := v.(type) {
	case float64:
		return ir.IRDecimal(x), nil
	case bool:
		return ir.IRBool(x), nil
	case string:
		return ir.IRString(x), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// RunWithGolden executes a scenario and compares its frames with the golden
// file testdata/golden/<scenario>.golden.
//
// Golden files are updated with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		return fmt.Errorf("scenario %s failed: %v", scenario.Name, result.Errors)
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares a result's frames against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := FrameSnapshot{
		ScenarioName: scenarioName,
		Bus:          result.Bus,
		Frames:       result.Frames,
	}.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
