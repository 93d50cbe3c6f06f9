// Package harness provides conformance testing for canspec schemas.
//
// A scenario names a schema, what compiling it must produce, and frame
// vectors that exercise the runtime codec against the compiled layout.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: ../schemas/rover.yaml
//	id_base: 256
//	messages:
//	  - name: PitchControl
//	    id: 257
//	    length: 2
//	vectors:
//	  - message: PitchControl
//	    values: { target: 180, enable: true }
//	    payload: "0006"
//	  - message: PitchControl
//	    values: { target: 400, enable: true }
//	    error: RangeError
//
// A scenario whose schema must be rejected uses expect_error instead of
// messages and vectors:
//
//	expect_error:
//	  category: CyclicDependencyError
//	  contains: "A → B → A"
//
// # Vectors
//
// A vector with values and payload is checked both ways: packing the values
// must produce the payload, and unpacking the payload must give back the
// values (scaled values within half a quantization step). A vector with only
// values is packed; one with only a payload is unpacked. error expects the
// operation to fail with that category or message text.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/rover.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
