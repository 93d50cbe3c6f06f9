package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the path of the schema file to compile.
	// Relative paths are resolved against the scenario file location.
	Schema string `yaml:"schema"`

	// IDBase is the first automatically assigned CAN identifier.
	IDBase uint32 `yaml:"id_base,omitempty"`

	// ExpectError makes compilation failure the expected outcome.
	ExpectError *ExpectError `yaml:"expect_error,omitempty"`

	// Messages are layout expectations on the compiled bus.
	Messages []MessageExpect `yaml:"messages,omitempty"`

	// Vectors are frame encode/decode checks.
	Vectors []Vector `yaml:"vectors,omitempty"`
}

// ExpectError describes an expected compile failure.
type ExpectError struct {
	// Category is the error category, e.g. "CyclicDependencyError".
	Category string `yaml:"category"`

	// Contains is an optional substring of the error message.
	Contains string `yaml:"contains,omitempty"`
}

// MessageExpect pins layout facts of one compiled message.
// Zero-valued optional fields are not checked.
type MessageExpect struct {
	Name     string  `yaml:"name"`
	ID       *uint32 `yaml:"id,omitempty"`
	Extended *bool   `yaml:"extended,omitempty"`
	Length   int     `yaml:"length,omitempty"`
	Width    int     `yaml:"bit_width,omitempty"`

	// Signals maps flattened signal names to "offset:width".
	Signals map[string]string `yaml:"signals,omitempty"`
}

// Vector is one frame codec check.
type Vector struct {
	// Message is the message name.
	Message string `yaml:"message"`

	// Values maps signal names to physical values, bools or variant names.
	Values map[string]any `yaml:"values,omitempty"`

	// Payload is the frame payload in hex.
	Payload string `yaml:"payload,omitempty"`

	// Error is the expected failure category or message substring.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "vector:" vs "vectors:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every .yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}

	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", s.Schema)
	}

	if s.ExpectError != nil {
		if s.ExpectError.Category == "" {
			return fmt.Errorf("expect_error: category is required")
		}
		if len(s.Messages) > 0 || len(s.Vectors) > 0 {
			return fmt.Errorf("expect_error cannot be combined with messages or vectors")
		}
		return nil
	}

	if len(s.Messages) == 0 && len(s.Vectors) == 0 {
		return fmt.Errorf("one of expect_error, messages or vectors is required")
	}

	for i, m := range s.Messages {
		if m.Name == "" {
			return fmt.Errorf("messages[%d]: name is required", i)
		}
	}

	for i, v := range s.Vectors {
		if v.Message == "" {
			return fmt.Errorf("vectors[%d]: message is required", i)
		}
		if v.Values == nil && v.Payload == "" {
			return fmt.Errorf("vectors[%d]: values or payload is required", i)
		}
	}

	return nil
}
