package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one harness run against a schema.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the path of the schema file to compile.
	// Relative paths are resolved against the scenario file location.
	Schema string `yaml:"schema"`

	// RunID is an optional fixed run id recorded with the compiled model.
	// If empty, defaults to "test-run".
	RunID string `yaml:"run_id,omitempty"`

	// Steps construct or load objects in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate what the steps stored.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step builds one object. Exactly one of Construct and Load is set.
type Step struct {
	// Name labels the step in results and lets later steps refer to the
	// object as "$name".
	Name string `yaml:"name"`

	Construct *ConstructStep `yaml:"construct,omitempty"`
	Load      *LoadStep      `yaml:"load,omitempty"`

	// Expect is the expected representation of the object.
	Expect string `yaml:"expect,omitempty"`

	// ExpectError is an error code (e.g. "E304") or message fragment the
	// step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Store persists the object after it is built.
	Store bool `yaml:"store,omitempty"`
}

// ConstructStep calls a class constructor.
type ConstructStep struct {
	Class string         `yaml:"class"`
	ID    any            `yaml:"id,omitempty"`
	Args  map[string]any `yaml:"args,omitempty"`
}

// LoadStep runs the payload loader. Payload is inline data; File names a
// JSON or YAML payload file relative to the scenario.
type LoadStep struct {
	Class   string         `yaml:"class"`
	Payload map[string]any `yaml:"payload,omitempty"`
	File    string         `yaml:"file,omitempty"`
}

// Assertion validates the stored objects after all steps ran.
type Assertion struct {
	// Type specifies the assertion type:
	// - "stored_count": Class has exactly Count stored objects
	// - "stored_object": The object of Class with identifier ID is stored
	//   and its fields contain Expect (subset match)
	Type string `yaml:"type"`

	Class  string         `yaml:"class"`
	ID     string         `yaml:"id,omitempty"`
	Count  int            `yaml:"count,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertStoredCount  = "stored_count"
	AssertStoredObject = "stored_object"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Schema and payload file paths are resolved relative to the scenario.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(base, scenario.Schema)
	}
	for i := range scenario.Steps {
		if l := scenario.Steps[i].Load; l != nil && l.File != "" && !filepath.IsAbs(l.File) {
			l.File = filepath.Join(base, l.File)
		}
	}

	if _, err := os.Stat(scenario.Schema); os.IsNotExist(err) {
		return nil, fmt.Errorf("invalid scenario: schema file not found: %s", scenario.Schema)
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
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
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	names := make(map[string]bool)
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if names[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		names[step.Name] = true

		switch {
		case step.Construct != nil && step.Load != nil:
			return fmt.Errorf("steps[%d]: construct and load are mutually exclusive", i)
		case step.Construct != nil:
			if step.Construct.Class == "" {
				return fmt.Errorf("steps[%d].construct: class is required", i)
			}
		case step.Load != nil:
			if step.Load.Class == "" {
				return fmt.Errorf("steps[%d].load: class is required", i)
			}
			if (step.Load.Payload == nil) == (step.Load.File == "") {
				return fmt.Errorf("steps[%d].load: exactly one of payload and file is required", i)
			}
		default:
			return fmt.Errorf("steps[%d]: construct or load is required", i)
		}

		if step.Expect != "" && step.ExpectError != "" {
			return fmt.Errorf("steps[%d]: expect and expect_error are mutually exclusive", i)
		}
		if step.Store && step.ExpectError != "" {
			return fmt.Errorf("steps[%d]: a step expected to fail cannot be stored", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Class == "" {
		return fmt.Errorf("assertions[%d]: class is required", index)
	}

	switch a.Type {
	case AssertStoredCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for stored_count", index)
		}
	case AssertStoredObject:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for stored_object", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
