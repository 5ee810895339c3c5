package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/branchless/internal/control"
	"github.com/roach88/branchless/internal/engine"
	"github.com/roach88/branchless/internal/ir"
)

// Scenario defines a conformance test scenario: a flow of program runs and
// assertions over the resulting transitions and stored runs.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Specs lists CUE files declaring the programs the flow runs.
	// Paths are relative to the scenario file location.
	Specs []string `yaml:"specs"`

	// RunToken is the fixed run token for every run in the scenario.
	// If empty, DefaultRunToken is used.
	RunToken string `yaml:"run_token,omitempty"`

	// Flow runs programs in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the trace and the store after the flow.
	// Supported types: transition_count, transition_order, final_value,
	// matches_native.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep runs one program.
type FlowStep struct {
	// Run is the program name.
	Run string `yaml:"run"`

	// Mode is the loop driver: trampoline (default) or recursive.
	Mode string `yaml:"mode,omitempty"`

	// MaxSteps overrides the engine step quota when positive.
	MaxSteps int64 `yaml:"max_steps,omitempty"`

	// Expect specifies the expected run outcome.
	// If nil, the run only has to complete without error.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected run behavior. Only the fields that are
// set are checked.
type ExpectClause struct {
	BodyCount *int64 `yaml:"body_count,omitempty"`
	Final     *int64 `yaml:"final,omitempty"`

	// Target is the outcome of the last decision: then, else or terminate.
	Target string `yaml:"target,omitempty"`

	// Error is a runtime error code the run must fail with, such as
	// QUOTA_EXCEEDED. It cannot be combined with the other fields.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the stored runs.
type Assertion struct {
	// Type specifies the assertion type:
	// - "transition_count": the program has exactly Count transitions
	// - "transition_order": Outcomes appear in the program's transitions in order
	// - "final_value": the program's last stored run ended with Value
	// - "matches_native": the native loop agrees with the program's last run
	Type string `yaml:"type"`

	// Program is the program the assertion is about.
	Program string `yaml:"program"`

	// Count is the expected number of transitions (transition_count).
	Count int `yaml:"count,omitempty"`

	// Outcomes is the expected outcome order (transition_order).
	Outcomes []string `yaml:"outcomes,omitempty"`

	// Value is the expected final value (final_value).
	Value *int64 `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertTransitionCount = "transition_count"
	AssertTransitionOrder = "transition_order"
	AssertFinalValue      = "final_value"
	AssertMatchesNative   = "matches_native"
)

var validTargets = []string{ir.OutcomeThen, ir.OutcomeElse, ir.OutcomeTerminate}

var validOutcomes = []string{ir.OutcomeThen, ir.OutcomeElse, ir.OutcomeContinue, ir.OutcomeTerminate}

var validErrorCodes = []string{
	string(engine.ErrCodeUnknownConstruct),
	string(engine.ErrCodeUnknownRelation),
	string(engine.ErrCodeInvalidWidth),
	string(engine.ErrCodeQuotaExceeded),
}

// LoadScenario reads and parses a scenario YAML file, resolving spec
// paths relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to basePath. An empty basePath leaves
// relative paths relative to the working directory.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve spec paths BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
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

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, step := range s.Flow {
		if err := validateFlowStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateFlowStep(index int, step *FlowStep) error {
	if step.Run == "" {
		return fmt.Errorf("flow[%d]: run is required", index)
	}
	if step.Mode != "" {
		if _, err := control.ParseMode(step.Mode); err != nil {
			return fmt.Errorf("flow[%d]: %w", index, err)
		}
	}
	if step.MaxSteps < 0 {
		return fmt.Errorf("flow[%d]: max_steps must be non-negative", index)
	}

	e := step.Expect
	if e == nil {
		return nil
	}
	if e.BodyCount == nil && e.Final == nil && e.Target == "" && e.Error == "" {
		return fmt.Errorf("flow[%d].expect: at least one of body_count, final, target or error is required", index)
	}
	if e.Target != "" && !slices.Contains(validTargets, e.Target) {
		return fmt.Errorf("flow[%d].expect: unknown target %q", index, e.Target)
	}
	if e.Error != "" {
		if !slices.Contains(validErrorCodes, e.Error) {
			return fmt.Errorf("flow[%d].expect: unknown error code %q", index, e.Error)
		}
		if e.BodyCount != nil || e.Final != nil || e.Target != "" {
			return fmt.Errorf("flow[%d].expect: error cannot be combined with other expectations", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Program == "" {
		return fmt.Errorf("assertions[%d]: program is required", index)
	}

	switch a.Type {
	case AssertTransitionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for transition_count", index)
		}
	case AssertTransitionOrder:
		if len(a.Outcomes) == 0 {
			return fmt.Errorf("assertions[%d]: outcomes list is required for transition_order", index)
		}
		for _, o := range a.Outcomes {
			if !slices.Contains(validOutcomes, o) {
				return fmt.Errorf("assertions[%d]: unknown outcome %q", index, o)
			}
		}
	case AssertFinalValue:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for final_value", index)
		}
	case AssertMatchesNative:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
