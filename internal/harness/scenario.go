package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/skelpose/internal/engine"
)

// Scenario is a conformance test: a skeleton, a sequence of frames to
// evaluate, and assertions on the resulting poses.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Skeletons is the directory of CUE skeleton definitions. A relative
	// path is resolved against the scenario file's directory.
	Skeletons string `yaml:"skeletons"`

	// Skeleton names the definition to evaluate.
	Skeleton string `yaml:"skeleton"`

	// RunID fixes the run identifier. Empty uses testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// Frames are evaluated in order. Inputs persist between frames.
	Frames []engine.Frame `yaml:"frames"`

	// Assertions validate the evaluated poses.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one bone in one frame.
type Assertion struct {
	// Type is one of bone_world, bone_rotation, bone_scale or tip_near.
	Type string `yaml:"type"`

	// Frame is the 1-based frame the assertion applies to. Zero means the
	// last frame.
	Frame int `yaml:"frame,omitempty"`

	// Bone names the bone under test.
	Bone string `yaml:"bone"`

	// X and Y are the expected world position (bone_world, tip_near).
	X float64 `yaml:"x,omitempty"`
	Y float64 `yaml:"y,omitempty"`

	// Rotation is the expected world rotation in degrees (bone_rotation).
	Rotation float64 `yaml:"rotation,omitempty"`

	// Scale is the expected world X scale (bone_scale).
	Scale float64 `yaml:"scale,omitempty"`

	// Tolerance bounds the difference. Zero uses DefaultTolerance.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertBoneWorld    = "bone_world"
	AssertBoneRotation = "bone_rotation"
	AssertBoneScale    = "bone_scale"
	AssertTipNear      = "tip_near"
)

// DefaultTolerance applies when an assertion sets none.
const DefaultTolerance = 1e-3

// LoadScenario reads a scenario file and resolves its skeletons directory
// relative to the file. Unknown fields are rejected so typos such as
// "assertion:" fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario file, resolving a relative
// skeletons directory against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Skeletons != "" && !filepath.IsAbs(scenario.Skeletons) && basePath != "" {
		scenario.Skeletons = filepath.Join(basePath, scenario.Skeletons)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Skeletons == "" {
		return fmt.Errorf("skeletons directory is required")
	}
	if s.Skeleton == "" {
		return fmt.Errorf("skeleton is required")
	}
	if len(s.Frames) == 0 {
		return fmt.Errorf("frames list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	info, err := os.Stat(s.Skeletons)
	if err != nil {
		return fmt.Errorf("skeletons directory not found: %s", s.Skeletons)
	}
	if !info.IsDir() {
		return fmt.Errorf("skeletons path is not a directory: %s", s.Skeletons)
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Frames)); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, frames int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	switch a.Type {
	case AssertBoneWorld, AssertBoneRotation, AssertBoneScale, AssertTipNear:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Bone == "" {
		return fmt.Errorf("assertions[%d]: bone is required for %s", index, a.Type)
	}
	if a.Frame < 0 || a.Frame > frames {
		return fmt.Errorf("assertions[%d]: frame %d outside 1..%d", index, a.Frame, frames)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}
	return nil
}
