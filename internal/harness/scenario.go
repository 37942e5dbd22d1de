package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a synchronization scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Codec is "json" (default) or "yaml", the format documents are stored in.
	Codec string `yaml:"codec,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`

	// dir resolves relative document paths.
	dir string
}

// Step is one operation. Which fields apply depends on Op.
type Step struct {
	Op   string `yaml:"op"`
	Tree string `yaml:"tree,omitempty"`

	// new
	Document string `yaml:"document,omitempty"`
	ID       string `yaml:"id,omitempty"`
	IDShort  string `yaml:"id_short,omitempty"`

	// bind, map_value
	Locator string `yaml:"locator,omitempty"`

	// set, add, remove
	Path      string `yaml:"path,omitempty"`
	Value     string `yaml:"value,omitempty"`
	ValueType string `yaml:"value_type,omitempty"`

	// update
	From string `yaml:"from,omitempty"`

	// fetch
	RejectDirty bool `yaml:"reject_dirty,omitempty"`

	// fail, heal: backend operation ("get", "put", "delete", "list")
	Backend string `yaml:"backend,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's outcome.
type Expect struct {
	// Error is the expected error class; empty means success.
	Error string `yaml:"error,omitempty"`

	// Status is the tree's bind status after the step.
	Status string `yaml:"status,omitempty"`
}

// Assertion validates the final trees, backend contents or trace.
type Assertion struct {
	Type    string   `yaml:"type"`
	Tree    string   `yaml:"tree,omitempty"`
	Other   string   `yaml:"other,omitempty"`
	Path    string   `yaml:"path,omitempty"`
	Locator string   `yaml:"locator,omitempty"`
	Equals  string   `yaml:"equals,omitempty"`
	Op      string   `yaml:"op,omitempty"`
	Ops     []string `yaml:"ops,omitempty"`
	Count   int      `yaml:"count,omitempty"`
}

// Step ops.
const (
	OpNew    = "new"
	OpBind   = "bind"
	OpCommit = "commit"
	OpFetch  = "fetch"
	OpUpdate = "update"
	OpSet    = "set"
	OpAdd    = "add"
	OpRemove = "remove"
	OpFail   = "fail"
	OpHeal   = "heal"

	OpMapValue    = "map_value"
	OpCommitValue = "commit_value"
	OpFetchValue  = "fetch_value"
)

// Assertion type constants.
const (
	AssertValue      = "value"
	AssertStatus     = "status"
	AssertCount      = "count"
	AssertEqual      = "equal"
	AssertStored     = "stored"
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
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
	scenario.dir = filepath.Dir(path)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// resolve makes a document path relative to the scenario file.
func (s *Scenario) resolve(path string) string {
	if filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch s.Codec {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("codec must be json or yaml, got %q", s.Codec)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	needTree := func() error {
		if step.Tree == "" {
			return fmt.Errorf("tree is required for %s", step.Op)
		}
		return nil
	}
	switch step.Op {
	case OpNew:
		if step.Document == "" && step.ID == "" {
			return fmt.Errorf("new needs document or id")
		}
		return needTree()
	case OpBind:
		if step.Locator == "" {
			return fmt.Errorf("locator is required for bind")
		}
		return needTree()
	case OpCommit, OpFetch, OpAdd:
		return needTree()
	case OpUpdate:
		if step.From == "" {
			return fmt.Errorf("from is required for update")
		}
		return needTree()
	case OpMapValue:
		if step.Locator == "" || step.Path == "" {
			return fmt.Errorf("locator and path are required for map_value")
		}
		return needTree()
	case OpSet, OpRemove, OpCommitValue, OpFetchValue:
		if step.Path == "" {
			return fmt.Errorf("path is required for %s", step.Op)
		}
		return needTree()
	case OpFail, OpHeal:
		if step.Backend == "" {
			return fmt.Errorf("backend operation is required for %s", step.Op)
		}
		return nil
	case "":
		return fmt.Errorf("op is required")
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertValue, AssertCount:
		if a.Tree == "" {
			return fmt.Errorf("tree is required for %s", a.Type)
		}
	case AssertStatus:
		if a.Tree == "" || a.Equals == "" {
			return fmt.Errorf("tree and equals are required for status")
		}
	case AssertEqual:
		if a.Tree == "" || a.Other == "" {
			return fmt.Errorf("tree and other are required for equal")
		}
	case AssertStored:
		if a.Locator == "" || a.Path == "" {
			return fmt.Errorf("locator and path are required for stored")
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("op is required for trace_count")
		}
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for trace_count")
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("ops list is required for trace_order")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
