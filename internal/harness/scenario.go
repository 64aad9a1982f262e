package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/acttest/internal/debug"
	"github.com/roach88/acttest/internal/event"
)

// Scenario mounts a fixture tree, drives it with steps, then checks
// assertions against the final tree and the recorded handler calls.
type Scenario struct {
	// Name uniquely identifies this scenario; snapshot files default to it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionID fixes the session label for deterministic journals.
	// If empty, defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// Strict mounts the tree inside StrictMode.
	Strict bool `yaml:"strict,omitempty"`

	// AsyncMount mounts in an async commit, draining timers the first
	// render schedules.
	AsyncMount bool `yaml:"async_mount,omitempty"`

	// MaxRounds overrides the drain round budget.
	MaxRounds int `yaml:"max_rounds,omitempty"`

	// Debug overrides the serializer options used by snapshot assertions.
	Debug *debug.Options `yaml:"debug,omitempty"`

	// Tree is the fixture to mount.
	Tree Fixture `yaml:"tree"`

	// Steps run in order after the mount.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`

	// dir is the directory the scenario was loaded from.
	dir string
}

// Dir returns the directory the scenario file lives in, or "" for scenarios
// built in code.
func (s *Scenario) Dir() string { return s.dir }

// Fixture describes one tree position.
//
// A fixture with a Type is an element: a host tag, "Fragment", "StrictMode",
// or any other capitalised name, which becomes a component of that name
// rendering its children. A fixture with only Text is a text child. An
// element's Text, when set, is rendered before its Children.
//
// Prop values shaped like {record: label, delay: ms} become handlers that
// append label to the run's recorded list, after delay milliseconds of
// virtual time when delay is positive.
type Fixture struct {
	Type     string         `yaml:"type,omitempty"`
	Key      string         `yaml:"key,omitempty"`
	Props    map[string]any `yaml:"props,omitempty"`
	Text     string         `yaml:"text,omitempty"`
	Children []Fixture      `yaml:"children,omitempty"`
}

// Step is one action. Exactly one field is set.
type Step struct {
	Dispatch      *DispatchStep `yaml:"dispatch,omitempty"`
	DispatchAsync *DispatchStep `yaml:"dispatch_async,omitempty"`
	UpdateText    *UpdateStep   `yaml:"update_text,omitempty"`
	// Advance moves virtual time forward by that many milliseconds inside
	// an async commit, running due timers.
	Advance int `yaml:"advance,omitempty"`
}

// DispatchStep fires a handler prop on the Index-th node of type Target.
type DispatchStep struct {
	Target  string         `yaml:"target"`
	Index   int            `yaml:"index,omitempty"`
	Prop    string         `yaml:"prop"`
	Event   string         `yaml:"event,omitempty"`
	Options map[string]any `yaml:"options,omitempty"`
	Args    []any          `yaml:"args,omitempty"`
}

// Descriptor returns the event descriptor for the step.
func (d *DispatchStep) Descriptor() event.Descriptor {
	return event.Descriptor{Type: d.Event, Options: d.Options}
}

// UpdateStep replaces the text of the Index-th fixture of type Target and
// re-renders the tree.
type UpdateStep struct {
	Target string `yaml:"target"`
	Index  int    `yaml:"index,omitempty"`
	Text   string `yaml:"text"`
}

// Name returns the step kind.
func (s Step) Name() string {
	switch {
	case s.Dispatch != nil:
		return StepDispatch
	case s.DispatchAsync != nil:
		return StepDispatchAsync
	case s.UpdateText != nil:
		return StepUpdateText
	case s.Advance > 0:
		return StepAdvance
	}
	return ""
}

// Step kinds.
const (
	StepDispatch      = "dispatch"
	StepDispatchAsync = "dispatch_async"
	StepUpdateText    = "update_text"
	StepAdvance       = "advance"
)

// Assertion validates the final state.
type Assertion struct {
	// Type is one of count, find_one, recorded, text, snapshot.
	Type string `yaml:"type"`

	// Target is the node type (count, find_one, text).
	Target string `yaml:"target,omitempty"`

	// Index picks the Index-th match (text).
	Index int `yaml:"index,omitempty"`

	// Props restricts matches to nodes whose props deep-equal these
	// (count, find_one).
	Props map[string]any `yaml:"props,omitempty"`

	// Count is the expected number of matches (count).
	Count int `yaml:"count,omitempty"`

	// Labels is the expected recorded handler sequence (recorded).
	Labels []string `yaml:"labels,omitempty"`

	// Text is the expected text content (text).
	Text string `yaml:"text,omitempty"`

	// Golden names the snapshot file, defaulting to the scenario name
	// (snapshot).
	Golden string `yaml:"golden,omitempty"`

	// Expect is an inline snapshot; when set no file is read (snapshot).
	Expect string `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertCount        = "count"
	AssertFindOne      = "find_one"
	AssertRecorded     = "recorded"
	AssertText         = "text"
	AssertSnapshotType = "snapshot"
)

// LoadScenario reads a scenario from a .yaml, .yml or .cue file.
// Unknown fields are rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
	case ".cue":
		data, err = cueToJSON(path, data)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported scenario extension %q", ext)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	scenario.dir = filepath.Dir(path)
	return scenario, nil
}

// ParseScenario decodes and validates a YAML (or JSON) scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// cueToJSON evaluates a CUE scenario and exports it as JSON, which the YAML
// decoder reads as a YAML document.
func cueToJSON(path string, data []byte) ([]byte, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE scenario %s: %w", path, err)
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CUE scenario %s: %w", path, err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export CUE scenario %s: %w", path, err)
	}
	return out, nil
}

// LoadDir loads every scenario file directly inside dir, sorted by file
// name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() || !isScenarioFile(entry.Name()) {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func isScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".cue":
		return true
	}
	return false
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.MaxRounds < 0 {
		return fmt.Errorf("max_rounds must be non-negative")
	}
	if s.Tree.Type == "" {
		return fmt.Errorf("tree.type is required")
	}
	if err := validateFixture("tree", &s.Tree); err != nil {
		return err
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateFixture(path string, f *Fixture) error {
	if f.Type == "" {
		if f.Key != "" || len(f.Props) > 0 || len(f.Children) > 0 {
			return fmt.Errorf("%s: text fixtures take no key, props or children", path)
		}
		return nil
	}
	for name, value := range f.Props {
		if _, err := parseHandler(value); err != nil {
			return fmt.Errorf("%s.props.%s: %w", path, name, err)
		}
	}
	for i := range f.Children {
		if err := validateFixture(fmt.Sprintf("%s.children[%d]", path, i), &f.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	set := 0
	for _, ok := range []bool{s.Dispatch != nil, s.DispatchAsync != nil, s.UpdateText != nil, s.Advance != 0} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of dispatch, dispatch_async, update_text, advance is required", index)
	}
	if s.Advance < 0 {
		return fmt.Errorf("steps[%d]: advance must be positive", index)
	}
	for _, d := range []*DispatchStep{s.Dispatch, s.DispatchAsync} {
		if d == nil {
			continue
		}
		if d.Target == "" || d.Prop == "" {
			return fmt.Errorf("steps[%d]: target and prop are required for %s", index, s.Name())
		}
		if d.Index < 0 {
			return fmt.Errorf("steps[%d]: index must be non-negative", index)
		}
	}
	if u := s.UpdateText; u != nil {
		if u.Target == "" {
			return fmt.Errorf("steps[%d]: target is required for update_text", index)
		}
		if u.Index < 0 {
			return fmt.Errorf("steps[%d]: index must be non-negative", index)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCount:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertFindOne:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for find_one", index)
		}
	case AssertRecorded:
	case AssertText:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for text", index)
		}
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative", index)
		}
	case AssertSnapshotType:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
