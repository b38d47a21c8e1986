// Package config describes simulation scenarios in YAML files and turns them
// into ready-to-run simulators.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is wrapped by every validation error.
var ErrInvalidScenario = errors.New("invalid scenario")

// WorldName refers to the outside world in couplings.
const WorldName = "world"

// Model kinds.
const (
	KindMachine = "machine"
	KindPress   = "press"
	KindDrill   = "drill"
)

var validKinds = map[string]bool{
	KindMachine: true, KindPress: true, KindDrill: true,
}

// Scenario is a complete simulation setup.
type Scenario struct {
	Models     []ModelSpec    `yaml:"models"`
	Couplings  []CouplingSpec `yaml:"couplings"`
	InputTo    string         `yaml:"input_to"`
	OutputFrom string         `yaml:"output_from"`
	Inputs     []InputSpec    `yaml:"inputs"`
	Limits     Limits         `yaml:"limits"`
}

// ModelSpec declares one model. ProcessingTime and Output may be left empty
// for presses and drills, which then use their standard values.
type ModelSpec struct {
	Name           string  `yaml:"name"`
	Kind           string  `yaml:"kind"`
	ProcessingTime float64 `yaml:"processing_time"`
	Output         string  `yaml:"output"`
}

// CouplingSpec routes the output of From to the input of To. Either end may
// be "world".
type CouplingSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// InputSpec is one exogenous input.
type InputSpec struct {
	Time    float64 `yaml:"time"`
	Payload string  `yaml:"payload"`
}

// Limits bound a run. Zero values mean no limit.
type Limits struct {
	MaxSteps uint64  `yaml:"max_steps"`
	Horizon  float64 `yaml:"horizon"`
}

// DefaultScenario is the press and drill pipeline fed with 14 parts.
func DefaultScenario() Scenario {
	return Scenario{
		Models: []ModelSpec{
			{Name: "press", Kind: KindPress},
			{Name: "drill", Kind: KindDrill},
		},
		Couplings: []CouplingSpec{
			{From: "press", To: "drill"},
		},
		InputTo:    "press",
		OutputFrom: "drill",
		Inputs: []InputSpec{
			{Time: 1.5, Payload: "12"},
			{Time: 2.7, Payload: "2"},
		},
	}
}

// LoadScenario reads and parses a YAML scenario file. Unknown keys are
// rejected.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}

	return ParseScenario(data)
}

// ParseScenario parses a YAML scenario and validates it.
func ParseScenario(data []byte) (Scenario, error) {
	var s Scenario

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return Scenario{}, fmt.Errorf("parsing scenario: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}

	return s, nil
}

// Validate checks names, kinds, times and references.
func (s Scenario) Validate() error {
	if len(s.Models) == 0 {
		return invalid("at least one model required")
	}

	names := make(map[string]bool, len(s.Models))
	for i, m := range s.Models {
		if err := validateModel(m, i); err != nil {
			return err
		}

		if names[m.Name] {
			return invalid("model[%d]: duplicated name %q", i, m.Name)
		}

		names[m.Name] = true
	}

	for i, c := range s.Couplings {
		if !names[c.From] && c.From != WorldName {
			return invalid("coupling[%d]: unknown source %q", i, c.From)
		}

		if !names[c.To] && c.To != WorldName {
			return invalid("coupling[%d]: unknown destination %q", i, c.To)
		}
	}

	if s.InputTo != "" && !names[s.InputTo] {
		return invalid("input_to: unknown model %q", s.InputTo)
	}

	if s.OutputFrom != "" && !names[s.OutputFrom] {
		return invalid("output_from: unknown model %q", s.OutputFrom)
	}

	if len(s.Inputs) > 0 && s.InputTo == "" && !hasWorldSource(s.Couplings) {
		return invalid("inputs given but no model receives them")
	}

	for i, in := range s.Inputs {
		if !isFinite(in.Time) {
			return invalid("input[%d]: time must be finite, got %v", i, in.Time)
		}
	}

	return s.Limits.validate()
}

func validateModel(m ModelSpec, idx int) error {
	prefix := fmt.Sprintf("model[%d]", idx)

	if m.Name == "" {
		return invalid("%s: name required", prefix)
	}

	if m.Name == WorldName {
		return invalid("%s: name %q is reserved", prefix, WorldName)
	}

	if !validKinds[m.Kind] {
		return invalid("%s: unknown kind %q; valid: machine, press, drill",
			prefix, m.Kind)
	}

	if math.IsNaN(m.ProcessingTime) || math.IsInf(m.ProcessingTime, 0) {
		return invalid("%s: processing_time must be finite, got %v",
			prefix, m.ProcessingTime)
	}

	if m.ProcessingTime < 0 {
		return invalid("%s: processing_time must be positive, got %v",
			prefix, m.ProcessingTime)
	}

	if m.Kind == KindMachine && m.ProcessingTime == 0 {
		return invalid("%s: processing_time required for a machine", prefix)
	}

	return nil
}

func (l Limits) validate() error {
	if math.IsNaN(l.Horizon) || math.IsInf(l.Horizon, 0) {
		return invalid("limits: horizon must be finite, got %v", l.Horizon)
	}

	if l.Horizon < 0 {
		return invalid("limits: horizon must not be negative, got %v", l.Horizon)
	}

	return nil
}

func hasWorldSource(couplings []CouplingSpec) bool {
	for _, c := range couplings {
		if c.From == WorldName {
			return true
		}
	}

	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...))
}
