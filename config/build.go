package config

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/machine"
)

// Build validates s and creates a simulator with its models, couplings,
// inputs and limits. A zero horizon or step limit means no limit.
func Build(s Scenario) (*devs.Simulator[string], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	b := devs.MakeBuilder[string]().
		WithMaxSteps(s.Limits.MaxSteps).
		WithLogger(logrus.WithField("component", "devs"))
	if s.Limits.Horizon > 0 {
		b = b.WithHorizon(s.Limits.Horizon)
	}

	sim := b.Build()

	for _, spec := range s.Models {
		sim.AddModel(spec.Name, newModel(spec))
	}

	for _, c := range s.Couplings {
		sim.AddCoupling(lookup(sim, c.From), lookup(sim, c.To))
	}

	if s.InputTo != "" {
		sim.RouteInputTo(lookup(sim, s.InputTo))
	}

	if s.OutputFrom != "" {
		sim.TakeOutputFrom(lookup(sim, s.OutputFrom))
	}

	for _, in := range s.Inputs {
		sim.AddInput(in.Payload, in.Time)
	}

	return sim, nil
}

func newModel(spec ModelSpec) *machine.Machine {
	processingTime, output := spec.ProcessingTime, spec.Output

	switch spec.Kind {
	case KindPress:
		processingTime = orDefault(processingTime, machine.PressProcessingTime)
		output = orDefaultString(output, machine.PressOutput)
	case KindDrill:
		processingTime = orDefault(processingTime, machine.DrillProcessingTime)
		output = orDefaultString(output, machine.DrillOutput)
	}

	return machine.New(spec.Name, processingTime, output)
}

func lookup(sim *devs.Simulator[string], name string) devs.ModelID {
	if name == WorldName {
		return devs.World
	}

	id, _ := sim.ModelByName(name)

	return id
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}

	return v
}

func orDefaultString(v, def string) string {
	if v == "" {
		return def
	}

	return v
}
