package core

import (
	"testing"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// smallParams is the reference food web with a short schedule:
// 1000 steps of 0.01 days, sampled every 100 steps.
func smallParams() model.Parameters {
	p := model.DefaultParameters().Clone()
	p.MaxTime = 10
	p.TimeOut = 1
	p.SweepCount = 4
	return p
}

func mustFoodWeb(t *testing.T, p model.Parameters) *FoodWeb {
	t.Helper()
	web, err := NewFoodWeb(p)
	if err != nil {
		t.Fatalf("NewFoodWeb error: %v", err)
	}
	return web
}

func mustEngine(t *testing.T, p model.Parameters, opts ...EngineOption) *SimulationEngine {
	t.Helper()
	e, err := NewSimulationEngine(p, opts...)
	if err != nil {
		t.Fatalf("NewSimulationEngine error: %v", err)
	}
	return e
}

func seededState(p model.Parameters) model.SimulationState {
	s := model.NewSimulationState(p.Groups())
	s.Reset(p.SeedBiomass, p.SeedScale, p.SeedNitrate)
	return s
}
