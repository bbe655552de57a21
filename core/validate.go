package core

import (
	"math"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// ValidateParameters checks params for the inconsistencies the builders and
// the integrator cannot recover from. Every error wraps
// ErrInvalidConfiguration.
func ValidateParameters(p model.Parameters) error {
	n := p.Groups()
	if n == 0 {
		return invalidf("no functional groups")
	}
	if len(p.Autotrophic) != n {
		return invalidf("%d autotroph flags for %d groups", len(p.Autotrophic), n)
	}
	if len(p.SeedBiomass) != n {
		return invalidf("%d seed biomass values for %d groups", len(p.SeedBiomass), n)
	}
	for i, v := range p.CellVolumes {
		if !(v > 0) || math.IsInf(v, 0) {
			return invalidf("cell volume of group %d must be positive and finite, got %v", i, v)
		}
	}
	for _, pr := range p.Pairings {
		if pr.Prey < 0 || pr.Prey >= n || pr.Consumer < 0 || pr.Consumer >= n {
			return invalidf("pairing (%d,%d) outside %d groups", pr.Prey, pr.Consumer, n)
		}
	}
	if !p.Mode.Valid() {
		return invalidf("unknown grazing mode %d", int(p.Mode))
	}
	if !(p.Dt > 0) || math.IsInf(p.Dt, 0) {
		return invalidf("dt must be positive and finite, got %v", p.Dt)
	}
	if !(p.MaxTime > 0) || math.IsInf(p.MaxTime, 0) {
		return invalidf("max time must be positive and finite, got %v", p.MaxTime)
	}
	if !(p.TimeOut > 0) || p.TimeOut > p.MaxTime {
		return invalidf("output interval must be in (0, %v], got %v", p.MaxTime, p.TimeOut)
	}
	if p.SweepCount < 1 {
		return invalidf("sweep count must be at least 1, got %d", p.SweepCount)
	}
	if !finite(p.SupplyBase) || !finite(p.SupplyStep) {
		return invalidf("sweep coefficients must be finite, got base %v step %v", p.SupplyBase, p.SupplyStep)
	}
	for i, b := range p.SeedBiomass {
		if b < 0 || !finite(b) {
			return invalidf("seed biomass of group %d must be non-negative and finite, got %v", i, b)
		}
	}
	if p.SeedScale < 0 || !finite(p.SeedScale) {
		return invalidf("seed scale must be non-negative and finite, got %v", p.SeedScale)
	}
	if p.SeedNitrate < 0 || !finite(p.SeedNitrate) {
		return invalidf("seed nitrate must be non-negative and finite, got %v", p.SeedNitrate)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
