package core

import (
	"gonum.org/v1/gonum/floats"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// FoodWeb bundles the immutable trait and grazing tables shared by every
// sweep run. It is safe for concurrent reads.
type FoodWeb struct {
	Groups       []model.FunctionalGroup
	Interactions *Interactions
	Mode         model.GrazingMode
	// Threshold is the soft biomass floor below which respiration and
	// predation are switched off.
	Threshold float64
}

// NewFoodWeb builds traits and grazing tables from params.
func NewFoodWeb(params model.Parameters) (*FoodWeb, error) {
	if !params.Mode.Valid() {
		return nil, invalidf("unknown grazing mode %d", int(params.Mode))
	}
	if params.ExtinctionThreshold < 0 {
		return nil, invalidf("extinction threshold must be non-negative, got %v", params.ExtinctionThreshold)
	}
	groups, err := BuildTraits(params.CellVolumes, params.Autotrophic, params.Allometry)
	if err != nil {
		return nil, err
	}
	in, err := BuildInteractions(groups, params.Pairings, params.Allometry)
	if err != nil {
		return nil, err
	}
	return &FoodWeb{
		Groups:       groups,
		Interactions: in,
		Mode:         params.Mode,
		Threshold:    params.ExtinctionThreshold,
	}, nil
}

// Size returns the number of groups.
func (w *FoodWeb) Size() int { return len(w.Groups) }

// Fluxes holds the instantaneous per-group rates (µmol N l-1 day-1).
type Fluxes struct {
	Autotrophy   []float64
	Heterotrophy []float64
	Predation    []float64
	Respiration  []float64

	NitrateUptake float64
	DNitrateDt    float64
}

// NewFluxes allocates flux buffers for n groups.
func NewFluxes(n int) *Fluxes {
	return &Fluxes{
		Autotrophy:   make([]float64, n),
		Heterotrophy: make([]float64, n),
		Predation:    make([]float64, n),
		Respiration:  make([]float64, n),
	}
}

// Rate returns dB/dt of group i.
func (f *Fluxes) Rate(i int) float64 {
	return f.Autotrophy[i] + f.Heterotrophy[i] - f.Respiration[i] - f.Predation[i]
}

// UptakeLimitation is the Michaelis-Menten nitrate limitation term. It lies
// in [0,1) for nitrate >= 0 and halfSat > 0.
func UptakeLimitation(nitrate, halfSat float64) float64 {
	return nitrate / (nitrate + halfSat)
}

// EvaluateFluxes computes the right-hand side for state under the given
// nitrate supply rate and writes it into f. It does not modify state.
func (w *FoodWeb) EvaluateFluxes(state model.SimulationState, supply float64, f *Fluxes) {
	b := state.Biomass
	n := len(w.Groups)

	for i, g := range w.Groups {
		f.Autotrophy[i] = g.SpecificVmax() * UptakeLimitation(state.Nitrate, g.HalfSatUptake) * b[i]
		f.Respiration[i] = g.RespirationRate * b[i]
	}

	eff := w.Interactions.Assimilation
	for i := 0; i < n; i++ {
		gain, loss := 0.0, 0.0
		for j := 0; j < n; j++ {
			// i as consumer of j, then i as prey of j.
			gain += eff.At(j, i) * w.grazing(j, i, b)
			loss += w.grazing(i, j, b)
		}
		f.Heterotrophy[i] = gain
		f.Predation[i] = loss
	}

	// Functionally extinct groups stop losing biomass. Their gains are left
	// alone, so a consumer keeps grazing an extinct prey.
	for i := 0; i < n; i++ {
		if b[i] < w.Threshold {
			f.Respiration[i] = 0
			f.Predation[i] = 0
		}
	}

	f.NitrateUptake = floats.Sum(f.Autotrophy)
	f.DNitrateDt = supply - f.NitrateUptake
}

// grazing is the biomass flow from prey to consumer under the configured
// functional response. Heterotrophy scales it by assimilation efficiency;
// predation takes it whole.
func (w *FoodWeb) grazing(prey, consumer int, b []float64) float64 {
	if w.Mode == model.HollingII {
		rate := w.Interactions.GrazeMax.At(prey, consumer)
		if rate == 0 {
			return 0
		}
		k := w.Interactions.HalfSat.At(prey, consumer)
		return rate * (b[prey] / (b[prey] + k)) * b[consumer]
	}
	rate := w.Interactions.GrazeHollingI.At(prey, consumer)
	if rate == 0 {
		return 0
	}
	return rate * b[consumer] * b[prey]
}
