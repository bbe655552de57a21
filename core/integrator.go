package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// EulerStep advances state by one forward-Euler step of size dt using the
// rates in f. Biomass is not clamped: a large dt can drive it negative.
func EulerStep(state *model.SimulationState, f *Fluxes, dt float64) {
	for i := range state.Biomass {
		state.Biomass[i] = state.Biomass[i] + f.Rate(i)*dt
	}
	state.Nitrate = state.Nitrate + f.DNitrateDt*dt
	state.ElapsedTime = state.ElapsedTime + dt
}

// checkFinite reports ErrNumericalDivergence if any state variable is NaN
// or infinite.
func checkFinite(state model.SimulationState) error {
	if math.IsNaN(state.Nitrate) || math.IsInf(state.Nitrate, 0) {
		return fmt.Errorf("%w: nitrate = %v", ErrNumericalDivergence, state.Nitrate)
	}
	for i, b := range state.Biomass {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("%w: biomass of group %d = %v", ErrNumericalDivergence, i, b)
		}
	}
	return nil
}
