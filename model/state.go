package model

// SimulationState is the integrated state of one sweep run.
type SimulationState struct {
	Biomass     []float64 // µmol N l-1 per group
	Nitrate     float64   // µmol N l-1
	ElapsedTime float64   // days
}

// NewSimulationState allocates a zeroed state for n groups.
func NewSimulationState(n int) SimulationState {
	return SimulationState{Biomass: make([]float64, n)}
}

// Reset restores the seed condition: biomass = seed·scale, the given
// nitrate and zero elapsed time. The Biomass slice is reused.
func (s *SimulationState) Reset(seed []float64, scale, nitrate float64) {
	if len(s.Biomass) != len(seed) {
		s.Biomass = make([]float64, len(seed))
	}
	for i, b := range seed {
		s.Biomass[i] = b * scale
	}
	s.Nitrate = nitrate
	s.ElapsedTime = 0
}

// Clone returns a deep copy.
func (s SimulationState) Clone() SimulationState {
	out := s
	out.Biomass = append([]float64(nil), s.Biomass...)
	return out
}

// TotalBiomass sums biomass over all groups.
func (s SimulationState) TotalBiomass() float64 {
	total := 0.0
	for _, b := range s.Biomass {
		total += b
	}
	return total
}
