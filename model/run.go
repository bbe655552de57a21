package model

// OutputSample is a snapshot of state and fluxes at a sampling instant.
// The per-group slices are owned by the sample.
type OutputSample struct {
	Time         float64
	Nitrate      float64
	Biomass      []float64
	Autotrophy   []float64
	Heterotrophy []float64
	Predation    []float64
	Respiration  []float64
}

// Production returns autotrophy+heterotrophy for group i.
func (s OutputSample) Production(i int) float64 {
	return s.Autotrophy[i] + s.Heterotrophy[i]
}

// SummaryRecord is the per-level result handed to exporters.
type SummaryRecord struct {
	Level         int       `json:"level"`
	NitrateSupply float64   `json:"nitrate_supply"`
	Autotrophs    []float64 `json:"autotrophs"`
	Heterotrophs  []float64 `json:"heterotrophs"`
}

// SweepRun is the outcome of integrating one nitrate-supply level.
type SweepRun struct {
	Level         int
	NitrateSupply float64
	Steps         int
	Samples       []OutputSample
	Final         SimulationState
	Summary       SummaryRecord
}
