package model

import "math"

// RedfieldNC is the molar N:C ratio (16:106).
const RedfieldNC = 16.0 / 106.0

// Allometry collects the power-law coefficients used to derive traits from
// cell volume, plus the constant grazing parameters.
type Allometry struct {
	ACell           float64 `yaml:"a_cell"`
	BCell           float64 `yaml:"b_cell"`
	VmaxCoeff       float64 `yaml:"vmax_coeff"`
	VmaxExp         float64 `yaml:"vmax_exp"`
	HalfSatCoeff    float64 `yaml:"half_sat_coeff"`
	HalfSatExp      float64 `yaml:"half_sat_exp"`
	RespirationRate float64 `yaml:"respiration_rate"`
	AGraz           float64 `yaml:"a_graz"`
	BGraz           float64 `yaml:"b_graz"`
	GrazeHalfSat    float64 `yaml:"graze_half_sat"`
	Assimilation    float64 `yaml:"assimilation"`
}

// DefaultAllometry returns the constants of the reference model.
func DefaultAllometry() Allometry {
	return Allometry{
		ACell:           18.7,
		BCell:           0.89,
		VmaxCoeff:       9.1e-9,
		VmaxExp:         0.67,
		HalfSatCoeff:    0.17,
		HalfSatExp:      0.27,
		RespirationRate: 0.03,
		AGraz:           0.5,
		BGraz:           -0.16,
		GrazeHalfSat:    0.5 * RedfieldNC,
		Assimilation:    0.1,
	}
}

// Parameters is the full, explicit configuration of the food-web model.
type Parameters struct {
	CellVolumes []float64
	Autotrophic []bool
	Pairings    []Pairing
	Allometry   Allometry
	Mode        GrazingMode

	Dt      float64
	MaxTime float64
	TimeOut float64

	SweepCount int
	SupplyBase float64
	SupplyStep float64

	SeedBiomass []float64
	SeedScale   float64
	SeedNitrate float64

	ExtinctionThreshold float64
	CheckDivergence     bool
}

// DefaultParameters returns the reference configuration: four size classes
// from 10^1 to 10^2.5 µm^3, each split into an autotroph (even index) and
// the heterotroph that grazes it (odd index).
func DefaultParameters() Parameters {
	const n = 8
	volumes := make([]float64, n)
	autotrophic := make([]bool, n)
	seed := make([]float64, n)
	var pairings []Pairing
	for i := 0; i < n; i++ {
		volumes[i] = math.Pow(10, 1+0.5*float64(i/2))
		autotrophic[i] = i%2 == 0
		seed[i] = 1
		if i%2 == 1 {
			pairings = append(pairings, Pairing{Prey: i - 1, Consumer: i})
		}
	}
	return Parameters{
		CellVolumes:         volumes,
		Autotrophic:         autotrophic,
		Pairings:            pairings,
		Allometry:           DefaultAllometry(),
		Mode:                HollingI,
		Dt:                  0.01,
		MaxTime:             10000,
		TimeOut:             1000,
		SweepCount:          10,
		SupplyBase:          0.02,
		SupplyStep:          0.06,
		SeedBiomass:         seed,
		SeedScale:           1e-2,
		SeedNitrate:         1.0,
		ExtinctionThreshold: 1e-25,
		CheckDivergence:     true,
	}
}

// Groups returns the number of functional groups.
func (p Parameters) Groups() int { return len(p.CellVolumes) }

// NitrateSupply returns the supply rate of sweep level k.
func (p Parameters) NitrateSupply(level int) float64 {
	return p.SupplyBase + float64(level)*p.SupplyStep
}

// Clone returns a deep copy so callers can tweak a copy of the defaults.
func (p Parameters) Clone() Parameters {
	out := p
	out.CellVolumes = append([]float64(nil), p.CellVolumes...)
	out.Autotrophic = append([]bool(nil), p.Autotrophic...)
	out.Pairings = append([]Pairing(nil), p.Pairings...)
	out.SeedBiomass = append([]float64(nil), p.SeedBiomass...)
	return out
}
