package model

import "fmt"

// GuildRole tags a functional group by how it acquires nitrogen.
type GuildRole int

const (
	// Autotroph groups take up nitrate.
	Autotroph GuildRole = iota
	// Heterotroph groups only gain biomass by grazing.
	Heterotroph
)

func (r GuildRole) String() string {
	switch r {
	case Autotroph:
		return "autotroph"
	case Heterotroph:
		return "heterotroph"
	default:
		return fmt.Sprintf("GuildRole(%d)", int(r))
	}
}

// FunctionalGroup holds the allometric traits of one size class.
// Values are derived once from CellVolume and never mutated afterwards.
type FunctionalGroup struct {
	Index           int
	CellVolume      float64 // µm^3
	CarbonQuota     float64 // fg C cell-1
	NitrogenQuota   float64 // µmol N cell-1
	VmaxUptake      float64 // µmol N cell-1 day-1
	HalfSatUptake   float64 // µmol N l-1
	RespirationRate float64 // day-1
	Role            GuildRole
}

// SpecificVmax is the biomass-specific maximum nitrate uptake rate (day-1).
func (g FunctionalGroup) SpecificVmax() float64 {
	return g.VmaxUptake / g.NitrogenQuota
}

// GrazingLink is one directed edge of the grazing graph. Prey is the group
// being eaten and Consumer the group gaining from it.
type GrazingLink struct {
	Prey         int
	Consumer     int
	MaxRate      float64 // (µmol N l-1)-1 day-1 for Holling I
	HalfSat      float64 // µmol N l-1
	Assimilation float64
}

// Pairing marks a grazing edge from Prey to Consumer.
type Pairing struct {
	Prey     int `yaml:"prey"`
	Consumer int `yaml:"consumer"`
}
