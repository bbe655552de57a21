package core

import (
	"math"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// BuildTraits derives per-group traits from cell volume by allometric
// scaling. Groups flagged autotrophic get a nitrate uptake capacity; the
// others get VmaxUptake = 0 and the Heterotroph role.
func BuildTraits(volumes []float64, autotrophic []bool, a model.Allometry) ([]model.FunctionalGroup, error) {
	if len(volumes) == 0 {
		return nil, invalidf("no functional groups")
	}
	if len(autotrophic) != len(volumes) {
		return nil, invalidf("%d autotroph flags for %d groups", len(autotrophic), len(volumes))
	}

	groups := make([]model.FunctionalGroup, len(volumes))
	for i, v := range volumes {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, invalidf("cell volume of group %d must be positive and finite, got %v", i, v)
		}

		carbon := a.ACell * math.Pow(v, a.BCell)
		// fg C -> µmol N: Redfield N:C, then 1e6/1e15.
		nitrogen := carbon * model.RedfieldNC * 1e-9

		vmax := 0.0
		if autotrophic[i] {
			vmax = a.VmaxCoeff * math.Pow(v, a.VmaxExp)
		}

		role := model.Autotroph
		if vmax == 0 {
			role = model.Heterotroph
		}

		groups[i] = model.FunctionalGroup{
			Index:           i,
			CellVolume:      v,
			CarbonQuota:     carbon,
			NitrogenQuota:   nitrogen,
			VmaxUptake:      vmax,
			HalfSatUptake:   a.HalfSatCoeff * math.Pow(v, a.HalfSatExp),
			RespirationRate: a.RespirationRate,
			Role:            role,
		}
	}
	return groups, nil
}
