package core

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// Interactions holds the grazing tables. Every matrix is N×N and indexed
// [prey, consumer]; entries without a grazing edge are zero.
type Interactions struct {
	// GrazeMax is the maximum grazing rate, aGraz·V[consumer]^bGraz.
	GrazeMax *mat.Dense
	// GrazeHollingI is the per-encounter rate used by the linear response.
	// It is numerically the same table as GrazeMax.
	GrazeHollingI *mat.Dense
	// HalfSat is the prey half-saturation for the saturating response.
	HalfSat *mat.Dense
	// Assimilation is the fraction of grazed nitrogen the consumer keeps.
	Assimilation *mat.Dense
	// Links lists the edges in pairing order.
	Links []model.GrazingLink
}

// BuildInteractions builds the grazing tables for groups from the pairing
// pattern. Other than range checks it has no failure modes.
func BuildInteractions(groups []model.FunctionalGroup, pairings []model.Pairing, a model.Allometry) (*Interactions, error) {
	n := len(groups)
	if n == 0 {
		return nil, invalidf("no functional groups")
	}

	in := &Interactions{
		GrazeMax:      mat.NewDense(n, n, nil),
		GrazeHollingI: mat.NewDense(n, n, nil),
		HalfSat:       mat.NewDense(n, n, nil),
		Assimilation:  mat.NewDense(n, n, nil),
		Links:         make([]model.GrazingLink, 0, len(pairings)),
	}

	seen := make(map[model.Pairing]bool, len(pairings))
	for _, p := range pairings {
		if p.Prey < 0 || p.Prey >= n || p.Consumer < 0 || p.Consumer >= n {
			return nil, invalidf("pairing (%d,%d) outside %d groups", p.Prey, p.Consumer, n)
		}
		if p.Prey == p.Consumer {
			return nil, invalidf("group %d cannot graze on itself", p.Prey)
		}
		if seen[p] {
			return nil, invalidf("duplicate pairing (%d,%d)", p.Prey, p.Consumer)
		}
		seen[p] = true

		rate := a.AGraz * math.Pow(groups[p.Consumer].CellVolume, a.BGraz)
		in.GrazeMax.Set(p.Prey, p.Consumer, rate)
		in.HalfSat.Set(p.Prey, p.Consumer, a.GrazeHalfSat)
		in.Assimilation.Set(p.Prey, p.Consumer, a.Assimilation)
		in.Links = append(in.Links, model.GrazingLink{
			Prey:         p.Prey,
			Consumer:     p.Consumer,
			MaxRate:      rate,
			HalfSat:      a.GrazeHalfSat,
			Assimilation: a.Assimilation,
		})
	}
	in.GrazeHollingI.Copy(in.GrazeMax)

	return in, nil
}

// Size returns the number of groups the tables cover.
func (in *Interactions) Size() int {
	r, _ := in.GrazeMax.Dims()
	return r
}
