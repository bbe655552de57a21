package core

import (
	"fmt"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// Sampler snapshots state and fluxes every stride steps, up to capacity
// samples.
type Sampler struct {
	stride   int
	capacity int
	count    int
	samples  []model.OutputSample
}

// NewSampler returns a sampler writing one sample every stride observed
// steps. Recording more than capacity samples is an error.
func NewSampler(stride, capacity int) *Sampler {
	return &Sampler{
		stride:   stride,
		capacity: capacity,
		samples:  make([]model.OutputSample, 0, capacity),
	}
}

// Observe registers one completed integration step. It reports whether a
// sample was taken.
func (s *Sampler) Observe(state model.SimulationState, f *Fluxes) (bool, error) {
	s.count++
	if s.count != s.stride {
		return false, nil
	}
	s.count = 0

	if len(s.samples) >= s.capacity {
		return false, fmt.Errorf("%w: sample %d exceeds capacity %d", ErrOutputBufferOverflow, len(s.samples)+1, s.capacity)
	}
	s.samples = append(s.samples, model.OutputSample{
		Time:         state.ElapsedTime,
		Nitrate:      state.Nitrate,
		Biomass:      append([]float64(nil), state.Biomass...),
		Autotrophy:   append([]float64(nil), f.Autotrophy...),
		Heterotrophy: append([]float64(nil), f.Heterotrophy...),
		Predation:    append([]float64(nil), f.Predation...),
		Respiration:  append([]float64(nil), f.Respiration...),
	})
	return true, nil
}

// Samples returns the recorded samples in order.
func (s *Sampler) Samples() []model.OutputSample { return s.samples }

// Len returns the number of samples recorded.
func (s *Sampler) Len() int { return len(s.samples) }

// Last returns the most recent sample.
func (s *Sampler) Last() (model.OutputSample, bool) {
	if len(s.samples) == 0 {
		return model.OutputSample{}, false
	}
	return s.samples[len(s.samples)-1], true
}
