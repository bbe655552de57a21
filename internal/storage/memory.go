package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// MemoryStore keeps sweeps in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	sweeps map[string]SweepRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sweeps: make(map[string]SweepRecord)}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sweeps == nil {
		s.sweeps = make(map[string]SweepRecord)
	}
	return nil
}

func (s *MemoryStore) SaveSweep(_ context.Context, sweep SweepRecord) error {
	if sweep.ID == "" {
		return errMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps[sweep.ID] = cloneSweep(sweep)
	return nil
}

func (s *MemoryStore) GetSweep(_ context.Context, id string) (SweepRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sweep, ok := s.sweeps[id]
	if !ok {
		return SweepRecord{}, false, nil
	}
	return cloneSweep(sweep), true, nil
}

func (s *MemoryStore) ListSweeps(_ context.Context) ([]SweepRecord, error) {
	s.mu.RLock()
	out := make([]SweepRecord, 0, len(s.sweeps))
	for _, sweep := range s.sweeps {
		out = append(out, cloneSweep(sweep))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneSweep(s SweepRecord) SweepRecord {
	out := s
	out.Records = make([]model.SummaryRecord, len(s.Records))
	for i, r := range s.Records {
		r.Autotrophs = append([]float64(nil), r.Autotrophs...)
		r.Heterotrophs = append([]float64(nil), r.Heterotrophs...)
		out.Records[i] = r
	}
	out.Failures = append([]LevelFailure(nil), s.Failures...)
	return out
}
