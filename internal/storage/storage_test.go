package storage

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

func sampleSweep(createdAt time.Time) SweepRecord {
	sweep := NewSweepRecord(model.HollingI, []model.SummaryRecord{
		{Level: 0, NitrateSupply: 0.02, Autotrophs: []float64{0.1, 0.2}, Heterotrophs: []float64{0.01, 0.02}},
		{Level: 2, NitrateSupply: 0.14, Autotrophs: []float64{0.3, 0.4}, Heterotrophs: []float64{0.03, 0.04}},
	}, []LevelFailure{{Level: 1, Error: "numerical divergence"}})
	sweep.CreatedAt = createdAt
	return sweep
}

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	sqlite := NewSQLiteStore(filepath.Join(t.TempDir(), "foodweb.db"))
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreSweepRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))

			sweep := sampleSweep(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
			require.NoError(t, store.SaveSweep(ctx, sweep))

			loaded, ok, err := store.GetSweep(ctx, sweep.ID)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, sweep.ID, loaded.ID)
			require.Equal(t, sweep.Records, loaded.Records)
			require.Equal(t, sweep.Failures, loaded.Failures)
			require.Equal(t, "holling1", loaded.GrazingMode)
			require.True(t, sweep.CreatedAt.Equal(loaded.CreatedAt))

			_, ok, err = store.GetSweep(ctx, "missing")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStoreListSweepsOldestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))

			newer := sampleSweep(base.Add(time.Hour))
			older := sampleSweep(base)
			require.NoError(t, store.SaveSweep(ctx, newer))
			require.NoError(t, store.SaveSweep(ctx, older))

			sweeps, err := store.ListSweeps(ctx)
			require.NoError(t, err)
			require.Len(t, sweeps, 2)
			require.Equal(t, older.ID, sweeps[0].ID)
			require.Equal(t, newer.ID, sweeps[1].ID)
		})
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))

			sweep := sampleSweep(time.Now().UTC())
			require.NoError(t, store.SaveSweep(ctx, sweep))
			sweep.Failures = nil
			require.NoError(t, store.SaveSweep(ctx, sweep))

			loaded, ok, err := store.GetSweep(ctx, sweep.ID)
			require.NoError(t, err)
			require.True(t, ok)
			require.Empty(t, loaded.Failures)

			sweeps, err := store.ListSweeps(ctx)
			require.NoError(t, err)
			require.Len(t, sweeps, 1)
		})
	}
}

func TestStoreRejectsMissingID(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))
			require.Error(t, store.SaveSweep(ctx, SweepRecord{}))
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	sweep := sampleSweep(time.Now().UTC())
	require.NoError(t, store.SaveSweep(ctx, sweep))
	sweep.Records[0].Autotrophs[0] = 99

	loaded, _, err := store.GetSweep(ctx, sweep.ID)
	require.NoError(t, err)
	require.Equal(t, 0.1, loaded.Records[0].Autotrophs[0])
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "foodweb.db"))
	_, _, err := store.GetSweep(context.Background(), "x")
	require.Error(t, err)
	require.Error(t, NewSQLiteStore("").Init(context.Background()))
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "foodweb.db")

	first := NewSQLiteStore(path)
	require.NoError(t, first.Init(ctx))
	sweep := sampleSweep(time.Now().UTC())
	require.NoError(t, first.SaveSweep(ctx, sweep))
	require.NoError(t, first.Close())

	second := NewSQLiteStore(path)
	require.NoError(t, second.Init(ctx))
	t.Cleanup(func() { _ = second.Close() })
	loaded, ok, err := second.GetSweep(ctx, sweep.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sweep.Records, loaded.Records)
}

func TestStoreKeepsNonFiniteSummaries(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))

			sweep := NewSweepRecord(model.HollingII, []model.SummaryRecord{
				{Level: 0, NitrateSupply: 0.02, Autotrophs: []float64{math.NaN(), 0.5}, Heterotrophs: []float64{math.Inf(1), math.Inf(-1)}},
			}, nil)
			require.NoError(t, store.SaveSweep(ctx, sweep))

			loaded, ok, err := store.GetSweep(ctx, sweep.ID)
			require.NoError(t, err)
			require.True(t, ok)
			require.Len(t, loaded.Records, 1)
			rec := loaded.Records[0]
			require.True(t, math.IsNaN(rec.Autotrophs[0]))
			require.Equal(t, 0.5, rec.Autotrophs[1])
			require.True(t, math.IsInf(rec.Heterotrophs[0], 1))
			require.True(t, math.IsInf(rec.Heterotrophs[1], -1))
		})
	}
}

func TestDecodeSweepRejectsVersionMismatch(t *testing.T) {
	sweep := sampleSweep(time.Now().UTC())
	sweep.SchemaVersion = CurrentSchemaVersion + 1
	payload, err := EncodeSweep(sweep)
	require.NoError(t, err)

	_, err = DecodeSweep(payload)
	require.True(t, errors.Is(err, ErrVersionMismatch))
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("", "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)
	require.NoError(t, CloseIfSupported(store))

	store, err = NewStore("sqlite", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, CloseIfSupported(store))

	_, err = NewStore("redis", "")
	require.Error(t, err)
}

func TestNewSweepRecordAssignsUniqueIDs(t *testing.T) {
	a := NewSweepRecord(model.HollingII, nil, nil)
	b := NewSweepRecord(model.HollingII, nil, nil)
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, "holling2", a.GrazingMode)
}
