// Package storage persists sweep results.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// Store defines persistence operations for completed sweeps.
type Store interface {
	Init(ctx context.Context) error
	SaveSweep(ctx context.Context, sweep SweepRecord) error
	GetSweep(ctx context.Context, id string) (SweepRecord, bool, error)
	// ListSweeps returns stored sweeps oldest first.
	ListSweeps(ctx context.Context) ([]SweepRecord, error)
}

// VersionedRecord tags persisted payloads with their layout version.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// LevelFailure is a sweep level that did not complete.
type LevelFailure struct {
	Level int    `json:"level"`
	Error string `json:"error"`
}

// SweepRecord is one persisted sweep: its summary rows plus the failed
// levels.
type SweepRecord struct {
	VersionedRecord
	ID          string                `json:"id"`
	CreatedAt   time.Time             `json:"created_at"`
	GrazingMode string                `json:"grazing_mode"`
	Records     []model.SummaryRecord `json:"records"`
	Failures    []LevelFailure        `json:"failures,omitempty"`
}

// NewSweepRecord stamps records with a fresh ID and the current time.
func NewSweepRecord(mode model.GrazingMode, records []model.SummaryRecord, failures []LevelFailure) SweepRecord {
	return SweepRecord{
		VersionedRecord: VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		GrazingMode:     mode.String(),
		Records:         append([]model.SummaryRecord(nil), records...),
		Failures:        append([]LevelFailure(nil), failures...),
	}
}
