package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeSweep(s SweepRecord) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSweep(data []byte) (SweepRecord, error) {
	var sweep SweepRecord
	if err := json.Unmarshal(data, &sweep); err != nil {
		return SweepRecord{}, err
	}
	if err := checkVersion(sweep.VersionedRecord); err != nil {
		return SweepRecord{}, err
	}
	return sweep, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
