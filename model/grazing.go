package model

import (
	"fmt"
	"strings"
)

// GrazingMode selects the grazing functional response.
type GrazingMode int

const (
	// HollingI is the linear response: rate·prey·consumer.
	HollingI GrazingMode = iota + 1
	// HollingII saturates in prey biomass.
	HollingII
)

func (m GrazingMode) String() string {
	switch m {
	case HollingI:
		return "holling1"
	case HollingII:
		return "holling2"
	default:
		return fmt.Sprintf("GrazingMode(%d)", int(m))
	}
}

// Valid reports whether m names a supported response.
func (m GrazingMode) Valid() bool {
	return m == HollingI || m == HollingII
}

// ParseGrazingMode accepts "holling1"/"holling2" as well as "1"/"2" and
// "I"/"II".
func ParseGrazingMode(s string) (GrazingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "holling1", "hollingi", "i", "1":
		return HollingI, nil
	case "holling2", "hollingii", "ii", "2":
		return HollingII, nil
	default:
		return 0, fmt.Errorf("unknown grazing mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m GrazingMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid grazing mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *GrazingMode) UnmarshalText(text []byte) error {
	parsed, err := ParseGrazingMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
