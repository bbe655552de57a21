package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// jsonFloat encodes finite values as JSON numbers and NaN or ±Inf as the
// strings "NaN", "+Inf" and "-Inf", which encoding/json rejects as numbers.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = jsonFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

type summaryJSON struct {
	Level         int         `json:"level"`
	NitrateSupply jsonFloat   `json:"nitrate_supply"`
	Autotrophs    []jsonFloat `json:"autotrophs"`
	Heterotrophs  []jsonFloat `json:"heterotrophs"`
}

// MarshalJSON keeps records of diverged runs encodable.
func (r SummaryRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		Level:         r.Level,
		NitrateSupply: jsonFloat(r.NitrateSupply),
		Autotrophs:    toJSONFloats(r.Autotrophs),
		Heterotrophs:  toJSONFloats(r.Heterotrophs),
	})
}

func (r *SummaryRecord) UnmarshalJSON(data []byte) error {
	var raw summaryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = SummaryRecord{
		Level:         raw.Level,
		NitrateSupply: float64(raw.NitrateSupply),
		Autotrophs:    fromJSONFloats(raw.Autotrophs),
		Heterotrophs:  fromJSONFloats(raw.Heterotrophs),
	}
	return nil
}

func toJSONFloats(vs []float64) []jsonFloat {
	if vs == nil {
		return nil
	}
	out := make([]jsonFloat, len(vs))
	for i, v := range vs {
		out[i] = jsonFloat(v)
	}
	return out
}

func fromJSONFloats(vs []jsonFloat) []float64 {
	if vs == nil {
		return nil
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}
