// Package timeline resolves per-event timeline thresholds and derives milestone dates.
package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"minimusiker_backend/platform/apperr"
)

// ThresholdKey names one configurable timeline threshold.
type ThresholdKey string

const (
	EarlyBirdDeadlineDays       ThresholdKey = "early_bird_deadline_days"
	SchulsongClothingCutoffDays ThresholdKey = "schulsong_clothing_cutoff_days"
	MerchandiseDeadlineDays     ThresholdKey = "merchandise_deadline_days"
	SchulsongReleaseDays        ThresholdKey = "schulsong_release_days"
	AudioReleaseDays            ThresholdKey = "audio_release_days"
)

// Direction says on which side of the event date a threshold is measured.
type Direction int

const (
	BeforeEvent Direction = -1
	AfterEvent  Direction = 1
)

type threshold struct {
	def       int
	direction Direction
}

var thresholds = map[ThresholdKey]threshold{
	EarlyBirdDeadlineDays:       {def: 19, direction: BeforeEvent},
	SchulsongClothingCutoffDays: {def: 14, direction: BeforeEvent},
	MerchandiseDeadlineDays:     {def: 14, direction: AfterEvent},
	SchulsongReleaseDays:        {def: 7, direction: AfterEvent},
	AudioReleaseDays:            {def: 0, direction: AfterEvent},
}

// Keys returns all known threshold keys in stable order.
func Keys() []ThresholdKey {
	keys := make([]ThresholdKey, 0, len(thresholds))
	for k := range thresholds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Valid reports whether k is a known threshold.
func (k ThresholdKey) Valid() bool {
	_, ok := thresholds[k]
	return ok
}

// Default returns the system default for k, or 0 for unknown keys.
func (k ThresholdKey) Default() int {
	return thresholds[k].def
}

// Direction returns whether k counts days before or after the event.
func (k ThresholdKey) Direction() Direction {
	return thresholds[k].direction
}

// Overrides is the sparse set of per-event threshold values.
// A present key is an override, including an explicit 0.
type Overrides map[ThresholdKey]int

// GetThreshold returns the override for key when present, else the default.
func GetThreshold(key ThresholdKey, overrides Overrides) int {
	if v, ok := overrides[key]; ok {
		return v
	}
	return key.Default()
}

// ParseOverrides decodes the stored override JSON. It never fails:
// malformed input yields an empty set, and unknown keys, nulls and
// non-integer values are dropped.
func ParseOverrides(raw string) Overrides {
	out := Overrides{}
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return out
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return out
	}

	for name, value := range fields {
		key := ThresholdKey(name)
		if !key.Valid() {
			continue
		}
		if n, ok := decodeDays(value); ok {
			out[key] = n
		}
	}
	return out
}

// Encode serialises the overrides for storage. Empty sets encode to "".
func (o Overrides) Encode() string {
	if len(o) == 0 {
		return ""
	}
	payload, err := json.Marshal(o)
	if err != nil {
		return ""
	}
	return string(payload)
}

// Apply merges a patch into the overrides. A JSON null removes the key.
// Unknown keys and negative or non-integer values are validation errors;
// the receiver is left untouched on error.
func (o Overrides) Apply(patch map[string]json.RawMessage) (Overrides, error) {
	next := make(Overrides, len(o)+len(patch))
	for k, v := range o {
		next[k] = v
	}

	for name, value := range patch {
		key := ThresholdKey(name)
		if !key.Valid() {
			return nil, apperr.Validation(fmt.Sprintf("unknown threshold %q", name))
		}
		if isNull(value) {
			delete(next, key)
			continue
		}
		n, ok := decodeDays(value)
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("threshold %q must be a whole number of days", name))
		}
		if n < 0 {
			return nil, apperr.Validation(fmt.Sprintf("threshold %q must not be negative", name))
		}
		next[key] = n
	}
	return next, nil
}

func isNull(value json.RawMessage) bool {
	return len(bytes.TrimSpace(value)) == 0 || bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func decodeDays(value json.RawMessage) (int, bool) {
	if isNull(value) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(value, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || math.Abs(f) > 10000 {
		return 0, false
	}
	return int(f), true
}
