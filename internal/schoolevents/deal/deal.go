// Package deal computes school-facing fees for an event package and derives the
// legacy tier flags from the same configuration.
package deal

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// MaxCustomFeeCents bounds a single custom fee or discount in either direction.
const MaxCustomFeeCents = 10_000_000

// Type is the booked event package.
type Type string

const (
	Mimu    Type = "mimu"
	MimuSCS Type = "mimu_scs"
	Schus   Type = "schus"
	SchusXL Type = "schus_xl"
)

// Valid reports whether t is a known deal type.
func (t Type) Valid() bool {
	switch t {
	case Mimu, MimuSCS, Schus, SchusXL:
		return true
	}
	return false
}

// SongOption is the schulsong choice within a mimu_scs package.
type SongOption string

const (
	SongIncluded SongOption = "included"
	SongSchus    SongOption = "schus"
	SongNone     SongOption = "none"
)

// AudioPricingPlus selects the plus tier for mimu_scs packages.
const AudioPricingPlus = "plus"

// Config is the stored deal configuration. Both CalculateFee and ToFlags read it.
type Config struct {
	DistanceSurcharge bool             `json:"distance_surcharge,omitempty"`
	CheaperMusic      bool             `json:"cheaper_music,omitempty"`
	SCSSongOption     SongOption       `json:"scs_song_option,omitempty"`
	SCSShirtsIncluded *bool            `json:"scs_shirts_included,omitempty"`
	SCSAudioPricing   string           `json:"scs_audio_pricing,omitempty"`
	IsKita            bool             `json:"is_kita,omitempty"`
	CustomFees        map[string]int64 `json:"custom_fees,omitempty"`
}

// ParseConfig decodes the stored config field by field so one malformed value
// does not discard the rest. Malformed input yields a zero Config.
func ParseConfig(raw string) Config {
	var cfg Config
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return cfg
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return cfg
	}

	decodeBool(fields["distance_surcharge"], &cfg.DistanceSurcharge)
	decodeBool(fields["cheaper_music"], &cfg.CheaperMusic)
	decodeBool(fields["is_kita"], &cfg.IsKita)

	var option string
	if json.Unmarshal(fields["scs_song_option"], &option) == nil {
		cfg.SCSSongOption = SongOption(strings.ToLower(strings.TrimSpace(option)))
	}
	var pricing string
	if json.Unmarshal(fields["scs_audio_pricing"], &pricing) == nil {
		cfg.SCSAudioPricing = strings.ToLower(strings.TrimSpace(pricing))
	}
	var shirts bool
	if raw, ok := fields["scs_shirts_included"]; ok && json.Unmarshal(raw, &shirts) == nil && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		cfg.SCSShirtsIncluded = &shirts
	}

	var custom map[string]json.RawMessage
	if json.Unmarshal(fields["custom_fees"], &custom) == nil {
		for key, value := range custom {
			var amount float64
			if json.Unmarshal(value, &amount) != nil || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
				continue
			}
			if math.Abs(amount) > MaxCustomFeeCents {
				continue
			}
			if cfg.CustomFees == nil {
				cfg.CustomFees = make(map[string]int64)
			}
			cfg.CustomFees[key] = int64(math.Round(amount))
		}
	}

	return cfg
}

// Encode serialises the config for storage.
func (c Config) Encode() string {
	payload, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(payload)
}

func decodeBool(raw json.RawMessage, dst *bool) {
	if len(raw) == 0 {
		return
	}
	var v bool
	if json.Unmarshal(raw, &v) == nil {
		*dst = v
	}
}

// Flags are the legacy tier booleans stored on the event.
type Flags struct {
	IsMinimusikertag bool `json:"isMinimusikertag"`
	IsPlus           bool `json:"isPlus"`
	IsKita           bool `json:"isKita"`
	IsSchulsong      bool `json:"isSchulsong"`
}

// ToFlags derives the legacy flags. IsMinimusikertag and IsPlus are never both set.
func ToFlags(dealType Type, cfg Config) Flags {
	flags := Flags{IsKita: cfg.IsKita}

	switch dealType {
	case Mimu:
		flags.IsMinimusikertag = true
	case MimuSCS:
		if cfg.SCSAudioPricing == AudioPricingPlus {
			flags.IsPlus = true
		} else {
			flags.IsMinimusikertag = true
		}
		flags.IsSchulsong = cfg.SCSSongOption != SongNone
	case Schus, SchusXL:
		flags.IsSchulsong = true
	}

	return flags
}
