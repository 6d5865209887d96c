package timeline

import (
	"encoding/json"
	"testing"
	"time"

	"minimusiker_backend/platform/apperr"
)

func TestGetThresholdHonoursExplicitZero(t *testing.T) {
	for _, key := range Keys() {
		overrides := Overrides{key: 0}
		if got := GetThreshold(key, overrides); got != 0 {
			t.Errorf("%s: expected explicit 0 override, got %d", key, got)
		}
	}
}

func TestGetThresholdFallsBackToDefault(t *testing.T) {
	cases := map[ThresholdKey]int{
		EarlyBirdDeadlineDays:       19,
		SchulsongClothingCutoffDays: 14,
		MerchandiseDeadlineDays:     14,
		SchulsongReleaseDays:        7,
		AudioReleaseDays:            0,
	}
	for key, want := range cases {
		if got := GetThreshold(key, Overrides{}); got != want {
			t.Errorf("%s: expected default %d, got %d", key, want, got)
		}
	}
}

func TestParseOverridesIsDefensive(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Overrides
	}{
		{"empty", "", Overrides{}},
		{"malformed", "{not json", Overrides{}},
		{"array", "[1,2]", Overrides{}},
		{"zero kept", `{"schulsong_release_days":0}`, Overrides{SchulsongReleaseDays: 0}},
		{"null dropped", `{"schulsong_release_days":null}`, Overrides{}},
		{"unknown dropped", `{"bogus":3,"early_bird_deadline_days":21}`, Overrides{EarlyBirdDeadlineDays: 21}},
		{"string dropped", `{"early_bird_deadline_days":"21"}`, Overrides{}},
		{"fraction dropped", `{"early_bird_deadline_days":2.5}`, Overrides{}},
	}

	for _, tc := range cases {
		got := ParseOverrides(tc.raw)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
		for k, v := range tc.want {
			if gv, ok := got[k]; !ok || gv != v {
				t.Fatalf("%s: expected %s=%d, got %v", tc.name, k, v, got)
			}
		}
	}
}

func TestOverridesEncodeRoundTrip(t *testing.T) {
	in := Overrides{SchulsongReleaseDays: 0, EarlyBirdDeadlineDays: 30}
	out := ParseOverrides(in.Encode())
	if len(out) != 2 || out[SchulsongReleaseDays] != 0 || out[EarlyBirdDeadlineDays] != 30 {
		t.Fatalf("unexpected round trip result %v", out)
	}
	if (Overrides{}).Encode() != "" {
		t.Fatal("expected empty overrides to encode as empty string")
	}
}

func TestApplyPatch(t *testing.T) {
	current := Overrides{SchulsongReleaseDays: 3}
	patch := map[string]json.RawMessage{
		"schulsong_release_days":    json.RawMessage("null"),
		"merchandise_deadline_days": json.RawMessage("0"),
	}

	next, err := current.Apply(patch)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, ok := next[SchulsongReleaseDays]; ok {
		t.Fatal("expected null to remove the override")
	}
	if v, ok := next[MerchandiseDeadlineDays]; !ok || v != 0 {
		t.Fatalf("expected explicit 0 override, got %v", next)
	}
	if current[SchulsongReleaseDays] != 3 {
		t.Fatal("expected receiver to be unchanged")
	}
}

func TestApplyRejectsInvalidInput(t *testing.T) {
	cases := []map[string]json.RawMessage{
		{"unknown_key": json.RawMessage("1")},
		{"early_bird_deadline_days": json.RawMessage("-1")},
		{"early_bird_deadline_days": json.RawMessage(`"ten"`)},
	}
	for _, patch := range cases {
		if _, err := (Overrides{}).Apply(patch); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("patch %v: expected validation error, got %v", patch, err)
		}
	}
}

func TestBuildMilestones(t *testing.T) {
	eventDate := time.Date(2026, time.May, 20, 0, 0, 0, 0, time.UTC)
	m := Build(eventDate, Overrides{SchulsongReleaseDays: 0})

	if want := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC); !m.EarlyBirdDeadline.Equal(want) {
		t.Errorf("early bird: expected %s, got %s", want, m.EarlyBirdDeadline)
	}
	if want := time.Date(2026, time.June, 3, 0, 0, 0, 0, time.UTC); !m.MerchandiseDeadline.Equal(want) {
		t.Errorf("merchandise: expected %s, got %s", want, m.MerchandiseDeadline)
	}
	if !m.SchulsongRelease.Equal(eventDate) {
		t.Errorf("schulsong release with 0 override should equal event date, got %s", m.SchulsongRelease)
	}

	if !m.EarlyBirdOpen(time.Date(2026, time.May, 1, 18, 0, 0, 0, time.UTC)) {
		t.Error("expected early bird open on deadline day")
	}
	if m.EarlyBirdOpen(time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected early bird closed the day after the deadline")
	}
}
