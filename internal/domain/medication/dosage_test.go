package medication

import (
	"errors"
	"testing"

	"github.com/wardchart/wardchart/internal/platform/apperr"
)

func f(v float64) *float64 { return &v }

func TestRecommendedRange(t *testing.T) {
	m := &Medication{Name: "Meloxicam", Unit: "mg", DoseMinPerKg: f(0.5), DoseMaxPerKg: f(1.1)}

	r := RecommendedRange(m, 520)
	if r == nil {
		t.Fatal("expected a range")
	}
	if r.Min == nil || *r.Min != 260.0 {
		t.Errorf("min = %v, want 260.0", r.Min)
	}
	if r.Max == nil || *r.Max != 572.0 {
		t.Errorf("max = %v, want 572.0", r.Max)
	}
	if r.Unit != "mg" {
		t.Errorf("unit = %q, want mg", r.Unit)
	}
}

func TestRecommendedRangeRoundsToOneDecimal(t *testing.T) {
	m := &Medication{Unit: "mg", DoseMinPerKg: f(0.333)}
	r := RecommendedRange(m, 10)
	if r.Min == nil || *r.Min != 3.3 {
		t.Errorf("min = %v, want 3.3", r.Min)
	}
}

func TestRecommendedRangeSingleBound(t *testing.T) {
	m := &Medication{Unit: "mg", DoseMaxPerKg: f(2.0)}
	r := RecommendedRange(m, 4)
	if r == nil || r.Min != nil {
		t.Fatal("expected a range with no minimum")
	}
	if r.Max == nil || *r.Max != 8.0 {
		t.Errorf("max = %v, want 8.0", r.Max)
	}
}

func TestRecommendedRangeNoReference(t *testing.T) {
	m := &Medication{Unit: "mg"}
	if r := RecommendedRange(m, 10); r != nil {
		t.Errorf("got %+v, want nil for a medication without dosing reference", r)
	}
}

func TestRecommendedRangeDoseUnitOverride(t *testing.T) {
	unit := "µg"
	m := &Medication{Unit: "mg", DoseUnit: &unit, DoseMinPerKg: f(1)}
	if r := RecommendedRange(m, 10); r.Unit != "µg" {
		t.Errorf("unit = %q, want µg", r.Unit)
	}
}

func TestConvertMassToVolume(t *testing.T) {
	m := &Medication{Name: "Ketamine", Unit: "mg", Concentration: f(50)}

	v, err := ConvertMassToVolume(m, 1.0, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 10.000 {
		t.Errorf("volume = %v, want 10.000", v)
	}
}

func TestConvertMassToVolumeRoundsToThreeDecimals(t *testing.T) {
	m := &Medication{Unit: "mg", Concentration: f(3)}
	v, err := ConvertMassToVolume(m, 1.0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0.333 {
		t.Errorf("volume = %v, want 0.333", v)
	}
}

func TestConvertMassToVolumeRequiresConcentration(t *testing.T) {
	cases := []struct {
		name string
		m    *Medication
	}{
		{"absent", &Medication{Name: "Saline", Unit: "ml"}},
		{"zero", &Medication{Name: "Saline", Unit: "ml", Concentration: f(0)}},
		{"negative", &Medication{Name: "Saline", Unit: "ml", Concentration: f(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ConvertMassToVolume(tc.m, 1, 10); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("got %v, want a validation error", err)
			}
		})
	}
}
