package medication

import (
	"math"

	"github.com/wardchart/wardchart/internal/platform/apperr"
)

// DoseRange is an absolute recommended dose for one patient weight, derived
// from the medication's per-kilogram reference. Bounds are independent: a
// medication may declare only a minimum or only a maximum.
type DoseRange struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Unit string   `json:"unit"`
}

// RecommendedRange multiplies the medication's per-kilogram bounds by the
// patient weight, rounding each bound to one decimal. Returns nil when the
// medication carries no dosing reference at all. The unit is the declared
// dose unit, falling back to the medication's reference unit.
func RecommendedRange(m *Medication, weightKg float64) *DoseRange {
	if m.DoseMinPerKg == nil && m.DoseMaxPerKg == nil {
		return nil
	}

	unit := m.Unit
	if m.DoseUnit != nil {
		unit = *m.DoseUnit
	}

	r := &DoseRange{Unit: unit}
	if m.DoseMinPerKg != nil {
		v := round1(*m.DoseMinPerKg * weightKg)
		r.Min = &v
	}
	if m.DoseMaxPerKg != nil {
		v := round1(*m.DoseMaxPerKg * weightKg)
		r.Max = &v
	}
	return r
}

// ConvertMassToVolume turns a per-kilogram mass dose into an absolute volume
// via the medication's concentration, rounded to three decimals. It never
// substitutes a default: a missing or non-positive concentration is an error,
// not zero.
func ConvertMassToVolume(m *Medication, massPerKg, weightKg float64) (float64, error) {
	if m.Concentration == nil || *m.Concentration <= 0 {
		return 0, apperr.Validationf("medication %s has no usable concentration", m.Name)
	}
	return round3(massPerKg * weightKg / *m.Concentration), nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
