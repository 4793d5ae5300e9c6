package chart

import (
	"math"
	"strconv"
	"strings"

	"github.com/wardchart/wardchart/internal/platform/apperr"
)

// ValueInput is the raw cell input as submitted by a client. Value carries
// numeric, option, text and medication-amount input as text; Check carries
// check-row input; Unit overrides the row unit for medication entries.
type ValueInput struct {
	Value string `json:"value"`
	Check *bool  `json:"check,omitempty"`
	Unit  string `json:"unit,omitempty"`
}

// parseValue validates in against the row's kind and returns the typed value.
// The empty result reports a cleared cell: saving an empty value to an
// existing cell is defined as deletion. Validation failures are raised before
// any store round trip.
func parseValue(row *ChartRow, in ValueInput) (value EntryValue, empty bool, err error) {
	switch row.Kind {
	case KindNumeric:
		raw := strings.TrimSpace(in.Value)
		if raw == "" {
			return EntryValue{}, true, nil
		}
		n, err := parseFinite(raw)
		if err != nil {
			return EntryValue{}, false, err
		}
		return NumericValue(n), false, nil

	case KindOption:
		raw := strings.TrimSpace(in.Value)
		if raw == "" {
			return EntryValue{}, true, nil
		}
		for _, opt := range row.Options {
			if opt == raw {
				return OptionValue(raw), false, nil
			}
		}
		return EntryValue{}, false, apperr.Validationf("%q is not a declared option for row %q", raw, row.Label)

	case KindCheck:
		if in.Check == nil {
			return EntryValue{}, false, apperr.Validationf("check value is required for row %q", row.Label)
		}
		return CheckValue(*in.Check), false, nil

	case KindText:
		if in.Value == "" {
			return EntryValue{}, true, nil
		}
		return TextValue(in.Value), false, nil

	case KindMedication:
		raw := strings.TrimSpace(in.Value)
		if raw == "" {
			return EntryValue{}, true, nil
		}
		amount, err := parseFinite(raw)
		if err != nil {
			return EntryValue{}, false, err
		}
		unit := strings.TrimSpace(in.Unit)
		if unit == "" && row.Unit != nil {
			unit = *row.Unit
		}
		if unit == "" {
			return EntryValue{}, false, apperr.Validationf("unit is required for medication row %q", row.Label)
		}
		return MedicationValue(amount, unit), false, nil
	}

	return EntryValue{}, false, apperr.Validationf("unknown row kind %q", row.Kind)
}

func parseFinite(raw string) (float64, error) {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, apperr.Validationf("%q is not a finite number", raw)
	}
	return n, nil
}
