package stay

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wardchart/wardchart/internal/domain/chart"
)

// MedicationTotal is the summed amount of one medication over a stay, in the
// unit the entries were recorded in. The same medication appears once per
// recorded unit: totals across units are never merged, since the unit may
// have been row-specific at entry time.
type MedicationTotal struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Unit         string    `json:"unit"`
	Total        float64   `json:"total"`
}

// MaterialTotal is the summed quantity of one material over a stay.
type MaterialTotal struct {
	MaterialID uuid.UUID `json:"material_id"`
	Total      float64   `json:"total"`
}

// StayDuration is a stay length rendered as whole days plus leftover hours.
type StayDuration struct {
	Days  int `json:"days"`
	Hours int `json:"hours"`
}

// StaySummary is the end-of-stay report body.
type StaySummary struct {
	HospitalizationID uuid.UUID         `json:"hospitalization_id"`
	Duration          StayDuration      `json:"duration"`
	Medications       []MedicationTotal `json:"medications"`
	Materials         []MaterialTotal   `json:"materials"`
}

// Duration floors the elapsed time to whole hours and splits it into days
// and leftover hours. 26 elapsed hours is 1 day, 2 hours.
func Duration(admissionAt, end time.Time) StayDuration {
	totalHours := int(end.Sub(admissionAt) / time.Hour)
	if totalHours < 0 {
		totalHours = 0
	}
	return StayDuration{Days: totalHours / 24, Hours: totalHours % 24}
}

type medKey struct {
	medicationID uuid.UUID
	unit         string
}

// MedicationTotals reduces a stay's chart into per-medication sums. Only
// medication-kind rows contribute; each entry's amount is summed under the
// unit recorded with it. The result is ordered by medication id then unit.
func MedicationTotals(rows []*chart.ChartRow, entries []*chart.ChartEntry) []MedicationTotal {
	medByRow := make(map[uuid.UUID]uuid.UUID)
	for _, r := range rows {
		if r.Kind == chart.KindMedication && r.MedicationID != nil {
			medByRow[r.ID] = *r.MedicationID
		}
	}

	sums := make(map[medKey]float64)
	for _, e := range entries {
		medID, ok := medByRow[e.RowID]
		if !ok || e.Value.Amount == nil {
			continue
		}
		unit := ""
		if e.Value.AmountUnit != nil {
			unit = *e.Value.AmountUnit
		}
		sums[medKey{medicationID: medID, unit: unit}] += *e.Value.Amount
	}

	totals := make([]MedicationTotal, 0, len(sums))
	for k, sum := range sums {
		totals = append(totals, MedicationTotal{MedicationID: k.medicationID, Unit: k.unit, Total: sum})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].MedicationID != totals[j].MedicationID {
			return totals[i].MedicationID.String() < totals[j].MedicationID.String()
		}
		return totals[i].Unit < totals[j].Unit
	})
	return totals
}

// MaterialTotals reduces usage records into per-material sums, ordered by
// material id.
func MaterialTotals(usages []*MaterialUsage) []MaterialTotal {
	sums := make(map[uuid.UUID]float64)
	for _, u := range usages {
		sums[u.MaterialID] += u.Quantity
	}

	totals := make([]MaterialTotal, 0, len(sums))
	for id, sum := range sums {
		totals = append(totals, MaterialTotal{MaterialID: id, Total: sum})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].MaterialID.String() < totals[j].MaterialID.String()
	})
	return totals
}
