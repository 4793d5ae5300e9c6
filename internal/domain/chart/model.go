package chart

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RowKind selects how a chart row's cells are valued and validated.
type RowKind string

const (
	KindNumeric    RowKind = "numeric"
	KindOption     RowKind = "option"
	KindCheck      RowKind = "check"
	KindText       RowKind = "text"
	KindMedication RowKind = "medication"
)

func (k RowKind) Valid() bool {
	switch k {
	case KindNumeric, KindOption, KindCheck, KindText, KindMedication:
		return true
	}
	return false
}

// ChartRow maps to the chart_row table: one tracked clinical parameter for
// one hospitalization. MedicationID is set iff Kind is medication; Options
// lists the permitted option ids for option rows; Unit is meaningful for
// numeric and medication rows only.
type ChartRow struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	HospitalizationID uuid.UUID  `db:"hospitalization_id" json:"hospitalization_id"`
	Kind              RowKind    `db:"kind" json:"kind"`
	Label             string     `db:"label" json:"label"`
	Unit              *string    `db:"unit" json:"unit,omitempty"`
	SortOrder         int        `db:"sort_order" json:"sort_order"`
	Options           []string   `db:"options" json:"options,omitempty"`
	MedicationID      *uuid.UUID `db:"medication_id" json:"medication_id,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// EntryValue is the per-kind value of a chart entry. Exactly one value field
// is populated, selected by Kind; the constructors below are the only way
// values are built inside this package.
type EntryValue struct {
	Kind       RowKind  `json:"kind"`
	Numeric    *float64 `json:"numeric,omitempty"`
	OptionID   *string  `json:"option_id,omitempty"`
	Check      *bool    `json:"check,omitempty"`
	Text       *string  `json:"text,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	AmountUnit *string  `json:"amount_unit,omitempty"`
}

func NumericValue(v float64) EntryValue {
	return EntryValue{Kind: KindNumeric, Numeric: &v}
}

func OptionValue(id string) EntryValue {
	return EntryValue{Kind: KindOption, OptionID: &id}
}

func CheckValue(v bool) EntryValue {
	return EntryValue{Kind: KindCheck, Check: &v}
}

func TextValue(s string) EntryValue {
	return EntryValue{Kind: KindText, Text: &s}
}

func MedicationValue(amount float64, unit string) EntryValue {
	return EntryValue{Kind: KindMedication, Amount: &amount, AmountUnit: &unit}
}

// ChartEntry maps to the chart_entry table: one recorded observation for one
// row at one hour. AtTime is always normalized to the top of an hour; the
// store enforces at most one entry per (RowID, AtTime).
type ChartEntry struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	RowID     uuid.UUID  `db:"row_id" json:"row_id"`
	AtTime    time.Time  `db:"at_time" json:"at_time"`
	Value     EntryValue `json:"value"`
	Flagged   bool       `db:"flagged" json:"flagged"`
	AuthorID  string     `db:"author_id" json:"author_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Schedule maps to the schedule table: a recurrence or one-time expectation
// attached to one row. IntervalMinutes of zero encodes a one-time schedule;
// EndAt and Occurrences are meaningful for recurring schedules only.
type Schedule struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	RowID           uuid.UUID  `db:"row_id" json:"row_id"`
	StartAt         time.Time  `db:"start_at" json:"start_at"`
	IntervalMinutes int        `db:"interval_minutes" json:"interval_minutes"`
	EndAt           *time.Time `db:"end_at" json:"end_at,omitempty"`
	Occurrences     *int       `db:"occurrences" json:"occurrences,omitempty"`
	DefaultValue    *string    `db:"default_value" json:"default_value,omitempty"`
	CreatedBy       string     `db:"created_by" json:"created_by"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// RowTemplate maps to the row_template table: a named set of rows (and
// optional recurrences) copied into a hospitalization's chart in one step.
type RowTemplate struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TemplateRow is one row definition inside a template. When IntervalMinutes
// is set, applying the template also creates a schedule starting
// StartOffsetMinutes after admission.
type TemplateRow struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	TemplateID         uuid.UUID  `db:"template_id" json:"template_id"`
	Kind               RowKind    `db:"kind" json:"kind"`
	Label              string     `db:"label" json:"label"`
	Unit               *string    `db:"unit" json:"unit,omitempty"`
	SortOrder          int        `db:"sort_order" json:"sort_order"`
	Options            []string   `db:"options" json:"options,omitempty"`
	MedicationID       *uuid.UUID `db:"medication_id" json:"medication_id,omitempty"`
	IntervalMinutes    *int       `db:"interval_minutes" json:"interval_minutes,omitempty"`
	Occurrences        *int       `db:"occurrences" json:"occurrences,omitempty"`
	StartOffsetMinutes int        `db:"start_offset_minutes" json:"start_offset_minutes"`
}

// HospitalizationContext is the read-only slice of a hospitalization this
// package needs: when the stay began (hours before it are disabled) and the
// patient's weight for dosage annotation.
type HospitalizationContext struct {
	ID          uuid.UUID  `json:"id"`
	AdmissionAt time.Time  `json:"admission_at"`
	WeightKg    *float64   `json:"weight_kg,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// DisplayValue derives the string rendered in a grid cell from an entry.
// Nil entries and kind mismatches render empty; check values render as a
// present/absent marker; medication values render the amount, the caller
// appends the unit.
func DisplayValue(kind RowKind, e *ChartEntry) string {
	if e == nil {
		return ""
	}
	switch kind {
	case KindNumeric:
		if e.Value.Numeric == nil {
			return ""
		}
		return trimFloat(*e.Value.Numeric)
	case KindOption:
		if e.Value.OptionID == nil {
			return ""
		}
		return *e.Value.OptionID
	case KindCheck:
		if e.Value.Check != nil && *e.Value.Check {
			return "✓"
		}
		return ""
	case KindText:
		if e.Value.Text == nil {
			return ""
		}
		return *e.Value.Text
	case KindMedication:
		if e.Value.Amount == nil {
			return ""
		}
		return trimFloat(*e.Value.Amount)
	}
	return ""
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
