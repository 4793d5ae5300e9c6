package medication

import (
	"time"

	"github.com/google/uuid"
)

// Medication maps to the medication table. The chart consumes the catalog
// read-only: the dosing reference and concentration feed the dose
// calculator, the reference unit is the fallback for rows that do not set
// their own.
type Medication struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
	// Unit is the reference unit amounts are recorded in, e.g. "mg".
	Unit string `db:"unit" json:"unit"`

	// Per-kilogram dosing reference. Either bound may be absent; when both
	// are, the medication carries no reference at all.
	DoseMinPerKg *float64 `db:"dose_min_per_kg" json:"dose_min_per_kg,omitempty"`
	DoseMaxPerKg *float64 `db:"dose_max_per_kg" json:"dose_max_per_kg,omitempty"`
	DoseUnit     *string  `db:"dose_unit" json:"dose_unit,omitempty"`

	// Concentration is mass per volume, e.g. 50 for 50 mg/ml. Absent when
	// the medication is not dispensed as a solution.
	Concentration     *float64 `db:"concentration" json:"concentration,omitempty"`
	ConcentrationUnit *string  `db:"concentration_unit" json:"concentration_unit,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Material maps to the material table: a consumable tracked per stay, e.g. a
// catheter or a dressing set.
type Material struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Unit      string    `db:"unit" json:"unit"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
