package stay

import (
	"time"

	"github.com/google/uuid"
)

// Hospitalization maps to the hospitalization table: one patient stay, the
// anchor every chart row hangs off. Admission defines the lower bound of the
// chart's time axis; archival freezes it.
type Hospitalization struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientName string     `db:"patient_name" json:"patient_name"`
	WeightKg    *float64   `db:"weight_kg" json:"weight_kg,omitempty"`
	AdmissionAt time.Time  `db:"admission_at" json:"admission_at"`
	ArchivedAt  *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the stay is still open.
func (h *Hospitalization) Active() bool {
	return h.ArchivedAt == nil
}

// MaterialUsage maps to the material_usage table: one consumption of a
// catalog material during a stay.
type MaterialUsage struct {
	ID                uuid.UUID `db:"id" json:"id"`
	HospitalizationID uuid.UUID `db:"hospitalization_id" json:"hospitalization_id"`
	MaterialID        uuid.UUID `db:"material_id" json:"material_id"`
	Quantity          float64   `db:"quantity" json:"quantity"`
	RecordedBy        string    `db:"recorded_by" json:"recorded_by"`
	RecordedAt        time.Time `db:"recorded_at" json:"recorded_at"`
}
