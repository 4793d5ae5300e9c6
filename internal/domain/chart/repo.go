package chart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repositories return (nil, nil) from point lookups when the record does not
// exist; the service layer turns that into a not-found error.

type RowRepository interface {
	Create(ctx context.Context, r *ChartRow) error
	GetByID(ctx context.Context, id uuid.UUID) (*ChartRow, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByHospitalization(ctx context.Context, hospitalizationID uuid.UUID) ([]*ChartRow, error)
}

// EntryRepository persists chart entries. The store is the sole arbiter of
// the (row_id, at_time) uniqueness invariant: Upsert must coalesce concurrent
// writes for the same cell rather than duplicate them. GetByCell returns
// (nil, nil) when the cell is empty.
type EntryRepository interface {
	Upsert(ctx context.Context, e *ChartEntry) error
	GetByCell(ctx context.Context, rowID uuid.UUID, hour time.Time) (*ChartEntry, error)
	SetFlagged(ctx context.Context, id uuid.UUID, flagged bool) error
	DeleteByCell(ctx context.Context, rowID uuid.UUID, hour time.Time) error
	ListByHospitalization(ctx context.Context, hospitalizationID uuid.UUID) ([]*ChartEntry, error)
}

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByHospitalization(ctx context.Context, hospitalizationID uuid.UUID) ([]*Schedule, error)
}

type TemplateRepository interface {
	List(ctx context.Context) ([]*RowTemplate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*RowTemplate, error)
	GetRows(ctx context.Context, templateID uuid.UUID) ([]*TemplateRow, error)
}

// HospitalizationReader supplies the read-only stay context this package
// consumes. Returns (nil, nil) when the hospitalization does not exist.
type HospitalizationReader interface {
	GetContext(ctx context.Context, id uuid.UUID) (*HospitalizationContext, error)
}

// DosageReference is an absolute recommended dose range for one medication
// and one patient weight.
type DosageReference struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Unit string   `json:"unit"`
}

// DosageResolver annotates medication rows with a recommended range. Returns
// (nil, nil) when the medication carries no per-kilogram reference.
type DosageResolver interface {
	RecommendedFor(ctx context.Context, medicationID uuid.UUID, weightKg float64) (*DosageReference, error)
}
