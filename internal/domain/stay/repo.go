package stay

import (
	"context"

	"github.com/google/uuid"
)

// Repositories return (nil, nil) from point lookups when the record does not
// exist.

type HospitalizationRepository interface {
	Create(ctx context.Context, h *Hospitalization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospitalization, error)
	Update(ctx context.Context, h *Hospitalization) error
	List(ctx context.Context, includeArchived bool, limit, offset int) ([]*Hospitalization, int, error)
}

type MaterialUsageRepository interface {
	Create(ctx context.Context, u *MaterialUsage) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByHospitalization(ctx context.Context, hospitalizationID uuid.UUID) ([]*MaterialUsage, error)
}
