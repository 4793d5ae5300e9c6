package medication

import (
	"context"

	"github.com/google/uuid"
)

// Repositories return (nil, nil) from point lookups when the record does not
// exist.

type MedicationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	List(ctx context.Context, limit, offset int) ([]*Medication, int, error)
	Search(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error)
}

type MaterialRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Material, error)
	List(ctx context.Context, limit, offset int) ([]*Material, int, error)
}
