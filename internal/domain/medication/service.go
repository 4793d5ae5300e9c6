package medication

import (
	"context"

	"github.com/google/uuid"

	"github.com/wardchart/wardchart/internal/platform/apperr"
)

// Service exposes catalog reads and the dose calculator. The catalog itself
// is maintained elsewhere; this service never writes it.
type Service struct {
	medications MedicationRepository
	materials   MaterialRepository
}

func NewService(medications MedicationRepository, materials MaterialRepository) *Service {
	return &Service{medications: medications, materials: materials}
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	m, err := s.medications.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	if m == nil {
		return nil, apperr.NotFoundf("medication %s", id)
	}
	return m, nil
}

func (s *Service) ListMedications(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error) {
	if name != "" {
		return s.medications.Search(ctx, name, limit, offset)
	}
	return s.medications.List(ctx, limit, offset)
}

func (s *Service) GetMaterial(ctx context.Context, id uuid.UUID) (*Material, error) {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	if m == nil {
		return nil, apperr.NotFoundf("material %s", id)
	}
	return m, nil
}

func (s *Service) ListMaterials(ctx context.Context, limit, offset int) ([]*Material, int, error) {
	return s.materials.List(ctx, limit, offset)
}

// RecommendedRange resolves the medication and derives its absolute dose
// range for the given weight. Returns (nil, nil) when the medication carries
// no per-kilogram reference.
func (s *Service) RecommendedRange(ctx context.Context, medicationID uuid.UUID, weightKg float64) (*DoseRange, error) {
	if weightKg <= 0 {
		return nil, apperr.Validationf("weight must be positive, got %v", weightKg)
	}
	m, err := s.GetMedication(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	return RecommendedRange(m, weightKg), nil
}

// VolumeFor converts a per-kilogram mass dose of the medication into an
// absolute volume for the given weight.
func (s *Service) VolumeFor(ctx context.Context, medicationID uuid.UUID, massPerKg, weightKg float64) (float64, error) {
	if weightKg <= 0 {
		return 0, apperr.Validationf("weight must be positive, got %v", weightKg)
	}
	m, err := s.GetMedication(ctx, medicationID)
	if err != nil {
		return 0, err
	}
	return ConvertMassToVolume(m, massPerKg, weightKg)
}
