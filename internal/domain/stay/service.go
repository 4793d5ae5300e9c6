package stay

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wardchart/wardchart/internal/domain/chart"
	"github.com/wardchart/wardchart/internal/platform/apperr"
	"github.com/wardchart/wardchart/internal/platform/auth"
)

// ChartReader supplies the chart collections the summary reduces over. The
// chart package owns them; main wires its repositories in.
type ChartReader interface {
	ListRows(ctx context.Context, hospitalizationID uuid.UUID) ([]*chart.ChartRow, error)
	ListEntries(ctx context.Context, hospitalizationID uuid.UUID) ([]*chart.ChartEntry, error)
}

type Service struct {
	hospitalizations HospitalizationRepository
	usages           MaterialUsageRepository
	charts           ChartReader

	timeout time.Duration
	now     func() time.Time
}

func NewService(hospitalizations HospitalizationRepository, usages MaterialUsageRepository) *Service {
	return &Service{
		hospitalizations: hospitalizations,
		usages:           usages,
		timeout:          15 * time.Second,
		now:              time.Now,
	}
}

// SetChartReader attaches the chart source used by Summary.
func (s *Service) SetChartReader(r ChartReader) {
	s.charts = r
}

func (s *Service) SetStoreTimeout(d time.Duration) {
	s.timeout = d
}

// SetClock overrides the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*Hospitalization, error) {
	h, err := s.hospitalizations.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	if h == nil {
		return nil, apperr.NotFoundf("hospitalization %s", id)
	}
	return h, nil
}

func (s *Service) CreateHospitalization(ctx context.Context, h *Hospitalization) error {
	if h.PatientName == "" {
		return apperr.Validationf("patient_name is required")
	}
	if h.AdmissionAt.IsZero() {
		return apperr.Validationf("admission_at is required")
	}
	if h.WeightKg != nil && *h.WeightKg <= 0 {
		return apperr.Validationf("weight must be positive, got %v", *h.WeightKg)
	}

	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return apperr.FromStore(s.hospitalizations.Create(cctx, h))
}

func (s *Service) GetHospitalization(ctx context.Context, id uuid.UUID) (*Hospitalization, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.get(cctx, id)
}

func (s *Service) ListHospitalizations(ctx context.Context, includeArchived bool, limit, offset int) ([]*Hospitalization, int, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	items, total, err := s.hospitalizations.List(cctx, includeArchived, limit, offset)
	return items, total, apperr.FromStore(err)
}

// UpdateWeight records a new patient weight, which shifts every dose
// annotation derived from it.
func (s *Service) UpdateWeight(ctx context.Context, id uuid.UUID, weightKg float64) (*Hospitalization, error) {
	if weightKg <= 0 {
		return nil, apperr.Validationf("weight must be positive, got %v", weightKg)
	}

	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	h, err := s.get(cctx, id)
	if err != nil {
		return nil, err
	}
	h.WeightKg = &weightKg
	if err := s.hospitalizations.Update(cctx, h); err != nil {
		return nil, apperr.FromStore(err)
	}
	return h, nil
}

// Archive closes the stay. The archival instant becomes the fixed upper bound
// of the chart's time axis.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) (*Hospitalization, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	h, err := s.get(cctx, id)
	if err != nil {
		return nil, err
	}
	if h.ArchivedAt != nil {
		return nil, apperr.Validationf("hospitalization %s is already archived", id)
	}

	archivedAt := s.now()
	h.ArchivedAt = &archivedAt
	if err := s.hospitalizations.Update(cctx, h); err != nil {
		return nil, apperr.FromStore(err)
	}
	return h, nil
}

// RecordMaterialUsage books a material consumption on an active stay.
func (s *Service) RecordMaterialUsage(ctx context.Context, u *MaterialUsage) error {
	if u.MaterialID == uuid.Nil {
		return apperr.Validationf("material_id is required")
	}
	if u.Quantity <= 0 {
		return apperr.Validationf("quantity must be positive, got %v", u.Quantity)
	}

	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	h, err := s.get(cctx, u.HospitalizationID)
	if err != nil {
		return err
	}
	if !h.Active() {
		return apperr.Validationf("hospitalization %s is archived", h.ID)
	}

	if u.RecordedBy == "" {
		u.RecordedBy = auth.UserIDFromContext(ctx)
	}
	return apperr.FromStore(s.usages.Create(cctx, u))
}

func (s *Service) DeleteMaterialUsage(ctx context.Context, id uuid.UUID) error {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return apperr.FromStore(s.usages.Delete(cctx, id))
}

func (s *Service) ListMaterialUsages(ctx context.Context, hospitalizationID uuid.UUID) ([]*MaterialUsage, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.get(cctx, hospitalizationID); err != nil {
		return nil, err
	}
	usages, err := s.usages.ListByHospitalization(cctx, hospitalizationID)
	return usages, apperr.FromStore(err)
}

// Summary reduces the stay into its end-of-stay report: duration, medication
// totals in the units recorded at entry time, and material totals. The
// duration's end instant is now for active stays and the archival instant
// otherwise.
func (s *Service) Summary(ctx context.Context, hospitalizationID uuid.UUID) (*StaySummary, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	h, err := s.get(cctx, hospitalizationID)
	if err != nil {
		return nil, err
	}

	end := s.now()
	if h.ArchivedAt != nil {
		end = *h.ArchivedAt
	}

	summary := &StaySummary{
		HospitalizationID: h.ID,
		Duration:          Duration(h.AdmissionAt, end),
		Medications:       []MedicationTotal{},
		Materials:         []MaterialTotal{},
	}

	if s.charts != nil {
		rows, err := s.charts.ListRows(cctx, hospitalizationID)
		if err != nil {
			return nil, apperr.FromStore(err)
		}
		entries, err := s.charts.ListEntries(cctx, hospitalizationID)
		if err != nil {
			return nil, apperr.FromStore(err)
		}
		summary.Medications = MedicationTotals(rows, entries)
	}

	usages, err := s.usages.ListByHospitalization(cctx, hospitalizationID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	summary.Materials = MaterialTotals(usages)

	return summary, nil
}
