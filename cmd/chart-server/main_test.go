package main

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wardchart/wardchart/internal/domain/stay"
)

type stubHospRepo struct {
	hosp *stay.Hospitalization
}

func (s *stubHospRepo) Create(context.Context, *stay.Hospitalization) error { return nil }
func (s *stubHospRepo) Update(context.Context, *stay.Hospitalization) error { return nil }
func (s *stubHospRepo) List(context.Context, bool, int, int) ([]*stay.Hospitalization, int, error) {
	return nil, 0, nil
}

func (s *stubHospRepo) GetByID(_ context.Context, id uuid.UUID) (*stay.Hospitalization, error) {
	if s.hosp != nil && s.hosp.ID == id {
		return s.hosp, nil
	}
	return nil, nil
}

func TestStayReaderAdapter(t *testing.T) {
	weight := 6.4
	archived := time.Date(2026, 5, 22, 10, 0, 0, 0, time.UTC)
	hosp := &stay.Hospitalization{
		ID:          uuid.New(),
		PatientName: "Rex",
		WeightKg:    &weight,
		AdmissionAt: time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC),
		ArchivedAt:  &archived,
	}
	adapter := NewStayReaderAdapter(&stubHospRepo{hosp: hosp})

	got, err := adapter.GetContext(context.Background(), hosp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a context")
	}
	if got.ID != hosp.ID || !got.AdmissionAt.Equal(hosp.AdmissionAt) {
		t.Error("identity fields not mapped")
	}
	if got.WeightKg == nil || *got.WeightKg != weight {
		t.Error("weight not mapped")
	}
	if got.ArchivedAt == nil || !got.ArchivedAt.Equal(archived) {
		t.Error("archival instant not mapped")
	}
}

func TestStayReaderAdapterMissing(t *testing.T) {
	adapter := NewStayReaderAdapter(&stubHospRepo{})
	got, err := adapter.GetContext(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil context for an unknown hospitalization")
	}
}
