package records

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// Service is the validation boundary: structural and semantic checks happen
// here, before any storage call, so the store is never reached with invalid
// data.
type Service struct {
	repo RecordRepository
}

func NewService(repo RecordRepository) *Service {
	return &Service{repo: repo}
}

// Initialize transitions the store to ready: ensure the schema, then seed an
// empty store from the CSV at seedPath. Both steps are idempotent. A missing
// seed file means an empty start, not an error. Returns the number of rows
// seeded.
func (s *Service) Initialize(ctx context.Context, fsys afero.Fs, seedPath string) (int, error) {
	if err := s.repo.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	rows, err := LoadSeedFile(fsys, seedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("load seed: %w", err)
	}
	return s.repo.SeedIfEmpty(ctx, rows)
}

func (s *Service) CreatePatient(ctx context.Context, req CreatePatientRequest) (*PatientRecord, error) {
	if req.Name == nil {
		return nil, &ValidationError{Field: "name", Reason: "field is required"}
	}
	if req.Age == nil {
		return nil, &ValidationError{Field: "age", Reason: "field is required"}
	}
	if req.Condition == nil {
		return nil, &ValidationError{Field: "condition", Reason: "field is required"}
	}
	if req.AdmissionDate == nil {
		return nil, &ValidationError{Field: "admission_date", Reason: "field is required"}
	}
	if verr := validateRecord(*req.Name, *req.Age, *req.AdmissionDate); verr != nil {
		return nil, verr
	}
	rec := &PatientRecord{
		Name:          *req.Name,
		Age:           *req.Age,
		Condition:     *req.Condition,
		AdmissionDate: *req.AdmissionDate,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*PatientRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]*PatientRecord, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []*PatientRecord{}
	}
	return recs, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
