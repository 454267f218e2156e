package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kurlerprudent/kubo-backend-go/internal/apperr"
	"github.com/kurlerprudent/kubo-backend-go/internal/ids"
	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/repository"
)

// ReportService keeps imaging reports in memory. Reports are transient
// metadata, not clinical storage, and do not survive a restart.
type ReportService struct {
	store AccountStore
	log   zerolog.Logger

	mu      sync.RWMutex
	reports map[string][]models.ImagingReport // keyed by patient id
}

func NewReportService(store AccountStore, log zerolog.Logger) *ReportService {
	return &ReportService{
		store:   store,
		log:     log,
		reports: make(map[string][]models.ImagingReport),
	}
}

type FileReportInput struct {
	PatientID string
	Title     string
	Findings  string
}

// File records a report. The filing doctor must currently be the
// patient's assigned doctor.
func (s *ReportService) File(ctx context.Context, doctor models.Principal, input FileReportInput) (models.ImagingReport, error) {
	if !ids.IsValid(input.PatientID) {
		return models.ImagingReport{}, apperr.Validation("malformed patient id")
	}
	if input.Title == "" {
		return models.ImagingReport{}, apperr.Validation("title is required")
	}

	patient, err := s.store.GetByID(ctx, input.PatientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.ImagingReport{}, apperr.NotFound("patient not found")
		}
		return models.ImagingReport{}, apperr.Internal("load patient", err)
	}
	if patient.Role != models.RolePatient {
		return models.ImagingReport{}, apperr.NotFound("patient not found")
	}

	assigned := patient.AssignedDoctorID()
	if assigned == nil || *assigned != doctor.ID {
		return models.ImagingReport{}, apperr.Forbidden("patient is not assigned to you")
	}

	report := models.ImagingReport{
		ID:        ids.New(),
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Title:     input.Title,
		Findings:  input.Findings,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.reports[patient.ID] = append(s.reports[patient.ID], report)
	s.mu.Unlock()

	return report, nil
}

// ListForPatient returns the reports filed for one patient, oldest
// first.
func (s *ReportService) ListForPatient(ctx context.Context, patientID string) ([]models.ImagingReport, error) {
	if !ids.IsValid(patientID) {
		return nil, apperr.Validation("malformed patient id")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.reports[patientID]
	out := make([]models.ImagingReport, len(stored))
	copy(out, stored)
	return out, nil
}
