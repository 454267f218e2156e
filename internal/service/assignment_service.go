package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kurlerprudent/kubo-backend-go/internal/apperr"
	"github.com/kurlerprudent/kubo-backend-go/internal/events"
	"github.com/kurlerprudent/kubo-backend-go/internal/ids"
	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/repository"
)

// AssignmentService owns the doctor↔patient relation: assignment
// validation, unassignment and the doctor-deletion guard.
type AssignmentService struct {
	store  AccountStore
	events *events.Publisher
	log    zerolog.Logger
}

func NewAssignmentService(store AccountStore, events *events.Publisher, log zerolog.Logger) *AssignmentService {
	return &AssignmentService{store: store, events: events, log: log}
}

// ValidateDoctorRef checks that doctorID is well-formed and resolves to
// a live DOCTOR account. Shared by Assign and the registration paths
// that accept a doctor id at creation time.
func (s *AssignmentService) ValidateDoctorRef(ctx context.Context, doctorID string) error {
	if !ids.IsValid(doctorID) {
		return apperr.Validation("malformed doctor id")
	}

	doctor, err := s.store.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("doctor not found")
		}
		return apperr.Internal("load doctor", err)
	}
	if doctor.Role != models.RoleDoctor {
		return apperr.Validation("referenced account is not a doctor")
	}
	return nil
}

// Assign points the patient at doctorID. Assigning the doctor the
// patient already has is a no-op success; a failed validation leaves
// the patient row untouched.
func (s *AssignmentService) Assign(ctx context.Context, patientID string, doctorID string) error {
	patient, err := s.loadPatient(ctx, patientID)
	if err != nil {
		return err
	}

	if err := s.ValidateDoctorRef(ctx, doctorID); err != nil {
		return err
	}

	if current := patient.AssignedDoctorID(); current != nil && *current == doctorID {
		return nil
	}

	if err := s.store.UpdateAssignedDoctor(ctx, patientID, &doctorID); err != nil {
		return s.mapAssignErr(err)
	}

	s.events.Publish(ctx, events.ActionAssignmentChanged, patientID, map[string]any{
		"doctor": doctorID,
	})
	return nil
}

// Unassign clears the patient's doctor reference. Always permitted.
func (s *AssignmentService) Unassign(ctx context.Context, patientID string) error {
	if _, err := s.loadPatient(ctx, patientID); err != nil {
		return err
	}

	if err := s.store.UpdateAssignedDoctor(ctx, patientID, nil); err != nil {
		return s.mapAssignErr(err)
	}

	s.events.Publish(ctx, events.ActionAssignmentChanged, patientID, map[string]any{
		"doctor": "",
	})
	return nil
}

// GuardDelete blocks doctor deletion while patients still point at the
// doctor. The count is advisory; the store's restrict foreign key is
// the authoritative backstop under concurrent assignment.
func (s *AssignmentService) GuardDelete(ctx context.Context, doctorID string) error {
	count, err := s.store.CountAssignedPatients(ctx, doctorID)
	if err != nil {
		return apperr.Internal("count assigned patients", err)
	}
	if count > 0 {
		return apperr.Conflict(fmt.Sprintf("doctor has %d assigned patient(s)", count))
	}
	return nil
}

func (s *AssignmentService) loadPatient(ctx context.Context, patientID string) (models.Account, error) {
	if !ids.IsValid(patientID) {
		return models.Account{}, apperr.Validation("malformed patient id")
	}

	patient, err := s.store.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Account{}, apperr.NotFound("patient not found")
		}
		return models.Account{}, apperr.Internal("load patient", err)
	}
	if patient.Role != models.RolePatient {
		return models.Account{}, apperr.NotFound("patient not found")
	}
	return patient, nil
}

func (s *AssignmentService) mapAssignErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("patient not found")
	case errors.Is(err, repository.ErrDoctorRef):
		// Doctor vanished between the pre-check and the write; the
		// foreign key caught it.
		return apperr.NotFound("doctor not found")
	default:
		return apperr.Internal("update assignment", err)
	}
}
