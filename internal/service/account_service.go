package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/kurlerprudent/kubo-backend-go/internal/apperr"
	"github.com/kurlerprudent/kubo-backend-go/internal/events"
	"github.com/kurlerprudent/kubo-backend-go/internal/ids"
	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/repository"
	"github.com/kurlerprudent/kubo-backend-go/internal/security"
)

// AccountService is the account directory: role-scoped creation,
// lookups, updates and deletion. Role is set server-side per operation
// and never mutated afterwards.
type AccountService struct {
	store       AccountStore
	assignments *AssignmentService
	events      *events.Publisher
	log         zerolog.Logger
}

func NewAccountService(store AccountStore, assignments *AssignmentService, events *events.Publisher, log zerolog.Logger) *AccountService {
	return &AccountService{
		store:       store,
		assignments: assignments,
		events:      events,
		log:         log,
	}
}

type CreateAdminInput struct {
	Email      string
	Password   string
	Name       string
	Department string
	Position   string
}

func (s *AccountService) CreateAdmin(ctx context.Context, input CreateAdminInput) (models.Account, error) {
	account := models.Account{
		Role: models.RoleAdmin,
		Admin: &models.AdminProfile{
			Name:       input.Name,
			Department: input.Department,
			Position:   input.Position,
		},
	}
	return s.create(ctx, account, input.Email, input.Password)
}

type CreateDoctorInput struct {
	Email          string
	Password       string
	Name           string
	Phone          string
	Specialization string
}

func (s *AccountService) CreateDoctor(ctx context.Context, input CreateDoctorInput) (models.Account, error) {
	account := models.Account{
		Role: models.RoleDoctor,
		Doctor: &models.DoctorProfile{
			Name:           input.Name,
			Phone:          input.Phone,
			Specialization: input.Specialization,
		},
	}
	return s.create(ctx, account, input.Email, input.Password)
}

type CreatePatientInput struct {
	Email            string
	Password         string
	Name             string
	Phone            string
	DateOfBirth      *time.Time
	Gender           string
	AssignedDoctorID *string
}

// CreatePatient creates a PATIENT on behalf of the actor. A creating
// doctor becomes the assigned doctor regardless of the input: the
// actor's identity is already authenticated, so the generic doctor-ref
// validation is skipped for it.
func (s *AccountService) CreatePatient(ctx context.Context, actor models.Principal, input CreatePatientInput) (models.Account, error) {
	assigned := input.AssignedDoctorID
	if actor.Role == models.RoleDoctor {
		id := actor.ID
		assigned = &id
	} else if assigned != nil {
		if err := s.assignments.ValidateDoctorRef(ctx, *assigned); err != nil {
			return models.Account{}, err
		}
	}

	account := models.Account{
		Role: models.RolePatient,
		Patient: &models.PatientProfile{
			Name:             input.Name,
			Phone:            input.Phone,
			DateOfBirth:      input.DateOfBirth,
			Gender:           input.Gender,
			AssignedDoctorID: assigned,
		},
	}
	return s.create(ctx, account, input.Email, input.Password)
}

func (s *AccountService) create(ctx context.Context, account models.Account, email string, password string) (models.Account, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" || password == "" {
		return models.Account{}, apperr.Validation("email and password are required")
	}

	if _, err := s.store.FindByEmail(ctx, normalized); err == nil {
		return models.Account{}, apperr.Conflict("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.Account{}, apperr.Internal("lookup email", err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return models.Account{}, apperr.Internal("hash password", err)
	}

	account.ID = ids.New()
	account.Email = normalized
	account.PasswordHash = passwordHash

	if err := s.store.Create(ctx, account); err != nil {
		return models.Account{}, mapCreateErr(err)
	}

	s.events.Publish(ctx, events.ActionAccountCreated, account.ID, map[string]any{
		"role": string(account.Role),
	})
	return account, nil
}

// Get loads an account and checks it has the expected role. An id that
// resolves to the wrong role is reported as not found, same as an
// unknown id.
func (s *AccountService) Get(ctx context.Context, id string, role models.Role) (models.Account, error) {
	account, err := s.load(ctx, id)
	if err != nil {
		return models.Account{}, err
	}
	if account.Role != role {
		return models.Account{}, apperr.NotFound("account not found")
	}
	return account, nil
}

func (s *AccountService) GetSelf(ctx context.Context, principal models.Principal) (models.Account, error) {
	return s.load(ctx, principal.ID)
}

func (s *AccountService) ListByRole(ctx context.Context, role models.Role) ([]models.Account, error) {
	accounts, err := s.store.ListByRole(ctx, role)
	if err != nil {
		return nil, apperr.Internal("list accounts", err)
	}
	return accounts, nil
}

// ListPatients scopes the listing to the actor: doctors only see
// patients currently assigned to them.
func (s *AccountService) ListPatients(ctx context.Context, actor models.Principal) ([]models.Account, error) {
	if actor.Role == models.RoleDoctor {
		accounts, err := s.store.ListPatientsByDoctor(ctx, actor.ID)
		if err != nil {
			return nil, apperr.Internal("list patients", err)
		}
		return accounts, nil
	}
	return s.ListByRole(ctx, models.RolePatient)
}

// UpdateInput is a partial patch. Nil fields are left untouched. There
// is deliberately no role field and no assignment field; assignment
// changes go through the AssignmentService.
type UpdateInput struct {
	Email          *string
	Password       *string
	Name           *string
	Phone          *string
	Specialization *string
	DateOfBirth    *time.Time
	Gender         *string
	Department     *string
	Position       *string
}

// UpdateSelf applies a patch to the caller's own account.
func (s *AccountService) UpdateSelf(ctx context.Context, principal models.Principal, patch UpdateInput) (models.Account, error) {
	return s.update(ctx, principal.ID, "", patch)
}

// Update applies an administrative patch to the account with the given
// id, which must carry the expected role.
func (s *AccountService) Update(ctx context.Context, id string, role models.Role, patch UpdateInput) (models.Account, error) {
	return s.update(ctx, id, role, patch)
}

func (s *AccountService) update(ctx context.Context, id string, role models.Role, patch UpdateInput) (models.Account, error) {
	account, err := s.load(ctx, id)
	if err != nil {
		return models.Account{}, err
	}
	if role != "" && account.Role != role {
		return models.Account{}, apperr.NotFound("account not found")
	}

	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if email == "" {
			return models.Account{}, apperr.Validation("email must not be empty")
		}
		if email != account.Email {
			if other, err := s.store.FindByEmail(ctx, email); err == nil && other.ID != account.ID {
				return models.Account{}, apperr.Conflict("email already registered")
			} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return models.Account{}, apperr.Internal("lookup email", err)
			}
			account.Email = email
		}
	}

	if patch.Password != nil {
		if *patch.Password == "" {
			return models.Account{}, apperr.Validation("password must not be empty")
		}
		hash, err := security.HashPassword(*patch.Password)
		if err != nil {
			return models.Account{}, apperr.Internal("hash password", err)
		}
		account.PasswordHash = hash
	}

	applyProfilePatch(&account, patch)

	if err := s.store.Update(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return models.Account{}, apperr.Conflict("email already registered")
		case errors.Is(err, repository.ErrNotFound):
			return models.Account{}, apperr.NotFound("account not found")
		default:
			return models.Account{}, apperr.Internal("update account", err)
		}
	}

	s.events.Publish(ctx, events.ActionAccountUpdated, account.ID, map[string]any{
		"role": string(account.Role),
	})
	return account, nil
}

// Delete removes an account. For doctors the assignment guard runs
// first; the store's restrict foreign key is the backstop if a patient
// is assigned between the guard and the delete.
func (s *AccountService) Delete(ctx context.Context, id string, role models.Role) error {
	account, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if role != "" && account.Role != role {
		return apperr.NotFound("account not found")
	}
	return s.deleteAccount(ctx, account)
}

func (s *AccountService) DeleteSelf(ctx context.Context, principal models.Principal) error {
	account, err := s.load(ctx, principal.ID)
	if err != nil {
		return err
	}
	return s.deleteAccount(ctx, account)
}

func (s *AccountService) deleteAccount(ctx context.Context, account models.Account) error {
	if account.Role == models.RoleDoctor {
		if err := s.assignments.GuardDelete(ctx, account.ID); err != nil {
			return err
		}
	}

	if err := s.store.Delete(ctx, account.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrHasPatients):
			return apperr.Conflict("doctor has assigned patient(s)")
		case errors.Is(err, repository.ErrNotFound):
			return apperr.NotFound("account not found")
		default:
			return apperr.Internal("delete account", err)
		}
	}

	s.events.Publish(ctx, events.ActionAccountDeleted, account.ID, map[string]any{
		"role": string(account.Role),
	})
	return nil
}

func (s *AccountService) load(ctx context.Context, id string) (models.Account, error) {
	if !ids.IsValid(id) {
		return models.Account{}, apperr.Validation("malformed account id")
	}

	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Account{}, apperr.NotFound("account not found")
		}
		return models.Account{}, apperr.Internal("load account", err)
	}
	return account, nil
}

func applyProfilePatch(account *models.Account, patch UpdateInput) {
	switch {
	case account.Doctor != nil:
		if patch.Name != nil {
			account.Doctor.Name = *patch.Name
		}
		if patch.Phone != nil {
			account.Doctor.Phone = *patch.Phone
		}
		if patch.Specialization != nil {
			account.Doctor.Specialization = *patch.Specialization
		}
	case account.Patient != nil:
		if patch.Name != nil {
			account.Patient.Name = *patch.Name
		}
		if patch.Phone != nil {
			account.Patient.Phone = *patch.Phone
		}
		if patch.DateOfBirth != nil {
			account.Patient.DateOfBirth = patch.DateOfBirth
		}
		if patch.Gender != nil {
			account.Patient.Gender = *patch.Gender
		}
	case account.Admin != nil:
		if patch.Name != nil {
			account.Admin.Name = *patch.Name
		}
		if patch.Department != nil {
			account.Admin.Department = *patch.Department
		}
		if patch.Position != nil {
			account.Admin.Position = *patch.Position
		}
	}
}
