package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kurlerprudent/kubo-backend-go/internal/apperr"
	"github.com/kurlerprudent/kubo-backend-go/internal/events"
	"github.com/kurlerprudent/kubo-backend-go/internal/ids"
	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/repository"
	"github.com/kurlerprudent/kubo-backend-go/internal/security"
)

// AuthService handles self-registration and login.
type AuthService struct {
	store       AccountStore
	codec       *security.TokenCodec
	assignments *AssignmentService
	events      *events.Publisher
	log         zerolog.Logger
}

func NewAuthService(
	store AccountStore,
	codec *security.TokenCodec,
	assignments *AssignmentService,
	events *events.Publisher,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		store:       store,
		codec:       codec,
		assignments: assignments,
		events:      events,
		log:         log,
	}
}

type RegisterPatientInput struct {
	Email            string
	Password         string
	Name             string
	Phone            string
	DateOfBirth      *time.Time
	Gender           string
	AssignedDoctorID *string
}

// RegisterPatient creates a PATIENT account on the public endpoint. The
// role is fixed server-side; an optional doctor id is validated with
// the same rules as an explicit assignment.
func (s *AuthService) RegisterPatient(ctx context.Context, input RegisterPatientInput) (models.Account, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return models.Account{}, apperr.Validation("email and password are required")
	}

	if input.AssignedDoctorID != nil {
		if err := s.assignments.ValidateDoctorRef(ctx, *input.AssignedDoctorID); err != nil {
			return models.Account{}, err
		}
	}

	// Advisory pre-check; the unique constraint is the authoritative
	// guard when two registrations race.
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return models.Account{}, apperr.Conflict("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.Account{}, apperr.Internal("lookup email", err)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.Account{}, apperr.Internal("hash password", err)
	}

	account := models.Account{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RolePatient,
		Patient: &models.PatientProfile{
			Name:             input.Name,
			Phone:            input.Phone,
			DateOfBirth:      input.DateOfBirth,
			Gender:           input.Gender,
			AssignedDoctorID: input.AssignedDoctorID,
		},
	}

	if err := s.store.Create(ctx, account); err != nil {
		return models.Account{}, mapCreateErr(err)
	}

	s.events.Publish(ctx, events.ActionAccountCreated, account.ID, map[string]any{
		"role": string(account.Role),
	})
	return account, nil
}

// Login verifies credentials and mints a session token. Unknown email
// and wrong password produce the identical result so the two causes are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email string, password string) (string, models.Account, error) {
	genericDenied := apperr.Unauthorized("invalid email or password")

	account, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", models.Account{}, genericDenied
		}
		return "", models.Account{}, apperr.Internal("lookup email", err)
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return "", models.Account{}, genericDenied
	}

	token, err := s.codec.Issue(account.ID, account.Role)
	if err != nil {
		return "", models.Account{}, apperr.Internal("issue token", err)
	}

	return token, account, nil
}

// NormalizeEmail lowercases and trims; every uniqueness check and every
// storage write sees the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapCreateErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		return apperr.Conflict("email already registered")
	case errors.Is(err, repository.ErrDoctorRef):
		return apperr.NotFound("doctor not found")
	default:
		return apperr.Internal("create account", err)
	}
}
