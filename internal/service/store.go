package service

import (
	"context"

	"github.com/kurlerprudent/kubo-backend-go/internal/models"
)

// AccountStore is the slice of the record store the services need.
// *repository.AccountRepository implements it; tests substitute an
// in-memory fake.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	GetByID(ctx context.Context, id string) (models.Account, error)
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.Account, error)
	ListPatientsByDoctor(ctx context.Context, doctorID string) ([]models.Account, error)
	Update(ctx context.Context, account models.Account) error
	UpdateAssignedDoctor(ctx context.Context, patientID string, doctorID *string) error
	Delete(ctx context.Context, id string) error
	CountAssignedPatients(ctx context.Context, doctorID string) (int, error)
}
