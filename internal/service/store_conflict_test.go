package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurlerprudent/kubo-backend-go/internal/apperr"
	"github.com/kurlerprudent/kubo-backend-go/internal/events"
	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/repository"
	"github.com/kurlerprudent/kubo-backend-go/internal/security"
)

// contentiousStore simulates writes racing past the advisory
// pre-checks: lookups can be forced to miss and writes can be forced to
// fail with the sentinel the store's constraint would raise.
type contentiousStore struct {
	*fakeStore
	missEmailLookup bool
	createErr       error
	assignErr       error
}

func (s *contentiousStore) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	if s.missEmailLookup {
		return models.Account{}, repository.ErrNotFound
	}
	return s.fakeStore.FindByEmail(ctx, email)
}

func (s *contentiousStore) Create(ctx context.Context, account models.Account) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.fakeStore.Create(ctx, account)
}

func (s *contentiousStore) UpdateAssignedDoctor(ctx context.Context, patientID string, doctorID *string) error {
	if s.assignErr != nil {
		return s.assignErr
	}
	return s.fakeStore.UpdateAssignedDoctor(ctx, patientID, doctorID)
}

type contentiousEnv struct {
	store       *contentiousStore
	auth        *AuthService
	accounts    *AccountService
	assignments *AssignmentService
}

func newContentiousEnv(t *testing.T) *contentiousEnv {
	t.Helper()

	store := &contentiousStore{fakeStore: newFakeStore()}
	logger := zerolog.Nop()
	publisher := events.NewPublisher(nil, "", logger)
	codec := security.NewTokenCodec("test-secret", time.Hour)

	assignments := NewAssignmentService(store, publisher, logger)
	return &contentiousEnv{
		store:       store,
		auth:        NewAuthService(store, codec, assignments, publisher, logger),
		accounts:    NewAccountService(store, assignments, publisher, logger),
		assignments: assignments,
	}
}

func TestRegisterDuplicateCaughtByStoreConstraint(t *testing.T) {
	env := newContentiousEnv(t)

	// The pre-check misses; only the unique constraint sees the
	// concurrently created duplicate.
	env.store.missEmailLookup = true
	env.store.createErr = repository.ErrEmailTaken

	_, err := env.auth.RegisterPatient(ctxb(), RegisterPatientInput{
		Email:    "a@x.com",
		Password: "secret-pass-1",
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err),
		"constraint violation must surface the same conflict as the pre-check")
}

func TestCreateAccountDuplicateCaughtByStoreConstraint(t *testing.T) {
	env := newContentiousEnv(t)

	env.store.missEmailLookup = true
	env.store.createErr = repository.ErrEmailTaken

	_, err := env.accounts.CreateDoctor(ctxb(), CreateDoctorInput{
		Email:    "doc@x.com",
		Password: "secret-pass-1",
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRegisterDoctorRefCaughtByStoreConstraint(t *testing.T) {
	env := newContentiousEnv(t)

	doctor, err := env.accounts.CreateDoctor(ctxb(), CreateDoctorInput{
		Email:    "doc@x.com",
		Password: "secret-pass-1",
	})
	require.NoError(t, err)

	// The doctor passes validation but is deleted before the insert
	// lands; the foreign key raises the sentinel.
	env.store.createErr = repository.ErrDoctorRef

	_, err = env.auth.RegisterPatient(ctxb(), RegisterPatientInput{
		Email:            "pat@x.com",
		Password:         "secret-pass-1",
		AssignedDoctorID: &doctor.ID,
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAssignDoctorDeletedBetweenCheckAndWrite(t *testing.T) {
	env := newContentiousEnv(t)

	doctor, err := env.accounts.CreateDoctor(ctxb(), CreateDoctorInput{
		Email:    "doc@x.com",
		Password: "secret-pass-1",
	})
	require.NoError(t, err)

	patient, err := env.auth.RegisterPatient(ctxb(), RegisterPatientInput{
		Email:    "pat@x.com",
		Password: "secret-pass-1",
	})
	require.NoError(t, err)

	env.store.assignErr = repository.ErrDoctorRef

	err = env.assignments.Assign(ctxb(), patient.ID, doctor.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	env.store.assignErr = nil
	got, err := env.store.GetByID(ctxb(), patient.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedDoctorID(), "failed write must leave the relation unset")
}
