package handlers

import (
	"context"
	"strings"
	"sync"

	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/repository"
)

// fakeStore backs the routing tests with an in-memory account table
// that enforces the same constraints as the real one: unique
// lower(email) and a restrict reference from patient to doctor.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]models.Account)}
}

func cloneAccount(a models.Account) models.Account {
	if a.Doctor != nil {
		d := *a.Doctor
		a.Doctor = &d
	}
	if a.Patient != nil {
		p := *a.Patient
		if p.AssignedDoctorID != nil {
			id := *p.AssignedDoctorID
			p.AssignedDoctorID = &id
		}
		a.Patient = &p
	}
	if a.Admin != nil {
		ad := *a.Admin
		a.Admin = &ad
	}
	return a
}

func (s *fakeStore) Create(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return repository.ErrEmailTaken
		}
	}
	if ref := account.AssignedDoctorID(); ref != nil {
		if _, ok := s.accounts[*ref]; !ok {
			return repository.ErrDoctorRef
		}
	}

	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repository.ErrNotFound
	}
	return cloneAccount(account), nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.Email == email {
			return cloneAccount(account), nil
		}
	}
	return models.Account{}, repository.ErrNotFound
}

func (s *fakeStore) ListByRole(_ context.Context, role models.Role) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Account
	for _, account := range s.accounts {
		if account.Role == role {
			out = append(out, cloneAccount(account))
		}
	}
	return out, nil
}

func (s *fakeStore) ListPatientsByDoctor(_ context.Context, doctorID string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Account
	for _, account := range s.accounts {
		if ref := account.AssignedDoctorID(); ref != nil && *ref == doctorID {
			out = append(out, cloneAccount(account))
		}
	}
	return out, nil
}

func (s *fakeStore) Update(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.accounts {
		if id != account.ID && strings.EqualFold(existing.Email, account.Email) {
			return repository.ErrEmailTaken
		}
	}
	if ref := account.AssignedDoctorID(); ref != nil {
		if _, ok := s.accounts[*ref]; !ok {
			return repository.ErrDoctorRef
		}
	}

	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (s *fakeStore) UpdateAssignedDoctor(_ context.Context, patientID string, doctorID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[patientID]
	if !ok || account.Role != models.RolePatient {
		return repository.ErrNotFound
	}
	if doctorID != nil {
		if _, ok := s.accounts[*doctorID]; !ok {
			return repository.ErrDoctorRef
		}
	}

	account = cloneAccount(account)
	account.Patient.AssignedDoctorID = doctorID
	s.accounts[patientID] = account
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if account.Role == models.RoleDoctor {
		for _, other := range s.accounts {
			if ref := other.AssignedDoctorID(); ref != nil && *ref == id {
				return repository.ErrHasPatients
			}
		}
	}

	delete(s.accounts, id)
	return nil
}

func (s *fakeStore) CountAssignedPatients(_ context.Context, doctorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, account := range s.accounts {
		if ref := account.AssignedDoctorID(); ref != nil && *ref == doctorID {
			count++
		}
	}
	return count, nil
}
