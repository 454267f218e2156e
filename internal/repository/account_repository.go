package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kurlerprudent/kubo-backend-go/internal/models"
)

const accountColumns = `
	id, email, password_hash, role,
	name, phone, specialization, date_of_birth, gender,
	department, position, assigned_doctor_id,
	created_at, updated_at
`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, account models.Account) error {
	const query = `
		INSERT INTO accounts (
			id, email, password_hash, role,
			name, phone, specialization, date_of_birth, gender,
			department, position, assigned_doctor_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW()
		)
	`

	f := flatten(account)
	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Role,
		f.name,
		f.phone,
		f.specialization,
		f.dateOfBirth,
		f.gender,
		f.department,
		f.position,
		f.assignedDoctorID,
	)
	if err != nil {
		return translateWriteErr(err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *AccountRepository) ListByRole(ctx context.Context, role models.Role) ([]models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE role = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *AccountRepository) ListPatientsByDoctor(ctx context.Context, doctorID string) ([]models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE assigned_doctor_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// Update writes the full mutable row; the service layer constructs the
// patched account and owns the role-immutability rule, so role is not
// part of the statement.
func (r *AccountRepository) Update(ctx context.Context, account models.Account) error {
	const query = `
		UPDATE accounts SET
			email = $2,
			password_hash = $3,
			name = $4,
			phone = $5,
			specialization = $6,
			date_of_birth = $7,
			gender = $8,
			department = $9,
			position = $10,
			assigned_doctor_id = $11,
			updated_at = NOW()
		WHERE id = $1
	`

	f := flatten(account)
	cmd, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		f.name,
		f.phone,
		f.specialization,
		f.dateOfBirth,
		f.gender,
		f.department,
		f.position,
		f.assignedDoctorID,
	)
	if err != nil {
		return translateWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) UpdateAssignedDoctor(ctx context.Context, patientID string, doctorID *string) error {
	const query = `
		UPDATE accounts SET assigned_doctor_id = $2, updated_at = NOW()
		WHERE id = $1 AND role = 'PATIENT'
	`
	cmd, err := r.pool.Exec(ctx, query, patientID, doctorID)
	if err != nil {
		return translateWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM accounts WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return translateDeleteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) CountAssignedPatients(ctx context.Context, doctorID string) (int, error) {
	const query = `SELECT COUNT(*) FROM accounts WHERE assigned_doctor_id = $1`
	var count int
	if err := r.pool.QueryRow(ctx, query, doctorID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountDanglingAssignments counts patients whose doctor reference no
// longer resolves to a DOCTOR row. The restrict foreign key should keep
// this at zero; the nightly sweep logs any drift.
func (r *AccountRepository) CountDanglingAssignments(ctx context.Context) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM accounts p
		LEFT JOIN accounts d ON d.id = p.assigned_doctor_id
		WHERE p.assigned_doctor_id IS NOT NULL
		  AND (d.id IS NULL OR d.role <> 'DOCTOR')
	`
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type flatRow struct {
	name             string
	phone            string
	specialization   string
	dateOfBirth      *time.Time
	gender           string
	department       string
	position         string
	assignedDoctorID *string
}

// flatten projects the role-selected profile onto the widened row the
// store keeps.
func flatten(a models.Account) flatRow {
	var f flatRow
	switch {
	case a.Doctor != nil:
		f.name = a.Doctor.Name
		f.phone = a.Doctor.Phone
		f.specialization = a.Doctor.Specialization
	case a.Patient != nil:
		f.name = a.Patient.Name
		f.phone = a.Patient.Phone
		f.dateOfBirth = a.Patient.DateOfBirth
		f.gender = a.Patient.Gender
		f.assignedDoctorID = a.Patient.AssignedDoctorID
	case a.Admin != nil:
		f.name = a.Admin.Name
		f.department = a.Admin.Department
		f.position = a.Admin.Position
	}
	return f
}

// inflate rebuilds the tagged profile from the widened row.
func inflate(a *models.Account, f flatRow) {
	switch a.Role {
	case models.RoleDoctor:
		a.Doctor = &models.DoctorProfile{
			Name:           f.name,
			Phone:          f.phone,
			Specialization: f.specialization,
		}
	case models.RolePatient:
		a.Patient = &models.PatientProfile{
			Name:             f.name,
			Phone:            f.phone,
			DateOfBirth:      f.dateOfBirth,
			Gender:           f.gender,
			AssignedDoctorID: f.assignedDoctorID,
		}
	case models.RoleAdmin, models.RoleSuperAdmin:
		a.Admin = &models.AdminProfile{
			Name:       f.name,
			Department: f.department,
			Position:   f.position,
		}
	}
}

func (r *AccountRepository) scanOne(row pgx.Row) (models.Account, error) {
	var (
		account models.Account
		f       flatRow
	)
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&f.name,
		&f.phone,
		&f.specialization,
		&f.dateOfBirth,
		&f.gender,
		&f.department,
		&f.position,
		&f.assignedDoctorID,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, err
	}
	inflate(&account, f)
	return account, nil
}

func (r *AccountRepository) scanMany(rows pgx.Rows) ([]models.Account, error) {
	var accounts []models.Account
	for rows.Next() {
		var (
			account models.Account
			f       flatRow
		)
		if err := rows.Scan(
			&account.ID,
			&account.Email,
			&account.PasswordHash,
			&account.Role,
			&f.name,
			&f.phone,
			&f.specialization,
			&f.dateOfBirth,
			&f.gender,
			&f.department,
			&f.position,
			&f.assignedDoctorID,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		inflate(&account, f)
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
