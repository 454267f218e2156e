// Package repository holds the pgx-backed account store. Sentinel errors
// let the service layer translate storage outcomes without inspecting
// driver errors itself.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("account not found")

	// ErrEmailTaken is returned when the unique email constraint fires.
	// The pre-check in the service layer is advisory; this is the
	// authoritative signal under concurrent writes.
	ErrEmailTaken = errors.New("email already registered")

	// ErrDoctorRef is returned when a write references a doctor id the
	// store does not know (foreign key violation on insert/update).
	ErrDoctorRef = errors.New("assigned doctor does not exist")

	// ErrHasPatients is returned when the delete-restrict foreign key
	// blocks removing a doctor that still has assigned patients.
	ErrHasPatients = errors.New("doctor has assigned patients")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateWriteErr maps Postgres constraint violations on insert/update
// to their sentinels. Other errors pass through untouched.
func translateWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ErrEmailTaken
	case pgForeignKeyViolation:
		return ErrDoctorRef
	}
	return err
}

// translateDeleteErr maps the restrict foreign key on delete. A doctor
// row referenced by patients cannot be removed.
func translateDeleteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrHasPatients
	}
	return err
}
