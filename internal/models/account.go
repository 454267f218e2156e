package models

import "time"

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleDoctor     Role = "DOCTOR"
	RolePatient    Role = "PATIENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// DoctorProfile holds the fields only DOCTOR accounts carry.
type DoctorProfile struct {
	Name           string
	Phone          string
	Specialization string
}

// PatientProfile holds the fields only PATIENT accounts carry.
// AssignedDoctorID, when set, must reference an account with role DOCTOR.
type PatientProfile struct {
	Name             string
	Phone            string
	DateOfBirth      *time.Time
	Gender           string
	AssignedDoctorID *string
}

// AdminProfile holds the fields ADMIN and SUPER_ADMIN accounts carry.
type AdminProfile struct {
	Name       string
	Department string
	Position   string
}

// Account is the base identity plus a role-selected profile payload.
// Exactly the profile matching Role is non-nil; the others stay nil.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         Role
	Doctor       *DoctorProfile
	Patient      *PatientProfile
	Admin        *AdminProfile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AssignedDoctorID returns the patient's doctor reference, nil for
// non-patient accounts or unassigned patients.
func (a Account) AssignedDoctorID() *string {
	if a.Patient == nil {
		return nil
	}
	return a.Patient.AssignedDoctorID
}

// Principal is the request-scoped identity the auth middleware resolves.
// It deliberately carries no profile or credential material.
type Principal struct {
	ID   string
	Role Role
}
