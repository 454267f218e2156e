package handlers

import (
	"time"

	"github.com/kurlerprudent/kubo-backend-go/internal/models"
)

// accountResponse is the outward projection for admin and doctor
// accounts. The credential never appears in any projection.
type accountResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Name           string    `json:"name,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Department     string    `json:"department,omitempty"`
	Position       string    `json:"position,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// patientResponse keeps assignedDoctorId explicit: null means the
// patient has no doctor, it is never omitted.
type patientResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	Name             string     `json:"name,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	DateOfBirth      *time.Time `json:"dateOfBirth,omitempty"`
	Gender           string     `json:"gender,omitempty"`
	AssignedDoctorID *string    `json:"assignedDoctorId"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func toAccountResponse(a models.Account) accountResponse {
	resp := accountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	switch {
	case a.Doctor != nil:
		resp.Name = a.Doctor.Name
		resp.Phone = a.Doctor.Phone
		resp.Specialization = a.Doctor.Specialization
	case a.Admin != nil:
		resp.Name = a.Admin.Name
		resp.Department = a.Admin.Department
		resp.Position = a.Admin.Position
	}
	return resp
}

func toPatientResponse(a models.Account) patientResponse {
	resp := patientResponse{
		ID:        a.ID,
		Email:     a.Email,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Patient != nil {
		resp.Name = a.Patient.Name
		resp.Phone = a.Patient.Phone
		resp.DateOfBirth = a.Patient.DateOfBirth
		resp.Gender = a.Patient.Gender
		resp.AssignedDoctorID = a.Patient.AssignedDoctorID
	}
	return resp
}

// toSelfResponse picks the projection matching the account's role.
func toSelfResponse(a models.Account) any {
	if a.Role == models.RolePatient {
		return toPatientResponse(a)
	}
	return toAccountResponse(a)
}

func toAccountResponses(accounts []models.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return out
}

func toPatientResponses(accounts []models.Account) []patientResponse {
	out := make([]patientResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toPatientResponse(a))
	}
	return out
}

type reportResponse struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	DoctorID  string    `json:"doctorId"`
	Title     string    `json:"title"`
	Findings  string    `json:"findings"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReportResponse(r models.ImagingReport) reportResponse {
	return reportResponse{
		ID:        r.ID,
		PatientID: r.PatientID,
		DoctorID:  r.DoctorID,
		Title:     r.Title,
		Findings:  r.Findings,
		CreatedAt: r.CreatedAt,
	}
}
