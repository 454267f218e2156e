package models

import "time"

// ImagingReport is the illustrative in-memory side feature: a textual
// report a doctor files for an assigned patient. Reports are not
// persisted to the record store.
type ImagingReport struct {
	ID        string
	PatientID string
	DoctorID  string
	Title     string
	Findings  string
	CreatedAt time.Time
}
