package types

import (
	"encoding/json"
	"time"
)

// ResultStatus is a stage in the result release pipeline
type ResultStatus string

const (
	ResultPending    ResultStatus = "pending"
	ResultInProgress ResultStatus = "in_progress"
	ResultCompleted  ResultStatus = "completed"
	ResultReviewed   ResultStatus = "reviewed"
	ResultReleased   ResultStatus = "released"
)

// TestResult holds the outcome of an appointment's tests
type TestResult struct {
	ID               string          `json:"id" db:"id"`
	AppointmentID    string          `json:"appointment_id" db:"appointment_id"`
	PatientID        string          `json:"patient_id" db:"patient_id"`
	Status           ResultStatus    `json:"status" db:"status"`
	ResultText       string          `json:"result_text" db:"result_text"`
	ResultData       json.RawMessage `json:"result_data,omitempty" db:"result_data"`
	IsNormal         *bool           `json:"is_normal,omitempty" db:"is_normal"`
	AbnormalFindings string          `json:"abnormal_findings,omitempty" db:"abnormal_findings"`
	Recommendations  string          `json:"recommendations,omitempty" db:"recommendations"`
	TechnicianNotes  string          `json:"technician_notes,omitempty" db:"technician_notes"`
	DoctorNotes      string          `json:"doctor_notes,omitempty" db:"doctor_notes"`
	ProcessedBy      string          `json:"processed_by,omitempty" db:"processed_by"`
	ReviewedBy       string          `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReleasedAt       *time.Time      `json:"released_at,omitempty" db:"released_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// VisibleToPatient reports whether the owning patient may see the result.
func (r *TestResult) VisibleToPatient() bool {
	return r.Status == ResultReleased
}

// ResultContentRequest attaches findings to a result
type ResultContentRequest struct {
	ResultText       string          `json:"result_text" validate:"max=10000"`
	ResultData       json.RawMessage `json:"result_data,omitempty"`
	IsNormal         *bool           `json:"is_normal,omitempty"`
	AbnormalFindings string          `json:"abnormal_findings"`
	Recommendations  string          `json:"recommendations"`
	TechnicianNotes  string          `json:"technician_notes"`
	DoctorNotes      string          `json:"doctor_notes"`
}

// AdvanceRequest moves a result to its next stage
type AdvanceRequest struct {
	Status ResultStatus `json:"status" validate:"required,oneof=pending in_progress completed reviewed released"`
}
