package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Status captures the lifecycle stage of an admission application.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusReviewing Status = "Reviewing"
	StatusAccepted  Status = "Accepted"
	StatusRejected  Status = "Rejected"
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusReviewing, StatusAccepted, StatusRejected:
		return Status(raw), nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Terminal reports whether the status is a decision state.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// TrackingStep maps a status onto the applicant-facing checklist index:
// submitted (0), under review (1), decision made (2).
func (s Status) TrackingStep() int {
	switch s {
	case StatusReviewing:
		return 1
	case StatusAccepted, StatusRejected:
		return 2
	default:
		return 0
	}
}

// Document records uploaded file metadata. File contents are never persisted.
type Document struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Documents is the JSONB-persisted list of document metadata.
type Documents []Document

// Value marshals documents to JSON for persistence.
func (d Documents) Value() (driver.Value, error) {
	if d == nil {
		d = Documents{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal documents: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the documents slice.
func (d *Documents) Scan(value interface{}) error {
	if value == nil {
		*d = Documents{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Documents", value)
	}
	if len(data) == 0 {
		*d = Documents{}
		return nil
	}
	if err := json.Unmarshal(data, d); err != nil {
		return fmt.Errorf("unmarshal documents: %w", err)
	}
	return nil
}

// Application represents a persisted admission application record.
type Application struct {
	Seq           int64      `db:"seq" json:"-"`
	ID            string     `db:"id" json:"id"`
	FullName      string     `db:"full_name" json:"fullName"`
	Email         string     `db:"email" json:"email"`
	Phone         string     `db:"phone" json:"phone"`
	DateOfBirth   string     `db:"date_of_birth" json:"dateOfBirth"`
	Address       string     `db:"address" json:"address"`
	City          string     `db:"city" json:"city"`
	Country       string     `db:"country" json:"country"`
	PostalCode    string     `db:"postal_code" json:"postalCode"`
	Course        string     `db:"course" json:"course"`
	Degree        string     `db:"degree" json:"degree"`
	Qualification string     `db:"qualification" json:"qualification"`
	GPA           string     `db:"gpa" json:"gpa"`
	Statement     string     `db:"statement" json:"statement"`
	Documents     Documents  `db:"documents" json:"documents"`
	Status        Status     `db:"status" json:"status"`
	DateApplied   time.Time  `db:"date_applied" json:"dateApplied"`
	DateUpdated   *time.Time `db:"date_updated" json:"dateUpdated,omitempty"`
}

// SubmitApplicationRequest is the applicant-facing submission payload.
type SubmitApplicationRequest struct {
	FullName      string     `json:"fullName" validate:"required"`
	Email         string     `json:"email" validate:"required,email"`
	Phone         string     `json:"phone" validate:"required"`
	DateOfBirth   string     `json:"dateOfBirth" validate:"required"`
	Address       string     `json:"address" validate:"required"`
	City          string     `json:"city" validate:"required"`
	Country       string     `json:"country" validate:"required"`
	PostalCode    string     `json:"postalCode" validate:"required"`
	Course        string     `json:"course" validate:"required"`
	Degree        string     `json:"degree" validate:"required"`
	Qualification string     `json:"qualification" validate:"required"`
	GPA           string     `json:"gpa" validate:"required"`
	Statement     string     `json:"statement" validate:"required"`
	Documents     []Document `json:"documents"`
}

// TrackingResult pairs a record with its applicant-facing progress step.
type TrackingResult struct {
	Application *Application `json:"application"`
	Step        int          `json:"step"`
}

// ApplicationFilter captures admin listing criteria.
type ApplicationFilter struct {
	Search   string
	Status   string
	Course   string
	Page     int
	PageSize int
}

// CourseCount aggregates applications per course.
type CourseCount struct {
	Course string `db:"course" json:"course"`
	Count  int    `db:"count" json:"count"`
}

// MonthlyCount aggregates applications per submission month (YYYY-MM).
type MonthlyCount struct {
	Month string `db:"month" json:"month"`
	Count int    `db:"count" json:"count"`
}

// DashboardStats is the admin dashboard payload.
type DashboardStats struct {
	Total     int            `json:"total"`
	Pending   int            `json:"pending"`
	Reviewing int            `json:"reviewing"`
	Accepted  int            `json:"accepted"`
	Rejected  int            `json:"rejected"`
	Courses   []CourseCount  `json:"courses"`
	Monthly   []MonthlyCount `json:"monthly"`
}
