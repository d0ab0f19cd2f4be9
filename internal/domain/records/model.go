package records

import (
	"fmt"
	"regexp"
)

// Age bounds admitted by the service.
const (
	MinAge = 0
	MaxAge = 120
)

// admissionDateRE checks shape only (YYYY-MM-DD); no calendar validation.
var admissionDateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// PatientRecord maps to the patient_records table (or bucket). Records are
// append-only: once persisted, a row is never updated or deleted by this
// service, and its id is never reused.
type PatientRecord struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Age           int    `db:"age" json:"age"`
	Condition     string `db:"condition" json:"condition"`
	AdmissionDate string `db:"admission_date" json:"admission_date"`
}

// CreatePatientRequest is the create-endpoint payload. Pointer fields
// distinguish a missing key from a zero value (age 0 is valid). There is no
// id field: identifiers are store-assigned and never accepted from callers.
type CreatePatientRequest struct {
	Name          *string `json:"name"`
	Age           *int    `json:"age"`
	Condition     *string `json:"condition"`
	AdmissionDate *string `json:"admission_date"`
}

// validateRecord applies the semantic rules shared by the create endpoint
// and the seed loader. Structural (presence/type) checks happen earlier, at
// the decode boundary.
func validateRecord(name string, age int, admissionDate string) *ValidationError {
	if name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if age < MinAge || age > MaxAge {
		return &ValidationError{Field: "age", Reason: fmt.Sprintf("must be between %d and %d", MinAge, MaxAge)}
	}
	if !admissionDateRE.MatchString(admissionDate) {
		return &ValidationError{Field: "admission_date", Reason: "must be a YYYY-MM-DD date string"}
	}
	return nil
}
