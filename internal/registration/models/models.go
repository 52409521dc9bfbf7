package models

import "time"

// OrgType is the closed set of organisation types a business may register as.
type OrgType string

const (
	OrgTypeProprietorship OrgType = "Proprietorship"
	OrgTypePartnership    OrgType = "Partnership"
	OrgTypePrivateLimited OrgType = "Private Limited"
	OrgTypeLLP            OrgType = "LLP"
)

// OrgTypes lists the accepted organisation types in display order.
var OrgTypes = []OrgType{OrgTypeProprietorship, OrgTypePartnership, OrgTypePrivateLimited, OrgTypeLLP}

// IsValid checks if the organisation type is one of the supported enum values.
func (o OrgType) IsValid() bool {
	switch o {
	case OrgTypeProprietorship, OrgTypePartnership, OrgTypePrivateLimited, OrgTypeLLP:
		return true
	}
	return false
}

// Status of a submission. Every submission starts and currently stays
// pending: approving or rejecting is not exposed by any endpoint yet, and a
// transition method on this type is where that workflow would hook in.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// FormInput is the raw, untrusted registration payload. Keys that are not
// listed here are dropped while decoding, and a listed key holding anything
// other than a string or null is remembered as mistyped instead of failing
// the whole body.
type FormInput struct {
	// Step 1: applicant identity
	Aadhaar string `json:"aadhaar"`
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email"`
	OTP     string `json:"otp"`

	// Step 2: business identity
	PAN     string `json:"pan"`
	PANName string `json:"panName"`
	OrgType string `json:"orgType"`
	IncDate string `json:"incDate"`

	Pincode string `json:"pincode,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`

	mistyped []string
}

// ValidatedForm is a FormInput that passed every field rule.
type ValidatedForm struct {
	Aadhaar           string    `json:"aadhaar"`
	Name              string    `json:"name"`
	Mobile            string    `json:"mobile"`
	Email             string    `json:"email"`
	OTP               string    `json:"otp"`
	PAN               string    `json:"pan"`
	PANName           string    `json:"panName"`
	OrgType           OrgType   `json:"orgType"`
	IncorporationDate time.Time `json:"incDate"`
	Pincode           string    `json:"pincode,omitempty"`
	City              string    `json:"city,omitempty"`
	State             string    `json:"state,omitempty"`
}

// SubmissionRecord is an accepted submission. Records are immutable once stored.
type SubmissionRecord struct {
	ValidatedForm
	ID                 string    `json:"id"`
	RegistrationNumber string    `json:"registrationNumber"`
	SubmittedAt        time.Time `json:"submittedAt"`
	Status             Status    `json:"status"`
}

// SubmissionView is the listing projection. It never carries aadhaar, otp or pan.
type SubmissionView struct {
	ID                 string    `json:"id"`
	RegistrationNumber string    `json:"registrationNumber"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	OrgType            OrgType   `json:"orgType"`
	Status             Status    `json:"status"`
	SubmittedAt        time.Time `json:"submittedAt"`
}

// View projects the record onto its sanitized listing form.
func (r *SubmissionRecord) View() SubmissionView {
	return SubmissionView{
		ID:                 r.ID,
		RegistrationNumber: r.RegistrationNumber,
		Name:               r.Name,
		Email:              r.Email,
		OrgType:            r.OrgType,
		Status:             r.Status,
		SubmittedAt:        r.SubmittedAt,
	}
}

// Views projects a slice of records, preserving order.
func Views(records []SubmissionRecord) []SubmissionView {
	out := make([]SubmissionView, 0, len(records))
	for i := range records {
		out = append(out, records[i].View())
	}
	return out
}

// Stats counts submissions by status. Total is always the sum of the others.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// FormatDate renders t as a calendar date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
