// Package events announces accepted registrations to downstream consumers.
//
// Delivery is best effort: a failed publish is logged and counted, and the
// submission it describes still succeeds.
package events

import (
	"context"
	"time"

	"udyam/internal/registration/models"
)

// TypeSubmissionCreated names the event emitted after a record is stored.
const TypeSubmissionCreated = "submission.created"

// SubmissionCreated is the event payload. It never carries the Aadhaar
// number, OTP, PAN or mobile number of the applicant.
type SubmissionCreated struct {
	Type               string         `json:"type"`
	SubmissionID       string         `json:"submissionId"`
	RegistrationNumber string         `json:"registrationNumber"`
	Name               string         `json:"name"`
	Email              string         `json:"email"`
	OrgType            models.OrgType `json:"orgType"`
	IncorporationDate  string         `json:"incDate"`
	Pincode            string         `json:"pincode,omitempty"`
	City               string         `json:"city,omitempty"`
	State              string         `json:"state,omitempty"`
	Status             models.Status  `json:"status"`
	SubmittedAt        time.Time      `json:"submittedAt"`
	RequestID          string         `json:"requestId,omitempty"`
}

// NewSubmissionCreated builds the event for rec.
func NewSubmissionCreated(rec *models.SubmissionRecord, requestID string) SubmissionCreated {
	return SubmissionCreated{
		Type:               TypeSubmissionCreated,
		SubmissionID:       rec.ID,
		RegistrationNumber: rec.RegistrationNumber,
		Name:               rec.Name,
		Email:              rec.Email,
		OrgType:            rec.OrgType,
		IncorporationDate:  models.FormatDate(rec.IncorporationDate),
		Pincode:            rec.Pincode,
		City:               rec.City,
		State:              rec.State,
		Status:             rec.Status,
		SubmittedAt:        rec.SubmittedAt,
		RequestID:          requestID,
	}
}

// Publisher delivers submission events.
type Publisher interface {
	PublishSubmissionCreated(ctx context.Context, event SubmissionCreated) error
	Close() error
}
