package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead is a contact captured before revealing an event's original listing.
// Leads are never mutated or deleted.
type Lead struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Consent   bool      `json:"consent"`
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewLead validates and builds a lead
func NewLead(email string, consent bool, eventID string) (*Lead, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "is required"}
	}
	if len(email) > 320 {
		return nil, &ValidationError{Field: "email", Message: "is too long"}
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, &ValidationError{Field: "eventId", Message: "is required"}
	}

	return &Lead{
		ID:        uuid.New().String(),
		Email:     email,
		Consent:   consent,
		EventID:   eventID,
		CreatedAt: time.Now(),
	}, nil
}
