package dto

import (
	"time"

	"github.com/Aaditya7171/event-platform/internal/domain"
)

// SubmitLeadRequest is the body of a lead submission.
// Consent is a pointer so an omitted field is rejected rather than read as false.
type SubmitLeadRequest struct {
	Email   string `json:"email" binding:"required,email,max=320"`
	Consent *bool  `json:"consent" binding:"required"`
	EventID string `json:"eventId" binding:"required"`
}

// SubmitLeadResponse carries the recorded lead and where to send the viewer
type SubmitLeadResponse struct {
	LeadID      string `json:"leadId"`
	RedirectURL string `json:"redirectUrl"`
}

// LeadResponse represents a captured lead
type LeadResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Consent   bool      `json:"consent"`
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewLeadListResponse converts domain leads
func NewLeadListResponse(leads []*domain.Lead) []*LeadResponse {
	out := make([]*LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, &LeadResponse{
			ID:        l.ID,
			Email:     l.Email,
			Consent:   l.Consent,
			EventID:   l.EventID,
			CreatedAt: l.CreatedAt,
		})
	}
	return out
}
