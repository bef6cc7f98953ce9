package dto

import (
	"time"

	"github.com/Aaditya7171/event-platform/internal/domain"
)

// EventListFilter represents filters for listing events
type EventListFilter struct {
	Status string `form:"status"`
	City   string `form:"city"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// SetDefaults sets default values for pagination
func (f *EventListFilter) SetDefaults() {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// EventResponse represents the response for an event
type EventResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Datetime      time.Time `json:"datetime"`
	Source        string    `json:"source"`
	OriginalURL   string    `json:"originalUrl"`
	City          string    `json:"city"`
	Status        string    `json:"status"`
	LastScrapedAt time.Time `json:"lastScrapedAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewEventResponse converts a domain event
func NewEventResponse(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:            e.ID,
		Title:         e.Title,
		Datetime:      e.Datetime,
		Source:        e.Source,
		OriginalURL:   e.OriginalURL,
		City:          e.City,
		Status:        string(e.Status),
		LastScrapedAt: e.LastScrapedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// NewEventListResponse converts a page of domain events
func NewEventListResponse(events []*domain.Event) []*EventResponse {
	out := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, NewEventResponse(e))
	}
	return out
}
