package repository

import (
	"context"

	"github.com/Aaditya7171/event-platform/internal/domain"
)

// EventFilter narrows an event listing
type EventFilter struct {
	Status domain.EventStatus
	City   string
	Limit  int
	Offset int
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	// FindByURL retrieves an event by its originalUrl; nil when absent
	FindByURL(ctx context.Context, originalURL string) (*domain.Event, error)
	// GetByID retrieves an event by ID; nil when absent
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// Create inserts a new event; domain.ErrDuplicateURL when the key exists
	Create(ctx context.Context, event *domain.Event) error
	// Update writes mutable fields; domain.ErrEventNotFound when the id is unknown
	Update(ctx context.Context, event *domain.Event) error
	// List returns events ordered by datetime ascending, and the unpaged total
	List(ctx context.Context, filter EventFilter) ([]*domain.Event, int64, error)
}

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	// Create persists a lead; it returns only once the row is committed
	Create(ctx context.Context, lead *domain.Lead) error
	// ListByEvent returns leads for an event, newest first
	ListByEvent(ctx context.Context, eventID string) ([]*domain.Lead, error)
}
