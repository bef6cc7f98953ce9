package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of a canonical event
type EventStatus string

const (
	EventStatusNew      EventStatus = "new"
	EventStatusUpdated  EventStatus = "updated"
	EventStatusImported EventStatus = "imported"
	EventStatusInactive EventStatus = "inactive"
)

// Trigger is what causes a status change
type Trigger string

const (
	// TriggerResighting is a scrape run seeing an existing listing again
	TriggerResighting Trigger = "resighting"
	// TriggerImport is an explicit operator import
	TriggerImport Trigger = "import"
	// TriggerSweep marks a listing as gone from the source
	TriggerSweep Trigger = "sweep"
)

// validTransitions defines allowed status changes.
// Nothing transitions into new; new is only assigned on creation.
var validTransitions = map[EventStatus][]EventStatus{
	EventStatusNew:      {EventStatusUpdated, EventStatusImported, EventStatusInactive},
	EventStatusUpdated:  {EventStatusUpdated, EventStatusImported, EventStatusInactive},
	EventStatusImported: {EventStatusImported, EventStatusInactive},
	EventStatusInactive: {EventStatusInactive, EventStatusImported},
}

// IsValid returns true if s is a known status
func (s EventStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsOperatorAssigned reports whether the status was set outside the scrape path
// and must survive re-sightings
func (s EventStatus) IsOperatorAssigned() bool {
	return s == EventStatusImported || s == EventStatusInactive
}

// CanTransitionTo returns true if moving from s to target is allowed
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Next returns the status that results from applying trigger to s
func (s EventStatus) Next(trigger Trigger) (EventStatus, error) {
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, s)
	}

	var target EventStatus
	switch trigger {
	case TriggerResighting:
		if s.IsOperatorAssigned() {
			return s, nil
		}
		target = EventStatusUpdated
	case TriggerImport:
		target = EventStatusImported
	case TriggerSweep:
		target = EventStatusInactive
	default:
		return "", fmt.Errorf("%w: unknown trigger %q", ErrInvalidTransition, trigger)
	}

	if !s.CanTransitionTo(target) {
		return "", fmt.Errorf("%w: %s via %s", ErrInvalidTransition, s, trigger)
	}
	return target, nil
}

// ParseEventStatus validates a status string
func ParseEventStatus(s string) (EventStatus, error) {
	status := EventStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
	}
	return status, nil
}

// Event is the canonical record of one external listing.
// OriginalURL is its identity key.
type Event struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Datetime      time.Time   `json:"datetime"`
	Source        string      `json:"source"`
	OriginalURL   string      `json:"originalUrl"`
	City          string      `json:"city"`
	Status        EventStatus `json:"status"`
	LastScrapedAt time.Time   `json:"lastScrapedAt"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Sighting is one observation of a listing by a scrape run
type Sighting struct {
	Title       string
	OriginalURL string
	Source      string
	City        string
	// Datetime is the listing's own time when the page carries one
	Datetime *time.Time
	SeenAt   time.Time
}

// NewEvent creates an event with status new from its first sighting
func NewEvent(s Sighting) (*Event, error) {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(s.OriginalURL) == "" {
		return nil, &ValidationError{Field: "originalUrl", Message: "is required"}
	}
	if s.Source == "" {
		return nil, &ValidationError{Field: "source", Message: "is required"}
	}

	seenAt := s.SeenAt
	if seenAt.IsZero() {
		seenAt = time.Now()
	}
	datetime := seenAt
	if s.Datetime != nil {
		datetime = *s.Datetime
	}

	return &Event{
		ID:            uuid.New().String(),
		Title:         title,
		Datetime:      datetime,
		Source:        s.Source,
		OriginalURL:   s.OriginalURL,
		City:          s.City,
		Status:        EventStatusNew,
		LastScrapedAt: seenAt,
		CreatedAt:     seenAt,
		UpdatedAt:     seenAt,
	}, nil
}

// Refresh applies a re-sighting. Source and id never change; the status
// only advances when it was not assigned by an operator.
func (e *Event) Refresh(s Sighting) error {
	next, err := e.Status.Next(TriggerResighting)
	if err != nil {
		return err
	}

	if title := strings.TrimSpace(s.Title); title != "" {
		e.Title = title
	}
	if s.City != "" {
		e.City = s.City
	}
	if s.Datetime != nil {
		e.Datetime = *s.Datetime
	}

	seenAt := s.SeenAt
	if seenAt.IsZero() {
		seenAt = time.Now()
	}
	e.Status = next
	e.LastScrapedAt = seenAt
	e.UpdatedAt = seenAt
	return nil
}

// Import marks the event as imported. It returns false when it already was.
func (e *Event) Import(at time.Time) (bool, error) {
	if e.Status == EventStatusImported {
		return false, nil
	}
	next, err := e.Status.Next(TriggerImport)
	if err != nil {
		return false, err
	}
	e.Status = next
	e.UpdatedAt = at
	return true, nil
}
