package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Aaditya7171/event-platform/internal/domain"
)

// MemoryEventRepository is an in-process EventRepository. Callers always get
// copies, so mutating a returned event never changes the stored one.
type MemoryEventRepository struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Event
	byURL map[string]string
}

// NewMemoryEventRepository creates an empty in-memory event store
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		byID:  make(map[string]*domain.Event),
		byURL: make(map[string]string),
	}
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

// FindByURL retrieves an event by its originalUrl
func (r *MemoryEventRepository) FindByURL(ctx context.Context, originalURL string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byURL[originalURL]
	if !ok {
		return nil, nil
	}
	return cloneEvent(r.byID[id]), nil
}

// GetByID retrieves an event by ID
func (r *MemoryEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneEvent(e), nil
}

// Create inserts a new event
func (r *MemoryEventRepository) Create(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byURL[event.OriginalURL]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateURL, event.OriginalURL)
	}
	r.byID[event.ID] = cloneEvent(event)
	r.byURL[event.OriginalURL] = event.ID
	return nil
}

// Update writes the mutable fields of an event
func (r *MemoryEventRepository) Update(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[event.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, event.ID)
	}
	stored.Title = event.Title
	stored.Datetime = event.Datetime
	stored.City = event.City
	stored.Status = event.Status
	stored.LastScrapedAt = event.LastScrapedAt
	stored.UpdatedAt = event.UpdatedAt
	return nil
}

// List returns events ordered by datetime ascending
func (r *MemoryEventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, int64, error) {
	r.mu.RLock()
	matched := make([]*domain.Event, 0, len(r.byID))
	for _, e := range r.byID {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.City != "" && !strings.EqualFold(e.City, filter.City) {
			continue
		}
		matched = append(matched, cloneEvent(e))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Datetime.Equal(matched[j].Datetime) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Datetime.Before(matched[j].Datetime)
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []*domain.Event{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

// Len returns the number of stored events
func (r *MemoryEventRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// MemoryLeadRepository is an in-process LeadRepository
type MemoryLeadRepository struct {
	mu    sync.RWMutex
	leads []*domain.Lead
}

// NewMemoryLeadRepository creates an empty in-memory lead store
func NewMemoryLeadRepository() *MemoryLeadRepository {
	return &MemoryLeadRepository{}
}

// Create appends a lead
func (r *MemoryLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	c := *lead
	r.mu.Lock()
	r.leads = append(r.leads, &c)
	r.mu.Unlock()
	return nil
}

// ListByEvent returns leads for an event, newest first
func (r *MemoryLeadRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	leads := make([]*domain.Lead, 0)
	for i := len(r.leads) - 1; i >= 0; i-- {
		if r.leads[i].EventID == eventID {
			c := *r.leads[i]
			leads = append(leads, &c)
		}
	}
	return leads, nil
}
