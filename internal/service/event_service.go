package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/Aaditya7171/event-platform/internal/dto"
	"github.com/Aaditya7171/event-platform/internal/keylock"
	"github.com/Aaditya7171/event-platform/internal/repository"
	"github.com/Aaditya7171/event-platform/pkg/logger"
	"github.com/Aaditya7171/event-platform/pkg/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventService defines the interface for event business logic
type EventService interface {
	// ListEvents lists events ordered by datetime ascending
	ListEvents(ctx context.Context, filter *dto.EventListFilter) ([]*domain.Event, int64, error)
	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	// ImportEvent marks an event imported; repeating it is a no-op success
	ImportEvent(ctx context.Context, id string) (*domain.Event, error)
	// ListLeads lists the leads captured for an event
	ListLeads(ctx context.Context, eventID string) ([]*domain.Lead, error)
}

// eventService implements EventService
type eventService struct {
	eventRepo repository.EventRepository
	leadRepo  repository.LeadRepository
	locker    keylock.Locker
	log       *logger.Logger
	now       func() time.Time
}

// NewEventService creates a new EventService. The locker must be the one the
// reconciler uses so an import never interleaves with a refresh of the same key.
func NewEventService(eventRepo repository.EventRepository, leadRepo repository.LeadRepository, locker keylock.Locker, log *logger.Logger) EventService {
	if locker == nil {
		locker = keylock.NewLocal()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &eventService{
		eventRepo: eventRepo,
		leadRepo:  leadRepo,
		locker:    locker,
		log:       log.Named("event-service"),
		now:       time.Now,
	}
}

// ListEvents lists events with filters and pagination
func (s *eventService) ListEvents(ctx context.Context, filter *dto.EventListFilter) ([]*domain.Event, int64, error) {
	filter.SetDefaults()

	repoFilter := repository.EventFilter{
		City:   filter.City,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if filter.Status != "" {
		status, err := domain.ParseEventStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		repoFilter.Status = status
	}

	return s.eventRepo.List(ctx, repoFilter)
}

// GetEvent retrieves an event by ID
func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrEventNotFound
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	return event, nil
}

// ImportEvent marks an event as imported
func (s *eventService) ImportEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "event.Import")
	defer span.End()
	span.SetAttributes(telemetry.EventIDAttr(id))

	event, err := s.GetEvent(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, event.OriginalURL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer unlock()

	// re-read under the lock; a concurrent refresh may have written since
	event, err = s.GetEvent(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	changed, err := event.Import(s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !changed {
		return event, nil
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("import event: %w", err)
	}

	s.log.InfoContext(ctx, "event imported",
		zap.String("event_id", event.ID),
		zap.String("original_url", event.OriginalURL),
	)
	return event, nil
}

// ListLeads lists the leads captured for an event
func (s *eventService) ListLeads(ctx context.Context, eventID string) ([]*domain.Lead, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.leadRepo.ListByEvent(ctx, eventID)
}
