package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/Aaditya7171/event-platform/internal/dto"
	"github.com/Aaditya7171/event-platform/internal/publisher"
	"github.com/Aaditya7171/event-platform/internal/repository"
	"github.com/Aaditya7171/event-platform/pkg/logger"
	"github.com/Aaditya7171/event-platform/pkg/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// LeadService defines the interface for the lead gate
type LeadService interface {
	// SubmitLead records a lead and returns the event's original listing URL.
	// No redirect is returned unless the lead was stored.
	SubmitLead(ctx context.Context, req *dto.SubmitLeadRequest) (*dto.SubmitLeadResponse, error)
	// Drain waits for pending lead notifications or until ctx is done
	Drain(ctx context.Context) error
}

// leadService implements LeadService
type leadService struct {
	eventRepo repository.EventRepository
	leadRepo  repository.LeadRepository
	publisher publisher.LeadPublisher
	log       *logger.Logger
	captured  *telemetry.Counter
	pending   sync.WaitGroup
}

// NewLeadService creates a new LeadService
func NewLeadService(eventRepo repository.EventRepository, leadRepo repository.LeadRepository, pub publisher.LeadPublisher, log *logger.Logger) LeadService {
	if pub == nil {
		pub = publisher.NoopLeadPublisher{}
	}
	if log == nil {
		log = logger.NewNop()
	}

	captured, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "leads_captured_total",
		Description: "Leads recorded by the lead gate",
		Unit:        "{lead}",
	})
	if err != nil {
		log.Warn("failed to create leads counter", zap.Error(err))
	}

	return &leadService{
		eventRepo: eventRepo,
		leadRepo:  leadRepo,
		publisher: pub,
		log:       log.Named("lead-service"),
		captured:  captured,
	}
}

// SubmitLead validates, checks the event, stores the lead, then authorizes the redirect
func (s *leadService) SubmitLead(ctx context.Context, req *dto.SubmitLeadRequest) (*dto.SubmitLeadResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "lead.Submit")
	defer span.End()

	if req.Consent == nil {
		return nil, &domain.ValidationError{Field: "consent", Message: "is required"}
	}
	lead, err := domain.NewLead(req.Email, *req.Consent, req.EventID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.EventIDAttr(lead.EventID))

	if _, err := uuid.Parse(lead.EventID); err != nil {
		return nil, domain.ErrEventNotFound
	}
	event, err := s.eventRepo.GetByID(ctx, lead.EventID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("lookup event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		telemetry.RecordError(span, err)
		s.log.ErrorContext(ctx, "failed to store lead", zap.String("event_id", lead.EventID), zap.Error(err))
		return nil, fmt.Errorf("store lead: %w", err)
	}
	s.captured.Inc(ctx, telemetry.StatusAttr(string(event.Status)))

	s.publish(ctx, lead, event)

	return &dto.SubmitLeadResponse{
		LeadID:      lead.ID,
		RedirectURL: event.OriginalURL,
	}, nil
}

// publish sends the notification in the background; the lead is already stored
func (s *leadService) publish(ctx context.Context, lead *domain.Lead, event *domain.Event) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := s.publisher.PublishLeadCaptured(pubCtx, lead, event); err != nil {
			s.log.WarnContext(pubCtx, "failed to publish lead",
				zap.String("lead_id", lead.ID),
				zap.Error(err),
			)
		}
	}()
}

// Drain waits for in-flight notifications
func (s *leadService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
