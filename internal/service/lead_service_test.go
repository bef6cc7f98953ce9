package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/Aaditya7171/event-platform/internal/dto"
	"github.com/Aaditya7171/event-platform/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func testEvent() *domain.Event {
	return &domain.Event{
		ID:          uuid.NewString(),
		Title:       "Jazz Night",
		Source:      "TimeOut",
		OriginalURL: "https://example.com/events/jazz",
		Status:      domain.EventStatusNew,
	}
}

func TestLeadService_SubmitLead_Success(t *testing.T) {
	event := testEvent()
	events := new(MockEventRepository)
	leads := new(MockLeadRepository)
	pub := new(MockLeadPublisher)

	events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	leads.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.Lead) bool {
		return l.Email == "viewer@example.com" && l.Consent && l.EventID == event.ID
	})).Return(nil)
	pub.On("PublishLeadCaptured", mock.Anything, mock.AnythingOfType("*domain.Lead"), event).Return(nil)

	svc := NewLeadService(events, leads, pub, nil)
	resp, err := svc.SubmitLead(context.Background(), &dto.SubmitLeadRequest{
		Email:   "viewer@example.com",
		Consent: boolPtr(true),
		EventID: event.ID,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.LeadID)
	assert.Equal(t, "https://example.com/events/jazz", resp.RedirectURL)

	require.NoError(t, svc.Drain(context.Background()))
	leads.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestLeadService_SubmitLead_NoRedirectWhenStoreFails(t *testing.T) {
	event := testEvent()
	events := new(MockEventRepository)
	leads := new(MockLeadRepository)
	pub := new(MockLeadPublisher)

	events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	leads.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc := NewLeadService(events, leads, pub, nil)
	resp, err := svc.SubmitLead(context.Background(), &dto.SubmitLeadRequest{
		Email:   "viewer@example.com",
		Consent: boolPtr(true),
		EventID: event.ID,
	})

	require.Error(t, err)
	assert.Nil(t, resp)
	require.NoError(t, svc.Drain(context.Background()))
	pub.AssertNotCalled(t, "PublishLeadCaptured", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeadService_SubmitLead_PublishFailureKeepsRedirect(t *testing.T) {
	event := testEvent()
	events := new(MockEventRepository)
	leads := new(MockLeadRepository)
	pub := new(MockLeadPublisher)

	events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	leads.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishLeadCaptured", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewLeadService(events, leads, pub, nil)
	resp, err := svc.SubmitLead(context.Background(), &dto.SubmitLeadRequest{
		Email:   "viewer@example.com",
		Consent: boolPtr(false),
		EventID: event.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, event.OriginalURL, resp.RedirectURL)
	require.NoError(t, svc.Drain(context.Background()))
	pub.AssertExpectations(t)
}

func TestLeadService_SubmitLead_Rejections(t *testing.T) {
	existing := testEvent()
	missingID := uuid.NewString()

	tests := []struct {
		name        string
		req         *dto.SubmitLeadRequest
		wantNotFind bool
	}{
		{"empty email", &dto.SubmitLeadRequest{Email: "  ", Consent: boolPtr(true), EventID: existing.ID}, false},
		{"missing consent", &dto.SubmitLeadRequest{Email: "a@example.com", EventID: existing.ID}, false},
		{"missing event id", &dto.SubmitLeadRequest{Email: "a@example.com", Consent: boolPtr(true)}, false},
		{"unknown event", &dto.SubmitLeadRequest{Email: "a@example.com", Consent: boolPtr(true), EventID: missingID}, true},
		{"malformed event id", &dto.SubmitLeadRequest{Email: "a@example.com", Consent: boolPtr(true), EventID: "not-a-uuid"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := new(MockEventRepository)
			leads := new(MockLeadRepository)
			events.On("GetByID", mock.Anything, missingID).Return(nil, nil)

			svc := NewLeadService(events, leads, nil, nil)
			resp, err := svc.SubmitLead(context.Background(), tt.req)

			require.Error(t, err)
			assert.Nil(t, resp)
			if tt.wantNotFind {
				assert.ErrorIs(t, err, domain.ErrEventNotFound)
			} else {
				assert.True(t, domain.IsValidationError(err))
			}
			leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestLeadService_ResubmissionCreatesNewLead(t *testing.T) {
	events := repository.NewMemoryEventRepository()
	leads := repository.NewMemoryLeadRepository()
	ctx := context.Background()

	at := time.Now()
	event, err := domain.NewEvent(domain.Sighting{
		Title:       "Jazz Night",
		OriginalURL: "https://example.com/events/jazz",
		Source:      "TimeOut",
		SeenAt:      at,
	})
	require.NoError(t, err)
	require.NoError(t, events.Create(ctx, event))

	svc := NewLeadService(events, leads, nil, nil)
	req := &dto.SubmitLeadRequest{Email: "viewer@example.com", Consent: boolPtr(true), EventID: event.ID}

	first, err := svc.SubmitLead(ctx, req)
	require.NoError(t, err)
	second, err := svc.SubmitLead(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.LeadID, second.LeadID)

	stored, err := leads.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
