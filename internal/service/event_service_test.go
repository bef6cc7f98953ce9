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

func seedEvent(t *testing.T, repo *repository.MemoryEventRepository, title, url string, at time.Time) *domain.Event {
	t.Helper()
	e, err := domain.NewEvent(domain.Sighting{
		Title:       title,
		OriginalURL: url,
		Source:      "TimeOut",
		City:        "Sydney",
		Datetime:    &at,
		SeenAt:      at,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func TestEventService_ImportEvent_Idempotent(t *testing.T) {
	events := repository.NewMemoryEventRepository()
	e := seedEvent(t, events, "Jazz", "https://example.com/jazz", time.Now())
	svc := NewEventService(events, repository.NewMemoryLeadRepository(), nil, nil)
	ctx := context.Background()

	first, err := svc.ImportEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusImported, first.Status)

	second, err := svc.ImportEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusImported, second.Status)

	stored, err := events.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusImported, stored.Status)
}

func TestEventService_ImportEvent_AlreadyImportedSkipsWrite(t *testing.T) {
	e := testEvent()
	e.Status = domain.EventStatusImported
	events := new(MockEventRepository)
	events.On("GetByID", mock.Anything, e.ID).Return(e, nil)

	svc := NewEventService(events, nil, nil, nil)
	got, err := svc.ImportEvent(context.Background(), e.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusImported, got.Status)
	events.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestEventService_ImportEvent_NotFound(t *testing.T) {
	svc := NewEventService(repository.NewMemoryEventRepository(), nil, nil, nil)

	_, err := svc.ImportEvent(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	_, err = svc.ImportEvent(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEventService_ImportEvent_UpdateError(t *testing.T) {
	e := testEvent()
	events := new(MockEventRepository)
	events.On("GetByID", mock.Anything, e.ID).Return(e, nil)
	events.On("Update", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc := NewEventService(events, nil, nil, nil)
	_, err := svc.ImportEvent(context.Background(), e.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestEventService_ListEvents(t *testing.T) {
	events := repository.NewMemoryEventRepository()
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	seedEvent(t, events, "Later", "https://example.com/later", base.Add(time.Hour))
	seedEvent(t, events, "Sooner", "https://example.com/sooner", base)
	svc := NewEventService(events, nil, nil, nil)

	list, total, err := svc.ListEvents(context.Background(), &dto.EventListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "Sooner", list[0].Title)

	_, _, err = svc.ListEvents(context.Background(), &dto.EventListFilter{Status: "archived"})
	assert.True(t, domain.IsValidationError(err))

	newOnly, _, err := svc.ListEvents(context.Background(), &dto.EventListFilter{Status: "NEW"})
	require.NoError(t, err)
	assert.Len(t, newOnly, 2)
}

func TestEventService_ListLeads(t *testing.T) {
	events := repository.NewMemoryEventRepository()
	leads := repository.NewMemoryLeadRepository()
	e := seedEvent(t, events, "Jazz", "https://example.com/jazz", time.Now())
	lead, err := domain.NewLead("viewer@example.com", true, e.ID)
	require.NoError(t, err)
	require.NoError(t, leads.Create(context.Background(), lead))

	svc := NewEventService(events, leads, nil, nil)

	got, err := svc.ListLeads(context.Background(), e.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, lead.ID, got[0].ID)

	_, err = svc.ListLeads(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}
