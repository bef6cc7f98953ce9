package service

import (
	"context"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/Aaditya7171/event-platform/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) FindByURL(ctx context.Context, originalURL string) (*domain.Event, error) {
	args := m.Called(ctx, originalURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventRepository) Update(ctx context.Context, event *domain.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventRepository) List(ctx context.Context, filter repository.EventFilter) ([]*domain.Event, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Event), args.Get(1).(int64), args.Error(2)
}

// MockLeadRepository is a mock implementation of repository.LeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockLeadRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Lead, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Lead), args.Error(1)
}

// MockLeadPublisher is a mock implementation of publisher.LeadPublisher
type MockLeadPublisher struct {
	mock.Mock
}

func (m *MockLeadPublisher) PublishLeadCaptured(ctx context.Context, lead *domain.Lead, event *domain.Event) error {
	return m.Called(ctx, lead, event).Error(0)
}
