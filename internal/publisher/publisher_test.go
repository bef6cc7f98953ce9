package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/Aaditya7171/event-platform/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	messages []*kafka.Message
	err      error
}

func (p *recordingProducer) Produce(ctx context.Context, msg *kafka.Message) error {
	p.messages = append(p.messages, msg)
	return p.err
}

func TestKafkaLeadPublisher_Publish(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewKafkaLeadPublisher(producer, "event-platform.leads")

	lead := &domain.Lead{
		ID:        "lead-1",
		Email:     "viewer@example.com",
		Consent:   true,
		EventID:   "event-1",
		CreatedAt: time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
	}
	event := &domain.Event{ID: "event-1", Title: "Jazz Night", OriginalURL: "https://example.com/events/jazz"}

	require.NoError(t, pub.PublishLeadCaptured(context.Background(), lead, event))
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	assert.Equal(t, "event-platform.leads", msg.Topic)
	assert.Equal(t, "event-1", msg.Key)
	assert.Equal(t, LeadCapturedType, msg.Headers["type"])

	var payload LeadCapturedMessage
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "lead-1", payload.LeadID)
	assert.Equal(t, "https://example.com/events/jazz", payload.OriginalURL)
	assert.True(t, payload.Consent)
}

func TestKafkaLeadPublisher_ProducerError(t *testing.T) {
	producer := &recordingProducer{err: errors.New("broker unavailable")}
	pub := NewKafkaLeadPublisher(producer, "leads")

	err := pub.PublishLeadCaptured(context.Background(), &domain.Lead{ID: "l"}, &domain.Event{})
	assert.EqualError(t, err, "broker unavailable")
}

func TestNoopLeadPublisher(t *testing.T) {
	var pub LeadPublisher = NoopLeadPublisher{}
	assert.NoError(t, pub.PublishLeadCaptured(context.Background(), &domain.Lead{}, &domain.Event{}))
}
