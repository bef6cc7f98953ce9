package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/Aaditya7171/event-platform/pkg/kafka"
)

// LeadCapturedType is the message type header for captured leads
const LeadCapturedType = "lead.captured"

// LeadPublisher announces captured leads to downstream consumers
type LeadPublisher interface {
	PublishLeadCaptured(ctx context.Context, lead *domain.Lead, event *domain.Event) error
}

// LeadCapturedMessage is the payload of a lead.captured record
type LeadCapturedMessage struct {
	Type        string    `json:"type"`
	LeadID      string    `json:"leadId"`
	EventID     string    `json:"eventId"`
	Email       string    `json:"email"`
	Consent     bool      `json:"consent"`
	OriginalURL string    `json:"originalUrl"`
	EventTitle  string    `json:"eventTitle"`
	CapturedAt  time.Time `json:"capturedAt"`
}

// Producer is the subset of the Kafka producer used here
type Producer interface {
	Produce(ctx context.Context, msg *kafka.Message) error
}

// KafkaLeadPublisher writes lead.captured records keyed by event id
type KafkaLeadPublisher struct {
	producer Producer
	topic    string
}

// NewKafkaLeadPublisher creates a publisher for topic
func NewKafkaLeadPublisher(producer Producer, topic string) *KafkaLeadPublisher {
	return &KafkaLeadPublisher{producer: producer, topic: topic}
}

// PublishLeadCaptured produces one record for the lead
func (p *KafkaLeadPublisher) PublishLeadCaptured(ctx context.Context, lead *domain.Lead, event *domain.Event) error {
	value, err := json.Marshal(LeadCapturedMessage{
		Type:        LeadCapturedType,
		LeadID:      lead.ID,
		EventID:     lead.EventID,
		Email:       lead.Email,
		Consent:     lead.Consent,
		OriginalURL: event.OriginalURL,
		EventTitle:  event.Title,
		CapturedAt:  lead.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal lead message: %w", err)
	}

	return p.producer.Produce(ctx, &kafka.Message{
		Topic: p.topic,
		Key:   lead.EventID,
		Value: value,
		Headers: map[string]string{
			"type": LeadCapturedType,
		},
	})
}

// NoopLeadPublisher discards messages; used when Kafka is disabled
type NoopLeadPublisher struct{}

func (NoopLeadPublisher) PublishLeadCaptured(context.Context, *domain.Lead, *domain.Event) error {
	return nil
}
