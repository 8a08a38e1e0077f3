// Package events publishes a summary of every finished ensemble sweep.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/vainnor/ensemble-predict/types"
)

// SweepEvent summarizes one sweep.
type SweepEvent struct {
	ID         string              `json:"id"`
	Profile    types.ProfileKind   `json:"profile"`
	Parameters types.FlightProfile `json:"parameters"`
	Launch     types.Launch        `json:"launch"`
	Mission    string              `json:"mission,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Successes  []int               `json:"successes"`
	Failures   []int               `json:"failures"`
	Outcome    string              `json:"outcome"`
}

type Publisher interface {
	Publish(ctx context.Context, ev SweepEvent) error
	Close() error
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, SweepEvent) error { return nil }
func (Nop) Close() error                              { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by sweep ID.
type KafkaPublisher struct {
	w     messageWriter
	topic string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("Kafka sweep publisher wired")
	return &KafkaPublisher{w: w, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev SweepEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode sweep event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.ID),
		Value: b,
		Time:  ev.FinishedAt,
		Headers: []kafka.Header{
			{Key: "profile", Value: []byte(ev.Profile.String())},
			{Key: "outcome", Value: []byte(ev.Outcome)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish sweep %s to %s: %w", ev.ID, p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
