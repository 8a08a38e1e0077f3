package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vainnor/ensemble-predict/types"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	fw := &fakeWriter{}
	p := &KafkaPublisher{w: fw, topic: "ensemble-sweeps"}

	ev := SweepEvent{
		ID:         "abc",
		Profile:    types.KindZPB,
		Parameters: types.ZeroPressureBalloon{AscentRate: 3.7, EquilibriumAltitude: 29000, EquilibriumHoldHours: 1, DescentRate: 15},
		FinishedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Successes:  []int{1, 2},
		Failures:   []int{3},
		Outcome:    "partial",
	}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(fw.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fw.msgs))
	}
	msg := fw.msgs[0]
	if string(msg.Key) != "abc" {
		t.Fatalf("unexpected key %q", msg.Key)
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["profile"] != "ZPB" || decoded["outcome"] != "partial" {
		t.Fatalf("unexpected payload: %s", msg.Value)
	}
	params, ok := decoded["parameters"].(map[string]any)
	if !ok || params["equil"] != 29000.0 {
		t.Fatalf("unexpected parameters: %v", decoded["parameters"])
	}

	if err := p.Close(); err != nil || !fw.closed {
		t.Fatalf("Close: %v", err)
	}
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{w: &fakeWriter{err: boom}, topic: "t"}
	if err := p.Publish(context.Background(), SweepEvent{ID: "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}
