package publisher_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-bridge/internal/kafka/publisher"
	"github.com/example/whatsapp-bridge/internal/models"
)

type fakeProducer struct {
	topic   string
	key     []byte
	headers map[string][]byte
	payload []byte
	err     error
}

func (f *fakeProducer) PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error {
	f.topic = topic
	f.key = key
	f.headers = headers
	f.payload = payload
	return f.err
}

func TestPublishEvent(t *testing.T) {
	prod := &fakeProducer{}
	pub := publisher.NewEventPublisher(prod, "bridge.dispatch.events", zerolog.Nop())
	if pub == nil {
		t.Fatalf("expected a publisher instance")
	}

	event := models.DispatchEvent{
		EventID:   "evt-1",
		MessageID: "wamid.1",
		From:      "15551234567",
		EventType: models.EventTypeSent,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	if err := pub.PublishEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	if prod.topic != "bridge.dispatch.events" {
		t.Fatalf("topic = %q, want bridge.dispatch.events", prod.topic)
	}
	if string(prod.key) != "evt-1" {
		t.Fatalf("key = %q, want the event id", prod.key)
	}
	if got := string(prod.headers["content-type"]); got != "application/json" {
		t.Fatalf("content-type header = %q", got)
	}

	var decoded models.DispatchEvent
	if err := json.Unmarshal(prod.payload, &decoded); err != nil {
		t.Fatalf("payload does not decode: %v", err)
	}
	if decoded.EventType != models.EventTypeSent || decoded.MessageID != "wamid.1" {
		t.Fatalf("unexpected decoded event: %+v", decoded)
	}
}

func TestPublishEventProducerError(t *testing.T) {
	prod := &fakeProducer{err: errors.New("broker down")}
	pub := publisher.NewEventPublisher(prod, "topic", zerolog.Nop())

	if err := pub.PublishEvent(context.Background(), models.DispatchEvent{EventID: "evt-1"}); err == nil {
		t.Fatalf("expected error from failing producer")
	}
}

func TestNewEventPublisherNilProducer(t *testing.T) {
	if pub := publisher.NewEventPublisher(nil, "topic", zerolog.Nop()); pub != nil {
		t.Fatalf("expected nil publisher for nil producer")
	}

	var pub *publisher.EventPublisher
	err := pub.PublishEvent(context.Background(), models.DispatchEvent{})
	if !errors.Is(err, publisher.ErrProducerNotInitialised()) {
		t.Fatalf("expected not-initialised sentinel, got %v", err)
	}
}
