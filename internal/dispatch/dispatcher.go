// Package dispatch runs the detached reply pipeline: resolve a reply for an
// inbound message and send it through the Graph gateway, decoupled from the
// webhook acknowledgment path.
package dispatch

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/example/whatsapp-bridge/internal/graph"
	"github.com/example/whatsapp-bridge/internal/models"
)

// Gateway is the outbound send surface the dispatcher depends on.
type Gateway interface {
	SendText(ctx context.Context, to, body string) (*graph.SendResult, error)
	MarkRead(ctx context.Context, messageID string) error
}

// ResolveFunc derives the reply body for an inbound message text.
type ResolveFunc func(text string) string

// EventPublisher emits dispatch lifecycle events to an external diagnostics
// sink. Implementations must tolerate concurrent calls.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event models.DispatchEvent) error
}

// Config bounds the detached work spawned per inbound message.
type Config struct {
	SendTimeout time.Duration
	Concurrency int
	MarkAsRead  bool
}

// Dependencies collects the runtime collaborators required by the dispatcher.
// Publisher may be nil; everything else is mandatory.
type Dependencies struct {
	Gateway   Gateway
	Resolve   ResolveFunc
	Publisher EventPublisher
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Dispatcher fans each inbound message out to its own goroutine, gated by a
// weighted semaphore so detached work stays bounded. Each dispatch carries
// its own timeout, independent of the webhook request that triggered it; the
// platform's acknowledgment never waits on a send.
type Dispatcher struct {
	cfg       Config
	gateway   Gateway
	resolve   ResolveFunc
	publisher EventPublisher
	logger    zerolog.Logger

	semaphore *semaphore.Weighted
	now       func() time.Time
}

// New constructs a Dispatcher, validating configuration and collaborators to
// prevent misconfiguration at startup.
func New(cfg Config, deps Dependencies) (*Dispatcher, error) {
	if cfg.SendTimeout <= 0 {
		return nil, errors.New("dispatch: send timeout must be > 0")
	}
	if cfg.Concurrency < 1 {
		return nil, errors.New("dispatch: concurrency must be >= 1")
	}
	if deps.Gateway == nil {
		return nil, errors.New("dispatch: gateway dependency is required")
	}
	if deps.Resolve == nil {
		return nil, errors.New("dispatch: resolver dependency is required")
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "dispatcher").Logger()

	nowFunc := deps.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}

	return &Dispatcher{
		cfg:       cfg,
		gateway:   deps.Gateway,
		resolve:   deps.Resolve,
		publisher: deps.Publisher,
		logger:    logger,
		semaphore: semaphore.NewWeighted(int64(cfg.Concurrency)),
		now:       nowFunc,
	}, nil
}

// Dispatch queues the reply pipeline for one inbound message and returns
// without waiting for the send. Failures in the detached work are logged and
// published, never surfaced to the caller: by the time they happen the
// webhook has already been acknowledged.
func (d *Dispatcher) Dispatch(msg *models.InboundMessage) {
	if msg == nil {
		return
	}

	eventID := uuid.NewString()

	if err := d.semaphore.Acquire(context.Background(), 1); err != nil {
		d.logger.Error().
			Str("event_id", eventID).
			Err(err).
			Msg("dispatch: failed to acquire concurrency semaphore")
		return
	}

	go d.process(eventID, msg)
}

// Drain blocks until all in-flight dispatches finish or ctx expires.
func (d *Dispatcher) Drain(ctx context.Context) error {
	if err := d.semaphore.Acquire(ctx, int64(d.cfg.Concurrency)); err != nil {
		return err
	}
	d.semaphore.Release(int64(d.cfg.Concurrency))
	return nil
}

func (d *Dispatcher) process(eventID string, msg *models.InboundMessage) {
	defer d.semaphore.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	log := d.logger.With().
		Str("event_id", eventID).
		Str("from", msg.SenderID).
		Str("message_id", msg.MessageID).
		Logger()

	log.Info().Msg("inbound message received")
	d.publishEvent(ctx, models.DispatchEvent{
		EventID:   eventID,
		MessageID: msg.MessageID,
		From:      msg.SenderID,
		EventType: models.EventTypeReceived,
		Timestamp: d.now(),
	})

	body := d.resolve(msg.Text)

	// Best-effort read receipt; a failure here must not block the reply.
	if d.cfg.MarkAsRead && msg.MessageID != "" {
		if err := d.gateway.MarkRead(ctx, msg.MessageID); err != nil {
			log.Debug().Err(err).Msg("mark-as-read failed")
		}
	}

	result, err := d.gateway.SendText(ctx, msg.SenderID, body)
	if err != nil {
		event := models.DispatchEvent{
			EventID:   eventID,
			MessageID: msg.MessageID,
			From:      msg.SenderID,
			EventType: models.EventTypeFailed,
			Error:     err.Error(),
			Timestamp: d.now(),
		}

		logEvent := log.Error()
		var sendErr *graph.SendError
		if errors.As(err, &sendErr) {
			event.Classification = string(sendErr.Classification)
			logEvent = logEvent.
				Str("classification", string(sendErr.Classification)).
				Int("upstream_code", sendErr.Code).
				Str("fbtrace_id", sendErr.TraceID).
				Str("hint", sendErr.RemediationHint())
		}
		logEvent.Err(err).Msg("reply send failed")
		d.publishEvent(ctx, event)
		return
	}

	log.Info().Str("reply_message_id", result.MessageID).Msg("reply sent")
	d.publishEvent(ctx, models.DispatchEvent{
		EventID:        eventID,
		MessageID:      msg.MessageID,
		From:           msg.SenderID,
		EventType:      models.EventTypeSent,
		ReplyMessageID: result.MessageID,
		Timestamp:      d.now(),
	})
}

func (d *Dispatcher) publishEvent(ctx context.Context, event models.DispatchEvent) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.PublishEvent(ctx, event); err != nil {
		d.logger.Warn().
			Str("event_id", event.EventID).
			Str("event_type", event.EventType).
			Err(err).
			Msg("dispatch event publish failed")
	}
}
