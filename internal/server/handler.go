// Package server exposes the inbound HTTP surface: the subscription
// verification handshake, the event webhook, and a liveness endpoint.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-bridge/internal/models"
)

// MessageDispatcher accepts a parsed inbound message for detached
// processing. It must return promptly; the platform enforces short webhook
// response budgets and re-delivers on timeout.
type MessageDispatcher interface {
	Dispatch(msg *models.InboundMessage)
}

// PayloadParser extracts an actionable message from a raw webhook payload.
type PayloadParser interface {
	Parse(payload *models.WebhookPayload) (*models.InboundMessage, bool)
}

// Handler implements the webhook controller. It owns no mutable state, so
// concurrent deliveries need no synchronisation.
type Handler struct {
	logger       zerolog.Logger
	verifyToken  string
	parser       PayloadParser
	dispatcher   MessageDispatcher
	maxBodyBytes int64
}

// NewHandler constructs the webhook handler.
func NewHandler(verifyToken string, parser PayloadParser, dispatcher MessageDispatcher, maxBodyBytes int64, logger zerolog.Logger) (*Handler, error) {
	if verifyToken == "" {
		return nil, errors.New("server: verify token is required")
	}
	if parser == nil {
		return nil, errors.New("server: parser dependency is required")
	}
	if dispatcher == nil {
		return nil, errors.New("server: dispatcher dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}

	return &Handler{
		logger:       logger.With().Str("component", "webhook_handler").Logger(),
		verifyToken:  verifyToken,
		parser:       parser,
		dispatcher:   dispatcher,
		maxBodyBytes: maxBodyBytes,
	}, nil
}

// Verify handles the GET-based subscription handshake. The challenge is
// echoed verbatim iff the mode is "subscribe" and the token matches the
// configured secret; everything else is a 403 with an empty body.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		h.logger.Info().Msg("webhook verification succeeded")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}

	h.logger.Warn().Str("mode", mode).Msg("webhook verification failed")
	w.WriteHeader(http.StatusForbidden)
}

// HandleEvent receives event notifications. Receipt is acknowledged with a
// 200 before the reply pipeline runs: the platform re-delivers on timeout,
// so the acknowledgment must not wait for the outbound send. Downstream
// failures are logged only and never surfaced to the platform.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var payload models.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn().Err(err).Msg("webhook payload decode failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("EVENT_RECEIVED"))
	if f, ok := w.(http.Flusher); ok {
		// Queueing the dispatch can block briefly under saturation; the
		// ack must already be on the wire by then.
		f.Flush()
	}

	msg, ok := h.parser.Parse(&payload)
	if !ok {
		// Delivery receipts and other non-message events land here.
		h.logger.Debug().Msg("no actionable message in payload")
		return
	}

	h.dispatcher.Dispatch(msg)
}

// Health answers liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("whatsapp-bridge is running"))
}
