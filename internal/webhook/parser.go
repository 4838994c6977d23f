// Package webhook extracts actionable inbound messages from raw Cloud API
// notification payloads.
package webhook

import (
	"strings"

	"github.com/example/whatsapp-bridge/internal/models"
)

// Parser normalizes webhook payloads into InboundMessage values. The Cloud
// API routinely delivers non-message events (delivery receipts, read
// receipts) on the same endpoint, so a payload with nothing actionable is an
// expected outcome, not an error.
type Parser struct {
	ownPhoneNumberID string
}

// NewParser constructs a Parser. ownPhoneNumberID is the bridge's own sender
// identifier and is used to suppress replies to the bridge's own messages.
func NewParser(ownPhoneNumberID string) *Parser {
	return &Parser{ownPhoneNumberID: strings.TrimSpace(ownPhoneNumberID)}
}

// Parse walks entry[0].changes[0].value and returns the normalized message
// when the payload carries one. The second return value is false when there
// is nothing actionable: any missing intermediate node, a statuses-only
// payload, an empty sender or body, or a message from the bridge itself.
func (p *Parser) Parse(payload *models.WebhookPayload) (*models.InboundMessage, bool) {
	if payload == nil || len(payload.Entry) == 0 {
		return nil, false
	}
	entry := payload.Entry[0]
	if len(entry.Changes) == 0 {
		return nil, false
	}
	value := entry.Changes[0].Value
	if len(value.Messages) == 0 {
		// Covers statuses-only receipts as well.
		return nil, false
	}
	msg := value.Messages[0]

	// from is the verified per-message sender field and is the canonical
	// send target. contacts[0].wa_id can diverge from it when proxied
	// numbers are involved, so it is only consulted when from is absent.
	sender := strings.TrimSpace(msg.From)
	if sender == "" && len(value.Contacts) > 0 {
		sender = strings.TrimSpace(value.Contacts[0].WaID)
	}
	if sender == "" {
		return nil, false
	}

	if p.isSelf(sender, value.Metadata) {
		return nil, false
	}

	var text string
	if msg.Text != nil {
		text = strings.TrimSpace(msg.Text.Body)
	}
	if text == "" {
		return nil, false
	}

	return &models.InboundMessage{
		SenderID:  sender,
		Text:      text,
		MessageID: msg.ID,
	}, true
}

func (p *Parser) isSelf(sender string, meta *models.Metadata) bool {
	if p.ownPhoneNumberID != "" && sender == p.ownPhoneNumberID {
		return true
	}
	if meta != nil && meta.PhoneNumberID != "" && sender == meta.PhoneNumberID {
		return true
	}
	return false
}
