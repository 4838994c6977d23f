package webhook_test

import (
	"encoding/json"
	"testing"

	"github.com/example/whatsapp-bridge/internal/models"
	"github.com/example/whatsapp-bridge/internal/webhook"
)

const ownPhoneID = "109999999999999"

func parsePayload(t *testing.T, raw string) (*models.InboundMessage, bool) {
	t.Helper()
	var payload models.WebhookPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("fixture payload does not decode: %v", err)
	}
	return webhook.NewParser(ownPhoneID).Parse(&payload)
}

func TestParseTextMessage(t *testing.T) {
	raw := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "123",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"metadata": {"display_phone_number": "15550001111", "phone_number_id": "109999999999999"},
					"contacts": [{"wa_id": "15551234567", "profile": {"name": "Ada"}}],
					"messages": [{"from": "15551234567", "id": "wamid.1", "timestamp": "1700000000", "type": "text", "text": {"body": "Hey there"}}]
				}
			}]
		}]
	}`

	msg, ok := parsePayload(t, raw)
	if !ok {
		t.Fatalf("expected an actionable message")
	}
	if msg.SenderID != "15551234567" {
		t.Fatalf("sender = %q, want 15551234567", msg.SenderID)
	}
	if msg.Text != "Hey there" {
		t.Fatalf("text = %q, want %q", msg.Text, "Hey there")
	}
	if msg.MessageID != "wamid.1" {
		t.Fatalf("message id = %q, want wamid.1", msg.MessageID)
	}
}

// from is the canonical sender field; wa_id must not override it even when
// the two diverge.
func TestParsePrefersFromOverContactWaID(t *testing.T) {
	raw := `{
		"entry": [{"changes": [{"value": {
			"contacts": [{"wa_id": "19998887777"}],
			"messages": [{"from": "15551234567", "id": "wamid.2", "text": {"body": "hi"}}]
		}}]}]
	}`

	msg, ok := parsePayload(t, raw)
	if !ok {
		t.Fatalf("expected an actionable message")
	}
	if msg.SenderID != "15551234567" {
		t.Fatalf("sender = %q, want the from field, not wa_id", msg.SenderID)
	}
}

func TestParseFallsBackToContactWaID(t *testing.T) {
	raw := `{
		"entry": [{"changes": [{"value": {
			"contacts": [{"wa_id": "19998887777"}],
			"messages": [{"id": "wamid.3", "text": {"body": "hi"}}]
		}}]}]
	}`

	msg, ok := parsePayload(t, raw)
	if !ok {
		t.Fatalf("expected fallback to wa_id when from is empty")
	}
	if msg.SenderID != "19998887777" {
		t.Fatalf("sender = %q, want wa_id fallback", msg.SenderID)
	}
}

func TestParseNothingActionable(t *testing.T) {
	cases := map[string]string{
		"empty payload":    `{}`,
		"no changes":       `{"entry": [{"id": "1"}]}`,
		"no messages":      `{"entry": [{"changes": [{"value": {"metadata": {"phone_number_id": "1"}}}]}]}`,
		"empty messages":   `{"entry": [{"changes": [{"value": {"messages": []}}]}]}`,
		"statuses only":    `{"entry": [{"changes": [{"value": {"statuses": [{"id": "wamid.9", "status": "delivered", "recipient_id": "15551234567"}]}}]}]}`,
		"no text body":     `{"entry": [{"changes": [{"value": {"messages": [{"from": "15551234567", "id": "wamid.4"}]}}]}]}`,
		"blank text body":  `{"entry": [{"changes": [{"value": {"messages": [{"from": "15551234567", "id": "wamid.5", "text": {"body": "   "}}]}}]}]}`,
		"no sender at all": `{"entry": [{"changes": [{"value": {"messages": [{"id": "wamid.6", "text": {"body": "hi"}}]}}]}]}`,
	}

	for name, raw := range cases {
		name, raw := name, raw
		t.Run(name, func(t *testing.T) {
			if msg, ok := parsePayload(t, raw); ok {
				t.Fatalf("expected no actionable message, got %+v", msg)
			}
		})
	}
}

func TestParseSelfMessageGuard(t *testing.T) {
	// Sender matches the configured phone number id.
	configured := `{
		"entry": [{"changes": [{"value": {
			"messages": [{"from": "109999999999999", "id": "wamid.7", "text": {"body": "hi"}}]
		}}]}]
	}`
	if msg, ok := parsePayload(t, configured); ok {
		t.Fatalf("expected self-message to be ignored, got %+v", msg)
	}

	// Sender matches the payload's own metadata.phone_number_id.
	metadata := `{
		"entry": [{"changes": [{"value": {
			"metadata": {"phone_number_id": "207777777777777"},
			"messages": [{"from": "207777777777777", "id": "wamid.8", "text": {"body": "hi"}}]
		}}]}]
	}`
	if msg, ok := parsePayload(t, metadata); ok {
		t.Fatalf("expected metadata self-message to be ignored, got %+v", msg)
	}
}

func TestParseNilPayload(t *testing.T) {
	if msg, ok := webhook.NewParser(ownPhoneID).Parse(nil); ok {
		t.Fatalf("expected nil payload to yield no message, got %+v", msg)
	}
}
