package models

// WebhookPayload is the raw notification body delivered by the WhatsApp Cloud
// API. Every field is optional at every level: delivery receipts, read
// receipts and other non-message events reuse the same envelope with
// different leaves populated, so absence of a node is normal rather than an
// error.
type WebhookPayload struct {
	Object string  `json:"object,omitempty"`
	Entry  []Entry `json:"entry,omitempty"`
}

// Entry groups the changes reported for a single WhatsApp Business account.
type Entry struct {
	ID      string   `json:"id,omitempty"`
	Changes []Change `json:"changes,omitempty"`
}

// Change wraps a single field mutation inside an entry.
type Change struct {
	Field string      `json:"field,omitempty"`
	Value ChangeValue `json:"value,omitempty"`
}

// ChangeValue carries the actual event data. Inbound user messages populate
// Messages; delivery and read receipts populate Statuses instead.
type ChangeValue struct {
	MessagingProduct string            `json:"messaging_product,omitempty"`
	Metadata         *Metadata         `json:"metadata,omitempty"`
	Contacts         []Contact         `json:"contacts,omitempty"`
	Messages         []IncomingMessage `json:"messages,omitempty"`
	Statuses         []MessageStatus   `json:"statuses,omitempty"`
}

// Metadata identifies the receiving business phone number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number,omitempty"`
	PhoneNumberID      string `json:"phone_number_id,omitempty"`
}

// Contact describes the user profile attached to an inbound message. WaID is
// a lookup aid only; the verified sender is IncomingMessage.From.
type Contact struct {
	WaID    string          `json:"wa_id,omitempty"`
	Profile *ContactProfile `json:"profile,omitempty"`
}

// ContactProfile holds the display name the user has chosen.
type ContactProfile struct {
	Name string `json:"name,omitempty"`
}

// IncomingMessage is a single user message inside a change value.
type IncomingMessage struct {
	From      string    `json:"from,omitempty"`
	ID        string    `json:"id,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	Type      string    `json:"type,omitempty"`
	Text      *TextBody `json:"text,omitempty"`
}

// TextBody holds the body of a text-type message.
type TextBody struct {
	Body string `json:"body,omitempty"`
}

// MessageStatus is a delivery/read receipt for a previously sent message.
// The bridge ignores these, but models them so statuses-only payloads decode
// cleanly.
type MessageStatus struct {
	ID          string `json:"id,omitempty"`
	Status      string `json:"status,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
}
