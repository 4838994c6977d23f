package models

// InboundMessage is the normalized form of an actionable user message
// extracted from a webhook payload. It is produced once per delivery and
// never mutated.
type InboundMessage struct {
	SenderID  string
	Text      string
	MessageID string
}

// OutboundReply pairs a resolved reply body with its recipient.
type OutboundReply struct {
	RecipientID string
	Body        string
}
