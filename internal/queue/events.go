package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the mail stream
const (
	EventVerificationMail = "verification_mail"
	EventResetMail        = "reset_mail"
)

// Stream names
const (
	StreamMail = "stream:mail"
)

// Consumer group name for mail workers
const (
	ConsumerGroupMail = "mail_workers"
)

// MailEvent represents an email delivery request published to the mail stream.
// All mail events share this structure.
type MailEvent struct {
	Type      string `json:"type"`      // EventVerificationMail, EventResetMail
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	Recipient string `json:"recipient"`
	FullName  string `json:"full_name,omitempty"`

	// Verification mail
	Code string `json:"code,omitempty"`

	// Reset mail
	ResetToken string `json:"reset_token,omitempty"`
}

// NewVerificationMailEvent creates an event requesting a verification code email.
// Worker will render and send the mail; delivery failures never surface to the
// request that enqueued the event.
func NewVerificationMailEvent(recipient, fullName, code string) MailEvent {
	return MailEvent{
		Type:      EventVerificationMail,
		Timestamp: time.Now().Unix(),
		Recipient: recipient,
		FullName:  fullName,
		Code:      code,
	}
}

// NewResetMailEvent creates an event requesting a password reset email.
func NewResetMailEvent(recipient, fullName, resetToken string) MailEvent {
	return MailEvent{
		Type:       EventResetMail,
		Timestamp:  time.Now().Unix(),
		Recipient:  recipient,
		FullName:   fullName,
		ResetToken: resetToken,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e MailEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseMailEvent parses a MailEvent from Redis stream message values.
func ParseMailEvent(values map[string]interface{}) (MailEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return MailEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event MailEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return MailEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
