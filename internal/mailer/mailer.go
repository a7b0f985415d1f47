package mailer

import (
	"context"

	"audit-backend/internal/shared/telemetry"
)

// Email is one outbound message with an optional PDF attachment.
type Email struct {
	From           string
	To             string
	Subject        string
	TextBody       string
	HTMLBody       string
	AttachmentName string
	Attachment     []byte
}

// Transport delivers a prepared email.
type Transport interface {
	Send(ctx context.Context, email Email) error
}

// LogTransport logs the message instead of sending it. Used in dev when no
// mail credentials are configured.
type LogTransport struct{}

// Send logs the email envelope and drops the message.
func (LogTransport) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	telemetry.Info("mailer.log_transport", map[string]any{
		"to":              email.To,
		"subject":         email.Subject,
		"attachment":      email.AttachmentName,
		"attachment_size": len(email.Attachment),
	})
	return nil
}
