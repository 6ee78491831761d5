package email

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// EmailSender represents an interface for sending emails.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams represents the parameters for sending an email.
type SendEmailParams struct {
	SendTo   string            `json:"send_to"`             // Email address of the recipient
	Subject  string            `json:"subject"`             // Subject of the email
	BodyHTML string            `json:"body_html"`           // HTML body of the email
	BodyText string            `json:"body_text,omitempty"` // Plain text alternative, optional
	Tag      string            `json:"tag,omitempty"`       // Notification type, used for provider statistics
	Metadata map[string]string `json:"metadata,omitempty"`  // Notification identifiers echoed back by bounce webhooks
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks the required fields and the recipient address.
func (p SendEmailParams) Validate() error {
	switch {
	case strings.TrimSpace(p.SendTo) == "":
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	case !emailRegex.MatchString(p.SendTo):
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	case strings.TrimSpace(p.Subject) == "":
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	case strings.TrimSpace(p.BodyHTML) == "":
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	return nil
}

// LogSender implements EmailSender by logging instead of sending.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that writes each email to log.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{logger: log}
}

// SendEmail validates params and logs them.
func (s *LogSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "Email not sent, no provider configured",
		slog.String("to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag),
		slog.Any("metadata", params.Metadata),
	)
	return nil
}
