package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"
)

type postmarkClient struct {
	client *postmark.Client
	config Config
}

// NewPostmarkClient creates a Postmark-backed email sender.
// Both tokens and both addresses are required.
func NewPostmarkClient(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.SupportEmail == "" {
		return nil, fmt.Errorf("%w: SupportEmail is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	client := postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	if cfg.PostmarkBaseURL != "" {
		client.BaseURL = strings.TrimRight(cfg.PostmarkBaseURL, "/")
	}
	return &postmarkClient{client: client, config: cfg}, nil
}

// SendEmail sends one notification email on the configured message stream.
// Replies go to the support address; open and link tracking are off.
func (c *postmarkClient) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:          c.config.SenderEmail,
		ReplyTo:       c.config.SupportEmail,
		To:            params.SendTo,
		Subject:       params.Subject,
		Tag:           params.Tag,
		HTMLBody:      params.BodyHTML,
		TextBody:      params.BodyText,
		Metadata:      params.Metadata,
		MessageStream: c.config.MessageStream,
	})
	var apiErr postmark.APIError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Errorf("%w to %s: postmark error %d: %s", ErrFailedToSendEmail, params.SendTo, apiErr.ErrorCode, apiErr.Message)
	case resp.ErrorCode > 0:
		return fmt.Errorf("%w to %s: postmark error %d: %s", ErrFailedToSendEmail, params.SendTo, resp.ErrorCode, resp.Message)
	case err != nil:
		return fmt.Errorf("%w to %s: %w", ErrFailedToSendEmail, params.SendTo, err)
	}
	return nil
}
