package notifications

import (
	"context"
	"fmt"
	"html"

	"github.com/dmitrymomot/jobnotify/pkg/email"
)

// Directory resolves a user's email address.
type Directory interface {
	EmailAddress(ctx context.Context, userID string) (string, error)
}

// AddressBook is a Directory that can also record addresses.
type AddressBook interface {
	Directory
	SetEmailAddress(ctx context.Context, userID, address string) error
}

// DirectoryFunc adapts a function to the Directory interface.
type DirectoryFunc func(ctx context.Context, userID string) (string, error)

// EmailAddress calls f.
func (f DirectoryFunc) EmailAddress(ctx context.Context, userID string) (string, error) {
	return f(ctx, userID)
}

// EmailDeliverer sends notifications as transactional email.
type EmailDeliverer struct {
	sender    email.EmailSender
	directory Directory
}

// NewEmailDeliverer creates an email deliverer.
func NewEmailDeliverer(sender email.EmailSender, directory Directory) *EmailDeliverer {
	return &EmailDeliverer{sender: sender, directory: directory}
}

// Deliver looks up the recipient's address and sends the rendered notification.
func (d *EmailDeliverer) Deliver(ctx context.Context, notif Notification) error {
	to, err := d.directory.EmailAddress(ctx, notif.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve email address for user %s: %w", notif.UserID, err)
	}

	return d.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  notif.Title,
		BodyHTML: "<p>" + html.EscapeString(notif.Message) + "</p>",
		BodyText: notif.Message,
		Tag:      string(notif.Type),
		Metadata: map[string]string{"notification_id": notif.ID, "user_id": notif.UserID},
	})
}
