package notifications

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification does not exist for the user.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrPreferenceNotFound is returned by PreferenceStorage when the user has no preference row.
	ErrPreferenceNotFound = errors.New("notification preference not found")
	// ErrPreferenceMissing is the resolver's integrity fault: a recipient has no preference.
	ErrPreferenceMissing = errors.New("notification preference missing")
	// ErrInvalidPreference is returned when a preference carries an unknown channel or a bad user id.
	ErrInvalidPreference = errors.New("invalid notification preference")
	// ErrTemplateNotFound is returned when no template matches a notification type.
	ErrTemplateNotFound = errors.New("notification template not found")
	// ErrDuplicateDefaultTemplate is returned when a second default template is saved for one type and channel.
	ErrDuplicateDefaultTemplate = errors.New("default template already exists for type and channel")
	// ErrInvalidNotification is returned when a notification lacks an id, recipient or type.
	ErrInvalidNotification = errors.New("invalid notification")
	// ErrEmailAddressNotFound is returned when a directory has no address for the user.
	ErrEmailAddressNotFound = errors.New("email address not found")
	// ErrInvalidEmailAddress is returned when an address book entry lacks a user id or address.
	ErrInvalidEmailAddress = errors.New("invalid email address entry")
	// ErrNoDeliverer is returned when a channel has no deliverer configured.
	ErrNoDeliverer = errors.New("no deliverer configured for channel")
)
