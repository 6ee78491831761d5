package broadcast

import "errors"

var (
	// ErrPublishFailed wraps a channel-layer failure to accept a publish.
	// An address without members is not a failure.
	ErrPublishFailed = errors.New("broadcast: publish failed")
	// ErrInvalidAddress is returned for empty addresses.
	ErrInvalidAddress = errors.New("broadcast: invalid address")
	// ErrNilMember is returned when joining or leaving with a nil member.
	ErrNilMember = errors.New("broadcast: nil member")
)
