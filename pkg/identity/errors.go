package identity

import "errors"

var (
	// ErrAuthenticationFailed is returned when no identity can be resolved
	// from the request credentials.
	ErrAuthenticationFailed = errors.New("identity: authentication failed")
	// ErrMissingToken is returned when the request carries no token at all.
	ErrMissingToken = errors.New("identity: missing token")
	// ErrMissingSecret is returned when a JWTVerifier is built without a secret.
	ErrMissingSecret = errors.New("identity: missing signing secret")
)
