package identity

import (
	"context"
	"net/http"
)

// Well-known roles carried by identities.
const (
	RoleJobSeeker = "job_seeker"
	RoleRecruiter = "recruiter"
	RoleAdmin     = "admin"
)

// Identity is a verified user. Role may be empty.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// Verifier resolves the identity behind an incoming connection request.
// Implementations return an error wrapping ErrAuthenticationFailed when the
// credentials are absent or invalid.
type Verifier interface {
	Verify(ctx context.Context, r *http.Request) (Identity, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, r *http.Request) (Identity, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, r *http.Request) (Identity, error) {
	return f(ctx, r)
}
