package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims understood by JWTVerifier.
// The user id is read from user_id and falls back to sub.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

// JWTVerifier validates HS256 tokens.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier builds a verifier from cfg.
func NewJWTVerifier(cfg Config) (*JWTVerifier, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	return &JWTVerifier{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}, nil
}

// Verify extracts the token from r and validates it.
func (v *JWTVerifier) Verify(_ context.Context, r *http.Request) (Identity, error) {
	token, err := TokenFromRequest(r)
	if err != nil {
		return Identity{}, errors.Join(ErrAuthenticationFailed, err)
	}
	return v.VerifyToken(token)
}

// VerifyToken validates a raw token string.
func (v *JWTVerifier) VerifyToken(token string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Identity{}, errors.Join(ErrAuthenticationFailed, err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrAuthenticationFailed)
	}
	return Identity{UserID: userID, Role: claims.Role}, nil
}

// Issue signs a token for id valid for ttl. The auth service owns token
// issuance; this exists for tooling and tests.
func (v *JWTVerifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: id.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// TokenFromRequest reads a bearer token from, in order: the Authorization
// header, the "token" query parameter, or a Sec-WebSocket-Protocol entry of the
// form "bearer.<token>". Browsers cannot set headers on WebSocket handshakes,
// hence the last two.
func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok && token != "" {
			return token, nil
		}
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	for _, proto := range websocketProtocols(r) {
		if token, ok := strings.CutPrefix(proto, "bearer."); ok && token != "" {
			return token, nil
		}
	}
	return "", ErrMissingToken
}

func websocketProtocols(r *http.Request) []string {
	var protos []string
	for _, h := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, p := range strings.Split(h, ",") {
			if p = strings.TrimSpace(p); p != "" {
				protos = append(protos, p)
			}
		}
	}
	return protos
}
