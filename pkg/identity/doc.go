// Package identity resolves the already-authenticated user behind a
// persistent connection.
//
// The notification consumer does not check credentials itself. It asks a
// Verifier for an Identity and refuses the connection when that fails.
// JWTVerifier is the production Verifier: it validates HS256 tokens issued by
// the auth service and reads the subject and role claims.
package identity
