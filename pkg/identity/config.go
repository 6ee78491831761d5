package identity

type Config struct {
	JWTSecret string `env:"JWT_SECRET,required"` // JWTSecret is the HMAC key shared with the auth service.
	Issuer    string `env:"JWT_ISSUER"`          // Issuer, when set, must match the iss claim.
}
