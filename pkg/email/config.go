package email

// Config holds email service configuration.
// All fields are optional at load time; NewPostmarkClient enforces them.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"EMAIL_SENDER" envDefault:"notifications@example.com"`
	SupportEmail         string `env:"EMAIL_SUPPORT" envDefault:"support@example.com"`
	MessageStream        string `env:"POSTMARK_MESSAGE_STREAM" envDefault:"outbound"`
	PostmarkBaseURL      string `env:"POSTMARK_BASE_URL"` // Empty uses the public API.
}

// Enabled reports whether Postmark credentials are configured.
func (c Config) Enabled() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}
