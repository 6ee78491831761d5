package consumer

import "time"

// Config holds the WebSocket settings.
type Config struct {
	// PingInterval is the period of protocol-level pings.
	PingInterval time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
	// PongWait is the read deadline, extended by every pong.
	PongWait time.Duration `env:"WS_PONG_WAIT" envDefault:"60s"`
	// WriteWait bounds a single write.
	WriteWait time.Duration `env:"WS_WRITE_WAIT" envDefault:"10s"`
	// MaxMessageSize is the largest accepted client frame in bytes.
	MaxMessageSize int64 `env:"WS_MAX_MESSAGE_SIZE" envDefault:"4096"`
	// OutboxSize is the number of frames buffered per session before broadcasts are dropped.
	OutboxSize int `env:"WS_OUTBOX_SIZE" envDefault:"64"`
	// AllowedOrigins restricts the Origin header. Empty allows any origin.
	AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
}

// DefaultConfig returns the same values as the env defaults.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
		OutboxSize:     64,
	}
}
