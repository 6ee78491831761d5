package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/jobnotify/pkg/consumer"
	"github.com/dmitrymomot/jobnotify/pkg/email"
	"github.com/dmitrymomot/jobnotify/pkg/httpserver"
	"github.com/dmitrymomot/jobnotify/pkg/identity"
	"github.com/dmitrymomot/jobnotify/pkg/pg"
	"github.com/dmitrymomot/jobnotify/pkg/redis"
)

// Channel layer kinds.
const (
	LayerMemory = "memory"
	LayerRedis  = "redis"
)

// App holds the service's own settings.
type App struct {
	Env           string        `env:"APP_ENV" envDefault:"development"`         // Env selects the logger preset.
	Timezone      string        `env:"NOTIFY_TIMEZONE" envDefault:"UTC"`         // Timezone is used to evaluate quiet hours.
	Expiry        time.Duration `env:"NOTIFY_EXPIRY"`                            // Expiry, when set, gives notifications an ExpiresAt.
	TemplatesFile string        `env:"NOTIFY_TEMPLATES_FILE"`                    // TemplatesFile is a YAML file of templates seeded on start.
	ChannelLayer  string        `env:"NOTIFY_CHANNEL_LAYER" envDefault:"memory"` // ChannelLayer is "memory" or "redis".
}

// Location resolves Timezone.
func (a App) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("NOTIFY_TIMEZONE %q: %w", a.Timezone, err))
	}
	return loc, nil
}

// Validate checks the values env tags cannot express.
func (a App) Validate() error {
	if a.ChannelLayer != LayerMemory && a.ChannelLayer != LayerRedis {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("NOTIFY_CHANNEL_LAYER must be %q or %q, got %q", LayerMemory, LayerRedis, a.ChannelLayer))
	}
	if a.Expiry < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("NOTIFY_EXPIRY must not be negative"))
	}
	_, err := a.Location()
	return err
}

// Config is the complete service configuration.
type Config struct {
	App       App
	Postgres  pg.Config
	Redis     redis.Config
	HTTP      httpserver.Config
	WebSocket consumer.Config
	Identity  identity.Config
	Email     email.Config
}

// Load reads files (".env" when empty) into the environment and parses Config.
func Load(files ...string) (Config, error) {
	if err := LoadEnv(files...); err != nil {
		return Config{}, err
	}
	cfg, err := Parse[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.App.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad(files ...string) Config {
	cfg, err := Load(files...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// LoadEnv loads .env files without overriding variables already set.
// Files that do not exist are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Join(ErrLoadingEnvFile, fmt.Errorf("%s: %w", f, err))
		}
	}
	return nil
}

// Parse fills a T from the environment using its env tags.
func Parse[T any]() (T, error) {
	var v T
	if err := env.Parse(&v); err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}
