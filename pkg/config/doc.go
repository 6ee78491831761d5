// Package config loads the service configuration from the environment.
//
// Load reads the given .env files with joho/godotenv (the default ".env" when
// none are given; missing files are skipped), then parses the environment into
// Config with caarlos0/env. Variables already set in the environment win over
// .env values.
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	loc, err := cfg.App.Location()
//
// Each section comes from the package that consumes it, so every package keeps
// the env keys it understands next to its code:
//
//	APP_ENV, NOTIFY_*       App
//	PG_*                    pg.Config
//	REDIS_*                 redis.Config
//	HTTP_*                  httpserver.Config
//	WS_*                    consumer.Config
//	JWT_*                   identity.Config
//	POSTMARK_*, EMAIL_*     email.Config
//
// Parse is the generic form used for any other struct with env tags.
package config
