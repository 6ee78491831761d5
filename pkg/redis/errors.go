package redis

import "errors"

var (
	// ErrEmptyConnectionURL is returned by Connect when REDIS_URL is empty.
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")
	// ErrFailedToParseRedisConnString wraps URL parse failures.
	ErrFailedToParseRedisConnString = errors.New("redis: failed to parse connection URL")
	// ErrRedisNotReady is returned when no connect attempt got a ping reply.
	ErrRedisNotReady = errors.New("redis: server not ready within connect timeout")
	// ErrHealthcheckFailed is returned by the readiness check of the redis channel layer.
	ErrHealthcheckFailed = errors.New("redis: channel layer healthcheck failed")
)
