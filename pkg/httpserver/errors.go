package httpserver

import "errors"

var (
	// ErrStart is returned by Run when the listener cannot open or Serve fails.
	ErrStart = errors.New("httpserver: failed to start")
	// ErrAlreadyRunning is joined with ErrStart when Run is called on a running server.
	ErrAlreadyRunning = errors.New("httpserver: already running")
	// ErrShutdown is returned when open connections outlive the shutdown timeout.
	ErrShutdown = errors.New("httpserver: graceful shutdown failed")
)
