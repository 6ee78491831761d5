// Package httpserver runs an http.Handler with graceful shutdown and
// provides the liveness and readiness check handlers.
//
// Run blocks until ctx is done, then shuts the server down within the
// configured deadline. Request contexts derive from a base context that is
// cancelled when shutdown starts, so long-lived handlers such as WebSocket
// sessions notice the shutdown and return; http.Server.Shutdown does not wait
// for hijacked connections.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//
//	r := chi.NewRouter()
//	r.Get("/health/live", httpserver.Liveness())
//	r.Get("/health/ready", httpserver.Readiness(log,
//		httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//	))
//
//	if err := srv.Run(ctx, r); err != nil {
//		return err
//	}
//
// Run wraps listen errors with ErrStart and Shutdown wraps shutdown errors
// with ErrShutdown.
package httpserver
