// Command notifyd runs the notification service: it accepts domain events,
// persists notifications and pushes them to connected WebSocket clients.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/jobnotify/pkg/broadcast"
	"github.com/dmitrymomot/jobnotify/pkg/config"
	"github.com/dmitrymomot/jobnotify/pkg/consumer"
	"github.com/dmitrymomot/jobnotify/pkg/email"
	"github.com/dmitrymomot/jobnotify/pkg/events"
	"github.com/dmitrymomot/jobnotify/pkg/httpserver"
	"github.com/dmitrymomot/jobnotify/pkg/identity"
	"github.com/dmitrymomot/jobnotify/pkg/logger"
	"github.com/dmitrymomot/jobnotify/pkg/notifications"
	"github.com/dmitrymomot/jobnotify/pkg/notifications/pgstore"
	"github.com/dmitrymomot/jobnotify/pkg/pg"
	"github.com/dmitrymomot/jobnotify/pkg/redis"
	"github.com/dmitrymomot/jobnotify/pkg/triggers"
)

const serviceName = "notifyd"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.WithEnvironment(cfg.App.Env, serviceName))
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.LogAttrs(ctx, slog.LevelError, "Service stopped with error", logger.Error(err))
		stop()
		os.Exit(1)
	}
	log.LogAttrs(ctx, slog.LevelInfo, "Service stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := pg.OpenDB(pool)
	defer func() { _ = db.Close() }()
	if err := pg.Migrate(ctx, db, pgstore.Migrations, pgstore.MigrationsDir, cfg.Postgres, log); err != nil {
		return err
	}

	store := pgstore.New(db)
	if err := seedTemplates(ctx, store, cfg.App.TemplatesFile); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	g, ctx := errgroup.WithContext(ctx)

	checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}
	var layer broadcast.Layer
	switch cfg.App.ChannelLayer {
	case config.LayerRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		rl := broadcast.NewRedisLayer(client, broadcast.WithRedisLogger(log))
		g.Go(func() error { return rl.Run(ctx) })
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
		layer = rl
	default:
		layer = broadcast.NewMemoryLayer()
	}

	broadcaster := broadcast.NewBroadcaster(layer,
		broadcast.WithLogger(log),
		broadcast.WithMetrics(broadcast.NewMetrics(reg)),
	)
	realtime := notifications.NewBroadcastDeliverer(broadcaster)

	sender, err := emailSender(cfg.Email, log)
	if err != nil {
		return err
	}

	managerOpts := []notifications.ManagerOption{
		notifications.WithManagerLogger(log),
		notifications.WithManagerMetrics(notifications.NewMetrics(reg)),
		notifications.WithDeliverer(notifications.ChannelRealtime, realtime),
		notifications.WithDeliverer(notifications.ChannelEmail, notifications.NewEmailDeliverer(sender, store)),
		notifications.WithAnnouncer(realtime),
		notifications.WithLocation(loc),
	}
	if cfg.App.Expiry > 0 {
		managerOpts = append(managerOpts, notifications.WithExpiry(cfg.App.Expiry))
	}
	manager := notifications.NewManager(store, store, store, managerOpts...)

	registry := events.NewRegistry(events.WithLogger(log))
	triggers.New(manager,
		triggers.WithAddressBook(store),
		triggers.WithLogger(log),
	).Register(registry)

	verifier, err := identity.NewJWTVerifier(cfg.Identity)
	if err != nil {
		return err
	}

	ws := consumer.NewHandler(verifier, layer,
		consumer.WithConfig(cfg.WebSocket),
		consumer.WithLogger(log),
		consumer.WithMetrics(consumer.NewMetrics(reg)),
	)
	in := &ingress{verifier: verifier, registry: registry, announcer: manager, logger: log}

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	g.Go(func() error {
		return srv.Run(ctx, router(ws, in, reg, log, checks))
	})

	return g.Wait()
}

func router(ws http.Handler, in *ingress, reg *prometheus.Registry, log *slog.Logger, checks []httpserver.Check) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", httpserver.Liveness())
	r.Get("/health/ready", httpserver.Readiness(log, checks...))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Method(http.MethodGet, "/ws/notifications", ws)
	r.Route("/internal", in.routes)

	return r
}

func emailSender(cfg email.Config, log *slog.Logger) (email.EmailSender, error) {
	if !cfg.Enabled() {
		log.Info("Postmark is not configured, email notifications are logged only")
		return email.NewLogSender(log), nil
	}
	return email.NewPostmarkClient(cfg)
}

func seedTemplates(ctx context.Context, store notifications.TemplateStorage, file string) error {
	var custom []notifications.Template
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open templates file: %w", err)
		}
		defer f.Close()

		if custom, err = notifications.LoadTemplates(f); err != nil {
			return err
		}
	}
	return notifications.SeedTemplates(ctx, store, custom)
}
