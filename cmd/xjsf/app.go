package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"xjsf/internal/api"
	"xjsf/internal/clients"
	"xjsf/internal/models"
	"xjsf/internal/observability"
	"xjsf/internal/ratelimit"
	"xjsf/internal/service"
	"xjsf/internal/services"
	"xjsf/internal/storage"

	"go.opentelemetry.io/otel"
)

// app is the assembled host: roster, hub, built-in services and routes.
type app struct {
	source  storage.RosterSource
	hub     *service.Hub
	limiter *ratelimit.MemoryLimiter
	router  http.Handler
}

func newApp(ctx context.Context, cfg *models.Config, log *slog.Logger) (*app, error) {
	source, err := openSource(ctx, cfg.Roster, log)
	if err != nil {
		return nil, err
	}
	a := &app{source: source}

	roster, err := source.LoadRoster(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	reg, err := clients.NewRegistry(roster,
		clients.WithAuthentication(models.Authentication{
			NameCookie:     cfg.Roster.Authentication.NameCookie,
			PasswordCookie: cfg.Roster.Authentication.PasswordCookie,
		}),
		clients.WithLogger(log),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	meter := otel.Meter("xjsf/service")
	dispatchMetrics, err := observability.NewDispatchMetrics(meter)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create dispatch metrics: %w", err)
	}
	if err := observability.RegisterClientGauge(meter, reg); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create client gauge: %w", err)
	}

	a.hub = service.NewHub(clients.NewResolver(reg, cfg.Roster.TrustProxyHeaders),
		service.WithRejectPolicy(cfg.Roster.RejectPolicy),
		service.WithExposeTraces(cfg.Dispatch.ExposeTraces),
		service.WithObserver(dispatchMetrics),
		service.WithLogger(log),
	)
	if err := services.RegisterBuiltins(a.hub); err != nil {
		a.Close()
		return nil, err
	}

	var routeOpts []api.RouteOption
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}
	if bl := cfg.Security.BurstLimit; bl.Enabled {
		a.limiter = ratelimit.NewMemoryLimiter(bl.RequestsPerMinute, bl.BurstSize, bl.CleanupInterval)
		routeOpts = append(routeOpts, api.WithBurstGuard(a.limiter, cfg.Roster.TrustProxyHeaders))
	}
	a.router = api.SetupRoutes(api.NewHandlers(a.hub), cfg, routeOpts...)

	return a, nil
}

// openSource creates the configured roster source wrapped with telemetry.
func openSource(ctx context.Context, cfg models.RosterConfig, log *slog.Logger) (*observability.InstrumentedSource, error) {
	source, err := storage.NewFactory(log).Create(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s roster: %w", cfg.Source, err)
	}
	instrumented, err := observability.NewInstrumentedSource(source, cfg.Source)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("failed to instrument roster source: %w", err)
	}
	return instrumented, nil
}

func (a *app) Close() error {
	if a.limiter != nil {
		a.limiter.Close()
	}
	return a.source.Close()
}

// importRoster copies the roster document at path into the configured
// roster source.
func importRoster(ctx context.Context, cfg models.RosterConfig, path string, log *slog.Logger) error {
	roster, err := storage.NewFileSource(path, log).LoadRoster(ctx)
	if err != nil {
		return err
	}

	target, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer target.Close()

	if err := target.SaveRoster(ctx, roster); err != nil {
		if errors.Is(err, observability.ErrReadOnlySource) {
			return fmt.Errorf("roster source %q cannot be written to", cfg.Source)
		}
		return fmt.Errorf("failed to save roster: %w", err)
	}

	log.Info("Roster imported", "path", path, "source", cfg.Source, "clients", len(roster.Clients))
	return nil
}
