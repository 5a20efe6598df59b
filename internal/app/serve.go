package app

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"fxhedge/internal/api"
	"fxhedge/internal/storage"
)

// Serve runs the JSON HTTP API until interrupted.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spots, closeSpots, err := a.newSpotFetcher()
	if err != nil {
		return err
	}
	defer closeSpots()
	svc, err := a.newService(spots)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	var analyses storage.AnalysisStore
	if store != nil {
		defer closeStore()
		analyses = store
	} else {
		a.Logger.Warn().Msg("database.dsn not configured; hedge analyses will not be recorded")
	}

	handler := api.NewHandler(svc, analyses, a.Logger)
	if store != nil {
		handler.WithDatabase(store)
	}

	srv := a.Config.Server
	addr := srv.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	return api.Serve(ctx, api.Options{
		Addr:         addr,
		ReadTimeout:  srv.ReadTimeout,
		WriteTimeout: srv.WriteTimeout,
		RateLimit:    srv.RateLimit,
		RateWindow:   srv.RateWindow,
		Production:   strings.EqualFold(a.Config.App.Environment, "production"),
	}, handler)
}
