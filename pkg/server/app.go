package server

import (
	"context"
	"fmt"
	"io"
	"os"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
	"FinSignal/internal/handler/cli"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	applogger "FinSignal/pkg/logger"
)

// App encapsulates the application lifecycle: one-shot runs and the HTTP API.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	builder     *usecase.SignalTableBuilder
	publisher   repository.SignalPublisher
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies. publisher may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	builder *usecase.SignalTableBuilder,
	publisher repository.SignalPublisher,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		builder:     builder,
		publisher:   publisher,
		httpHandler: httpHandler,
	}
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

// RunOnce builds the table for the configured universe, writes it to out (or
// to output.path when set) and publishes the rows when a publisher is wired.
// Record errors are part of the table and do not fail the run.
func (a *App) RunOnce(ctx context.Context, out io.Writer) (*models.SignalTable, error) {
	table, err := a.builder.Build(ctx, usecase.BuildParams{
		Tickers: a.cfg.Universe.Tickers,
		Policy:  usecase.RowPolicy{DropEmpty: a.cfg.Output.DropEmptyRows},
	})
	if err != nil {
		return nil, err
	}

	if a.cfg.Output.Path != "" {
		f, err := os.Create(a.cfg.Output.Path)
		if err != nil {
			return table, fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := cli.WriteTable(out, table, a.cfg.Output.Format); err != nil {
		return table, fmt.Errorf("write output: %w", err)
	}

	if a.publisher != nil {
		if err := a.publisher.PublishRows(ctx, table); err != nil {
			return table, fmt.Errorf("publish signals: %w", err)
		}
		a.log.Info("signals published", applogger.Int("rows", len(table.Rows)))
	}

	for _, rerr := range table.Errors {
		a.log.Warn("signal table error",
			applogger.String("component", rerr.Component),
			applogger.String("ticker", rerr.Ticker),
			applogger.String("error", rerr.Message),
		)
	}
	return table, nil
}

// Serve runs the HTTP API until ctx is cancelled or the listener fails.
func (a *App) Serve(ctx context.Context) error {
	srv := xhttp.NewServer(a.log, []xhttp.Handler{a.httpHandler},
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithCORS(!a.cfg.Server.DisableCORS),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.metricsPath()),
	)
	if err := srv.Start(); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case serveErr = <-srv.Errors():
	}

	// the parent context is already done; give shutdown its own deadline
	if err := srv.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	return serveErr
}

func (a *App) metricsPath() string {
	if a.cfg.Metrics.Disabled {
		return ""
	}
	return a.cfg.Metrics.Path
}
