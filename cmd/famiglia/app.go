package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"famiglia/internal/blob"
	"famiglia/internal/config"
	"famiglia/internal/core"
	"famiglia/internal/logging"
)

// app is the wired service for one command invocation.
type app struct {
	svc        *core.Service
	logger     *logging.Logger
	registry   *prometheus.Registry
	metricsOut string
	closers    []io.Closer
}

func openApp(ctx context.Context, cfg config.Config, opts *rootOptions, stderr io.Writer) (*app, error) {
	logger, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	engine := core.NewDefaultRulesEngine(cfg.StrictIntegrity)
	store, err := core.OpenPersistentStore(cfg.Storage, engine)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &app{logger: logger, metricsOut: opts.metricsOut}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	archive, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a.registry = prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(a.registry, cfg.MetricsNS)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	svcOpts := []core.Option{
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
		core.WithAuditRecorder(auditLog{logger: logger}),
		core.WithArchive(archive),
	}
	if opts.trace {
		svcOpts = append(svcOpts, core.WithTracer(core.NewJSONTracer(stderr)))
	}
	a.svc = core.NewService(store, svcOpts...)
	logger.Debug("famiglia ready",
		"storage", cfg.Storage.Driver,
		"archive", string(archive.Driver()),
		"strict", cfg.StrictIntegrity,
		"rules", engine.Rules(),
	)
	return a, nil
}

// Close writes metrics when requested and releases store handles.
func (a *app) Close() error {
	var errs []error
	if a.metricsOut != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(a.metricsOut, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// auditLog forwards audit entries to the structured logger.
type auditLog struct {
	logger *logging.Logger
}

func (l auditLog) Record(_ context.Context, entry core.AuditEntry) {
	args := []any{
		"operation", entry.Operation,
		"entity", string(entry.Entity),
		"action", string(entry.Action),
		"member", int(entry.EntityID),
		"status", string(entry.Status),
		"violations", entry.Violations,
		"duration", entry.Duration,
	}
	if entry.Error != "" {
		args = append(args, "error", entry.Error)
	}
	l.logger.Info("audit", args...)
}

func withApp(ctx context.Context, opts *rootOptions, stderr io.Writer, strict bool, fn func(*app) error) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if strict {
		cfg.StrictIntegrity = true
	}
	a, err := openApp(ctx, cfg, opts, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(a)
}
