// Package server initializes and runs the forum server. It wires the
// flat-file stores to the UDP control plane and the TCP data plane,
// handles graceful shutdown on OS signals, and selects the attachment
// backend (local disk or an S3-compatible bucket) from configuration.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"forum/internal/filex"
	"forum/internal/logging"
	"forum/internal/server/blob"
	"forum/internal/server/config"
	"forum/internal/server/control"
	"forum/internal/server/sessions"
	"forum/internal/server/threads"
	"forum/internal/server/transfer"
	"forum/internal/server/users"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	control  *control.Server
	transfer *transfer.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	dataDir, err := filex.EnsureSubDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir init error: %w", err)
	}

	userRepo := users.NewFileRepository(filepath.Join(dataDir, cfg.CredentialsFile))
	userService, err := users.NewService(userRepo)
	if err != nil {
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	registry := sessions.NewRegistry(userService)

	var blobs blob.Store
	if cfg.S3Bucket != "" {
		s3, err := blob.NewS3Store(ctx, cfg.S3BaseEndpoint, cfg.S3Region,
			cfg.S3RootUser, cfg.S3RootPassword, cfg.S3Bucket)
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		blobs = s3
	} else {
		blobs = blob.NewDiskStore(dataDir)
	}

	threadStore, err := threads.NewStore(dataDir, blobs, logger)
	if err != nil {
		return nil, fmt.Errorf("thread store init error: %w", err)
	}

	dispatcher := control.NewDispatcher(userService, registry, threadStore, logger)

	app := &App{
		config:   cfg,
		logger:   logger,
		control:  control.NewServer(cfg.EndpointAddr, cfg.WorkerPoolSize, dispatcher, logger),
		transfer: transfer.NewServer(cfg.EndpointAddr, threadStore, blobs, logger),
	}
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts both planes and blocks until either one fails or the context
// is cancelled (including via SIGINT/SIGTERM/SIGQUIT).
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.control.Run(ctx)
	})
	g.Go(func() error {
		return app.transfer.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		app.logger.Error(ctx, "Server stopped", "error", err.Error())
		return err
	}

	app.logger.Info(ctx, "Server stopped")
	return nil
}
