package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dewyman/TALON/internal/api"
	"github.com/dewyman/TALON/internal/config"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the annotation engine over HTTP",
		Long: `Serve loads the configured build once and answers annotation, vertex
match and classification requests against it. Transcripts minted by requests
are checkpointed like a batch run and persisted on shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewRouter(&api.RouterDeps{
			Log:         log,
			DB:          sess.backend,
			Annotator:   sess.annotator,
			CORSOrigins: cfg.CORSOrigins,
			Version:     config.Version,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)

	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "version": config.Version}).Info("listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err, ok := <-errCh:
		if ok {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("shutdown: %w", err))
	}

	return errors.Join(serveErr, sess.finish(shutdownCtx))
}
