package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/rpsvision/cmd/rpsvision/shared"
	"github.com/lox/rpsvision/internal/classifier"
)

type ModelServerCmd struct {
	Addr   string        `kong:"default='localhost:8090',help='Address to listen on'"`
	Path   string        `kong:"default='/model',help='WebSocket endpoint path'"`
	Period time.Duration `kong:"default='2s',help='How long each gesture is held'"`
	Debug  bool          `kong:"help='Enable debug logging'"`
}

func (c *ModelServerCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx, stop := shared.SetupSignalHandler(logger)
	defer stop()

	model := classifier.NewCycle(quartz.NewReal(), c.Period, "rock", "paper", "scissors", "none")
	mux := http.NewServeMux()
	mux.Handle(c.Path, classifier.NewHandler(model, logger))

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Model server listening", "addr", c.Addr, "path", c.Path, "period", c.Period)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
