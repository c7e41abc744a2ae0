package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentalhub/internal/app"
	"rentalhub/internal/config"
	"rentalhub/internal/pkg/logger"
	"rentalhub/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// each api process needs its own copy of every event for the hub
	cfg.RelayExclusive = cfg.RelayBroker == "amqp"

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("init app")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("close app")
		}
	}()

	if err := a.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("migrate")
	}

	// With the in-memory broker the consumers must live in this process.
	// With AMQP notifications run in cmd/relay, but the realtime hub needs
	// local delivery either way.
	if cfg.RelayBroker == "memory" {
		a.SubscribeConsumers(ctx)
	} else {
		a.Hub.Subscribe(a.Relay)
	}

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := a.Relay.Run(ctx); err != nil && !errors.Is(err, relay.ErrBrokerClosed) {
			log.WithError(err).Error("relay stopped")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}

	select {
	case <-relayDone:
	case <-shutdownCtx.Done():
		log.Warn("relay did not stop in time")
	}
}
