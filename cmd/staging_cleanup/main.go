package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"rentalhub/internal/app"
	"rentalhub/internal/config"
	"rentalhub/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	maxAge := pflag.Duration("max-age", 0, "delete staged uploads older than this (defaults to STAGING_MAX_AGE)")
	timeout := pflag.Duration("timeout", 5*time.Minute, "overall deadline")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if *maxAge <= 0 {
		*maxAge = cfg.StagingMaxAge
	}

	if err := run(cfg, log, *maxAge, *timeout); err != nil {
		log.WithError(err).Error("staging cleanup failed")
		os.Exit(1)
	}
}

// run keeps the deferred Close ahead of any exit.
func run(cfg *config.Config, log *logrus.Logger, maxAge, timeout time.Duration) error {
	// the sweep only touches object storage
	cfg.RelayBroker = "memory"

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("close app")
		}
	}()

	removed, err := a.Media.CleanupStaging(ctx, maxAge)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"removed": removed, "max_age": maxAge}).Info("staging cleanup completed")
	return nil
}
