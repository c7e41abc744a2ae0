// Command relay consumes booking events and stores notifications. Run one
// or more next to cmd/api when RELAY_BROKER=amqp.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rentalhub/internal/app"
	"rentalhub/internal/config"
	"rentalhub/internal/domain/notification"
	"rentalhub/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	queue := pflag.String("queue", "", "consumer queue name (defaults to RELAY_EXCHANGE + \".notifications\")")
	retention := pflag.Duration("retention", notification.DefaultCleanupConfig().Retention, "how long read notifications are kept")
	sweep := pflag.Duration("sweep-interval", notification.DefaultCleanupConfig().Interval, "retention sweep interval, 0 disables")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.RelayBroker == "memory" {
		log.Fatal("cmd/relay needs RELAY_BROKER=amqp; the memory broker only works inside cmd/api")
	}
	cfg.RelayQueue = notificationQueue(*queue, cfg.RelayExchange)

	cleanup := notification.CleanupConfig{Retention: *retention, Interval: *sweep}
	if err := run(cfg, log, cleanup); err != nil {
		log.WithError(err).Error("relay stopped")
		os.Exit(1)
	}
	log.Info("relay consumer stopped")
}

func notificationQueue(flagValue, exchange string) string {
	if flagValue != "" {
		return flagValue
	}
	return exchange + ".notifications"
}

// run keeps the deferred Close ahead of any exit.
func run(cfg *config.Config, log *logrus.Logger, cleanup notification.CleanupConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("close app")
		}
	}()

	if err := a.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	a.Notifications.Subscribe(a.Relay)
	a.Notifications.ScheduleCleanup(ctx, cleanup)

	log.WithField("queue", cfg.RelayQueue).Info("relay consumer started")
	return a.Relay.Run(ctx)
}
