// Package app wires configuration, storage, and the HTTP surface together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rentalhub/internal/config"
	"rentalhub/internal/database"
	"rentalhub/internal/domain"
	"rentalhub/internal/domain/booking"
	"rentalhub/internal/domain/gallery"
	"rentalhub/internal/domain/media"
	"rentalhub/internal/domain/notification"
	"rentalhub/internal/domain/property"
	"rentalhub/internal/domain/realtime"
	"rentalhub/internal/middleware"
	"rentalhub/internal/pkg/cache"
	"rentalhub/internal/pkg/jwt"
	"rentalhub/internal/pkg/objectstore"
	"rentalhub/internal/pkg/response"
	"rentalhub/internal/pkg/retry"
	"rentalhub/internal/pkg/validator"
	"rentalhub/internal/relay"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

type App struct {
	Config *config.Config
	Log    *logrus.Logger
	DB     *gorm.DB
	Store  objectstore.Store
	Broker relay.Broker
	Relay  *relay.Relay
	JWT    *jwt.Service
	Hub    *realtime.Hub

	Properties    *property.Repository
	Bookings      *booking.Service
	Gallery       *gallery.Service
	Media         *media.Service
	Notifications *notification.Service
	// NotificationCleanup drives the retention sweep started by SubscribeConsumers.
	NotificationCleanup notification.CleanupConfig

	intervals *cache.Cache[[]booking.Interval]
}

// New connects every backing service named in cfg. The caller owns Close.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, JWT: jwt.New(cfg.JWTSecret, tokenTTL)}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	a.DB = db

	if a.Store, err = newStore(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, err
	}
	if a.Broker, err = newBroker(cfg, log); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Relay = relay.New(a.Broker, log.WithField("component", "relay"))

	a.intervals = cache.New[[]booking.Interval](cache.Options{
		TTL:           cfg.BookedDatesCacheTTL,
		MemcachedHost: cfg.MemcachedHost,
		Logger:        log.WithField("component", "cache"),
	})

	a.Properties = property.NewRepository(db)
	a.Bookings = booking.NewService(booking.NewRepository(db), a.Properties, booking.Options{
		Cache:     a.intervals,
		Publisher: a.Relay,
		Policy:    booking.BlockedDatesPolicy(cfg.BlockedDatesPolicy),
		Logger:    log.WithField("component", "booking"),
	})
	a.Gallery = gallery.NewService(gallery.NewRepository(db), log.WithField("component", "gallery"))
	a.Media = media.NewService(a.Store, a.Properties, media.Options{
		PublicBase: cfg.S3PublicBase,
		UploadTTL:  cfg.UploadURLTTL,
		Retry: retry.Config{
			MaxAttempts: cfg.FinalizeAttempts,
			BaseDelay:   cfg.FinalizeRetryDelay,
			MaxDelay:    cfg.FinalizeMaxDelay,
		},
		Logger: log.WithField("component", "media"),
	})
	a.Notifications = notification.NewService(notification.NewRepository(db), log.WithField("component", "notification"))
	a.NotificationCleanup = notification.DefaultCleanupConfig()
	a.Hub = realtime.NewHub(log.WithField("component", "realtime"))

	return a, nil
}

func newStore(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	if cfg.ObjectStore == "memory" {
		return objectstore.NewMemory(cfg.S3PublicBase), nil
	}
	return objectstore.NewS3(ctx, objectstore.S3Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.AWSRegion,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
}

func newBroker(cfg *config.Config, log logrus.FieldLogger) (relay.Broker, error) {
	if cfg.RelayBroker == "memory" {
		return relay.NewMemoryBroker(), nil
	}
	return relay.DialAMQP(relay.AMQPOptions{
		URL:       cfg.RabbitMQURL,
		Exchange:  cfg.RelayExchange,
		Queue:     cfg.RelayQueue,
		Prefetch:  cfg.RelayPrefetch,
		Exclusive: cfg.RelayExclusive,
	}, log.WithField("component", "amqp"))
}

// Migrate creates the schema, including the postgres overlap constraint.
func (a *App) Migrate(ctx context.Context) error {
	if err := database.Migrate(a.DB,
		&domain.User{},
		&property.Property{},
		&gallery.PropertyImage{},
		&notification.Notification{},
	); err != nil {
		return err
	}
	if err := booking.Migrate(ctx, a.DB); err != nil {
		return fmt.Errorf("migrate bookings: %w", err)
	}
	return nil
}

// SubscribeConsumers attaches the in-process relay consumers and starts the
// notification retention sweep, which stops with ctx.
func (a *App) SubscribeConsumers(ctx context.Context) {
	a.Notifications.Subscribe(a.Relay)
	a.Notifications.ScheduleCleanup(ctx, a.NotificationCleanup)
	a.Hub.Subscribe(a.Relay)
}

func (a *App) Router() *gin.Engine {
	if a.Config.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.UseJSONNames()
	r := gin.New()
	r.Use(
		middleware.RequestLogger(a.Log),
		middleware.ErrorLogger(a.Log),
		middleware.CORS(a.Config.CORSOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	log := a.Log.WithField("component", "http")
	bookingHandler := booking.NewHandler(a.Bookings, log)
	galleryHandler := gallery.NewHandler(a.Gallery, log)
	mediaHandler := media.NewHandler(a.Media, log)
	notificationHandler := notification.NewHandler(a.Notifications, log)
	propertyHandler := property.NewHandler(a.Properties, a.Gallery, log)
	realtimeHandler := realtime.NewHandler(a.Hub, a.JWT, a.Config.CORSOrigins)

	v1 := r.Group("/api/v1")
	{
		propertyHandler.RegisterRoutes(v1)
		bookingHandler.RegisterPublicRoutes(v1)
		realtimeHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(a.JWT))
		{
			ownerOnly := middleware.OwnerOnly()
			bookingHandler.RegisterRoutes(protected, ownerOnly, middleware.TravelerOnly())
			galleryHandler.RegisterRoutes(protected, ownerOnly, middleware.CheckPropertyOwnership(a.Properties, log))
			mediaHandler.RegisterRoutes(protected, ownerOnly)
			notificationHandler.RegisterRoutes(protected)
		}
	}

	return r
}

// Close releases the broker, cache, and database. Safe on a partly built App.
func (a *App) Close() error {
	var errs []error
	if a.Broker != nil {
		if err := a.Broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close broker: %w", err))
		}
	}
	if a.intervals != nil {
		a.intervals.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
