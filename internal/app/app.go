// Package app wires configuration, storage, the gateway client and the sync
// and checkout services into the pieces the binaries run.
package app

import (
	"context"
	"errors"
	"fmt"

	"storesync/internal/api"
	"storesync/internal/api/handlers"
	"storesync/internal/checkout"
	"storesync/internal/config"
	"storesync/internal/database"
	"storesync/internal/events"
	"storesync/internal/lock"
	"storesync/internal/logger"
	"storesync/internal/productsync"
	"storesync/internal/reconciler"
	"storesync/internal/services/ironpay"
	"storesync/internal/store"
	"storesync/internal/validation"
)

type App struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *database.Database
	Gateway    *ironpay.Client
	Products   *store.ProductStore
	Orders     *store.OrderStore
	Sync       *productsync.Service
	Dispatcher productsync.Dispatcher
	Checkout   *checkout.Service

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := database.New(cfg.DatabaseURL, database.Options{LogLevel: cfg.LogLevel})
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Gateway:  ironpay.NewClient(cfg.IronPay.APIURL, cfg.IronPay.APIToken, log),
		Products: store.NewProductStore(db.DB),
		Orders:   store.NewOrderStore(db.DB),
		closers:  []func() error{db.Close},
	}

	rec := reconciler.New(a.Gateway, reconciler.Config{
		StoreBaseURL:      cfg.StoreBaseURL,
		Categories:        cfg.IronPay.Categories,
		DefaultCategoryID: cfg.IronPay.DefaultCategoryID,
	}, log)

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Sync = productsync.NewService(rec, a.Products, locker, log)

	if cfg.SyncMode == config.SyncModeAsync {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers(), cfg.Kafka.Topic, log)
		a.closers = append(a.closers, publisher.Close)
		a.Dispatcher = productsync.NewQueueDispatcher(publisher)
		log.Info("Product sync queued to Kafka topic %s", cfg.Kafka.Topic)
	} else {
		a.Dispatcher = productsync.NewInlineDispatcher(a.Sync)
	}

	builder := checkout.NewBuilder(a.Gateway, rec, validation.New(log), checkout.Config{
		StoreBaseURL:     cfg.StoreBaseURL,
		DefaultOfferHash: cfg.IronPay.DefaultOfferHash,
		MinItemPrice:     cfg.IronPay.MinItemPrice,
		ExpireInDays:     cfg.IronPay.ExpireInDays,
		PostbackURL:      cfg.PostbackURL(),
	}, log)
	a.Checkout = checkout.NewService(builder, a.Gateway, a.Orders, log)

	return a, nil
}

// newLocker uses Redis when configured so that API replicas and workers
// serialize syncs of the same product; otherwise the lock is per process.
func (a *App) newLocker(ctx context.Context) (lock.Locker, error) {
	if a.Config.RedisURL == "" {
		return lock.NewMemory(), nil
	}

	client, err := lock.NewRedisClient(ctx, a.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.Logger.Info("Using Redis product lock")
	return lock.NewRedis(client, lock.RedisOptions{}, a.Logger), nil
}

func (a *App) Handlers() api.Handlers {
	return api.Handlers{
		Health:   handlers.NewHealthHandler(a.DB),
		Products: handlers.NewProductHandler(a.Products, a.Dispatcher, a.Logger),
		IronPay:  handlers.NewIronPayHandler(a.Gateway, a.Logger),
		Checkout: handlers.NewCheckoutHandler(a.Checkout, a.Logger),
		Orders:   handlers.NewOrderHandler(a.Orders, a.Logger),
		Webhooks: handlers.NewWebhookHandler(a.Orders, a.Config.IronPay.WebhookSecret, a.Logger),
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
