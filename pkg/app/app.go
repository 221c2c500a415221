// Package app wires the product service together: it opens the connection
// pool and the optional cache, event sinks and tracing from a config
// snapshot, and runs the HTTP and gRPC servers.
//
//	cfg, _ := config.Snapshot()
//	a, err := app.New(ctx, cfg)
//	if err != nil { ... }
//	defer a.Close()
//	return a.Serve(ctx)
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/productd/app/controllers"
	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/app/routes"
	"github.com/shashiranjanraj/productd/app/services"
	"github.com/shashiranjanraj/productd/config"
	"github.com/shashiranjanraj/productd/internal/kernel"
	"github.com/shashiranjanraj/productd/internal/server"
	"github.com/shashiranjanraj/productd/pkg/cache"
	"github.com/shashiranjanraj/productd/pkg/database"
	"github.com/shashiranjanraj/productd/pkg/event"
	grpcserver "github.com/shashiranjanraj/productd/pkg/grpc"
	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/router"
	"github.com/shashiranjanraj/productd/pkg/sse"
	"github.com/shashiranjanraj/productd/pkg/tracing"
	"github.com/shashiranjanraj/productd/pkg/ws"
)

const serviceName = "productd"

// Application owns every long-lived resource of the process.
type Application struct {
	Config   config.Config
	DB       *gorm.DB
	Cache    cache.Store
	Bus      *event.Bus
	Feed     *ws.Hub
	Events   *sse.Broker
	Products *services.ProductService

	closers []closer
}

type closer struct {
	name string
	fn   func() error
}

// New connects everything cfg enables. On error whatever was already opened
// is closed again.
func New(ctx context.Context, cfg config.Config) (*Application, error) {
	a := &Application{
		Config: cfg,
		Bus:    event.NewBus(),
		Feed:   ws.NewHub(),
		Events: sse.NewBroker(),
	}
	if err := a.open(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Application) open(ctx context.Context) error {
	cfg := a.Config

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}
	a.onClose("tracing", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdownTracing(ctx)
	})

	if cfg.LogMongoURI != "" {
		h, err := logger.NewMongoHandler(cfg.LogMongoURI, serviceName, serviceName, slog.LevelInfo)
		if err != nil {
			return err
		}
		logger.Replace(logger.New(os.Stdout, cfg.Env, h))
		a.onClose("mongo log sink", func() error {
			logger.Replace(logger.New(os.Stdout, cfg.Env))
			h.Close()
			return nil
		})
	}

	a.DB, err = database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	a.onClose("database", func() error { return database.Close(a.DB) })

	a.Cache, err = cache.New(ctx, cfg)
	if err != nil {
		return err
	}
	a.onClose("cache", a.Cache.Close)

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		a.Bus.ListenAll(pub.Handle)
		a.onClose("kafka", pub.Close)
	}
	if cfg.NATSURL != "" {
		pub, err := event.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return err
		}
		a.Bus.ListenAll(pub.Handle)
		a.onClose("nats", pub.Close)
	}
	a.Bus.ListenAll(a.Feed.Handle)
	a.Bus.ListenAll(a.Events.Handle)

	a.Products = services.NewProductService(a.Bus, a.Cache, cfg.CacheTTL)

	logger.Info("application ready",
		"env", cfg.Env,
		"db", cfg.DatabaseDriver,
		"cache", a.Cache.Driver(),
		"kafka", len(cfg.KafkaBrokers) > 0,
		"nats", cfg.NATSURL != "",
		"tracing", cfg.OTLPEndpoint != "",
	)
	return nil
}

func (a *Application) onClose(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// EnsureSchema creates the products table if it does not exist yet.
func (a *Application) EnsureSchema(ctx context.Context) error {
	return database.EnsureSchema(ctx, a.DB, &models.Product{})
}

// Kernel builds the HTTP handler.
func (a *Application) Kernel() (*kernel.HTTPKernel, error) {
	return kernel.NewHTTPKernel(func(r *router.Router) error {
		return routes.RegisterAPI(r, routes.Deps{
			DB:       a.DB,
			Products: a.Products,
			Feed:     a.Feed,
			Events:   a.Events,
		})
	})
}

// Serve ensures the schema, then serves HTTP on cfg.Addr() (and gRPC health
// on cfg.GRPCPort when set) until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.EnsureSchema(ctx); err != nil {
		return err
	}

	k, err := a.Kernel()
	if err != nil {
		return err
	}

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	go a.Feed.Run(feedCtx)

	if a.Config.GRPCPort != "" {
		gs := grpcserver.New(controllers.NewHealthController(a.DB).Ping)
		if err := gs.Start(a.Config.GRPCPort); err != nil {
			return err
		}
		defer gs.Stop()
		go gs.Watch(feedCtx, 15*time.Second)
	}

	return server.Run(ctx, server.New(a.Config.Addr(), k.Handler()))
}

// Close releases resources in reverse order of acquisition. Safe to call
// more than once.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
