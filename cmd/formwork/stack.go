package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/config"
	gormstore "github.com/aretw0/formwork/pkg/adapters/gorm"
	httpAdapter "github.com/aretw0/formwork/pkg/adapters/http"
	"github.com/aretw0/formwork/pkg/adapters/memory"
	redisstore "github.com/aretw0/formwork/pkg/adapters/redis"
	"github.com/aretw0/formwork/pkg/adapters/sqlite"
	"github.com/aretw0/formwork/pkg/observability"
	"github.com/aretw0/formwork/pkg/ports"
)

// stack is a fully wired engine with the resources it owns.
type stack struct {
	engine   *formwork.Engine
	streams  *httpAdapter.StreamManager
	registry *prometheus.Registry
	closers  []func() error
}

func (s *stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// buildStack wires the store, lock, events and metrics selected by cfg.
func buildStack(cfg config.Config, logger *slog.Logger) (*stack, error) {
	s := &stack{
		streams:  httpAdapter.NewStreamManager(logger),
		registry: prometheus.NewRegistry(),
	}

	var client *goredis.Client
	redisClient := func() *goredis.Client {
		if client == nil {
			client = goredis.NewClient(&goredis.Options{
				Addr:     cfg.Store.Redis.Addr,
				Password: cfg.Store.Redis.Password,
				DB:       cfg.Store.Redis.DB,
			})
			s.closers = append(s.closers, client.Close)
		}
		return client
	}

	var store ports.TemplateStore
	switch cfg.Store.Driver {
	case "memory":
		store = memory.NewStore()
	case "redis":
		store = redisstore.NewFromClient(redisClient(), redisstore.WithPrefix(cfg.Store.Redis.Prefix))
	case "sqlite":
		db, err := sqlite.Open(cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		store = db
	case "postgres":
		db, err := gormstore.Open(cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		store = db
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	publishers := observability.Fanout{s.streams}
	switch cfg.Events.Driver {
	case "redis":
		publishers = append(publishers, redisstore.NewPublisher(redisClient(), cfg.Events.Channel))
	default:
		publishers = append(publishers, observability.NewLogPublisher(logger))
	}

	opts := []formwork.Option{
		formwork.WithStore(store),
		formwork.WithPublisher(publishers),
		formwork.WithLogger(logger),
		formwork.WithCatalog(cfg.Catalog.Categories, cfg.Catalog.Types),
	}
	// Lineage locks only need to be distributed when replicas share a redis store.
	if cfg.Store.Driver == "redis" {
		opts = append(opts, formwork.WithLocker(redisstore.NewLocker(redisClient(), cfg.Store.Redis.Prefix), cfg.Lock.TTL))
	}
	if cfg.Metrics.Enabled {
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, formwork.WithMetrics(observability.NewMetrics(s.registry)))
	}

	s.engine = formwork.New(opts...)
	logger.Debug("engine ready", "store", cfg.Store.Driver, "events", cfg.Events.Driver, "metrics", cfg.Metrics.Enabled)
	return s, nil
}
