package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"agromarket-dispatch/internal/auth"
	"agromarket-dispatch/internal/config"
	"agromarket-dispatch/internal/http/handlers"
	"agromarket-dispatch/internal/http/middleware/ratelimit"
	"agromarket-dispatch/internal/http/router"
	"agromarket-dispatch/internal/logx"
	"agromarket-dispatch/internal/metrics"
	"agromarket-dispatch/internal/notify"
	"agromarket-dispatch/internal/repository"
	"agromarket-dispatch/internal/service/dispatch"
	"agromarket-dispatch/internal/service/drivers"
	"agromarket-dispatch/internal/service/orders"
	"agromarket-dispatch/internal/service/settlement"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function.
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function.
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container.
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

type countersOut struct {
	dig.Out
	ClaimConflicts    prometheus.Counter `name:"claim_conflicts_total"`
	Settlements       prometheus.Counter `name:"settlements_total"`
	NotifyFailures    prometheus.Counter `name:"notify_failures_total"`
	RateLimitExceeded prometheus.Counter `name:"rate_limit_exceeded_total"`
}

func newCounters() countersOut {
	return countersOut{
		ClaimConflicts:    metrics.NewClaimConflictsTotal(),
		Settlements:       metrics.NewSettlementsTotal(),
		NotifyFailures:    metrics.NewNotifyFailuresTotal(),
		RateLimitExceeded: metrics.NewRateLimitExceededTotal(),
	}
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		func() *log.Logger { return log.Default() },
		NewLogger,
		config.Load,
		newCounters,
		func(cfg *config.Config) *auth.TokenService {
			return auth.NewTokenService(cfg.AuthSecret, 24*time.Hour)
		},
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		pool, err := dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
		if err != nil {
			return nil, err
		}
		if err := repository.Migrate(cfg.DB.DSN()); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	}
	return provideAll(container, providerDB)
}

type notifierIn struct {
	dig.In
	Cfg      *config.Config
	Logger   logx.Logger
	Failures prometheus.Counter `name:"notify_failures_total"`
}

func newNotifier(in notifierIn) (notify.Notifier, error) {
	n, err := notify.NewKafkaNotifier(in.Cfg.Kafka.Brokers, in.Cfg.Kafka.NotificationsTopic, in.Logger, in.Failures)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return notify.Nop(), nil
	}
	return n, nil
}

type dispatchIn struct {
	dig.In
	Requests  *repository.DeliveryRepo
	Drivers   *repository.DriverRepo
	Orders    *repository.OrderRepo
	Settler   *settlement.Service
	Factory   dispatch.ETAFactory
	Conflicts prometheus.Counter `name:"claim_conflicts_total"`
	Notifier  notify.Notifier
	Timeout   time.Duration
	Logger    logx.Logger
}

type settlementIn struct {
	dig.In
	Cfg      *config.Config
	Requests *repository.DeliveryRepo
	Orders   *repository.OrderRepo
	Records  *repository.SettlementRepo
	Drivers  *repository.DriverRepo
	Settled  prometheus.Counter `name:"settlements_total"`
	Notifier notify.Notifier
	Timeout  time.Duration
	Logger   logx.Logger
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		repository.NewOrderRepo,
		repository.NewDeliveryRepo,
		repository.NewDriverRepo,
		repository.NewSettlementRepo,
		func() time.Duration { return 3 * time.Second },
		newNotifier,
		func(repo *repository.DriverRepo, timeout time.Duration) *drivers.Service {
			return drivers.NewService(repo, timeout)
		},
		func(
			repo *repository.OrderRepo,
			tx *repository.DeliveryRepo,
			notifier notify.Notifier,
			timeout time.Duration,
			logger logx.Logger,
		) *orders.Service {
			return orders.NewService(repo, tx, notifier, timeout, logger)
		},
		func() dispatch.ETAFactory { return dispatch.NewETAFactory() },
		func(in settlementIn) *settlement.Service {
			return settlement.NewService(
				in.Requests, in.Requests, in.Orders, in.Records, in.Drivers,
				in.Cfg.Settlement.DriverSharePct, in.Cfg.Settlement.ConfirmWindow,
				in.Settled, in.Notifier, in.Timeout, in.Logger,
			)
		},
		func(in dispatchIn) *dispatch.Service {
			return dispatch.NewService(
				in.Requests, in.Drivers, in.Orders, in.Settler, in.Factory,
				in.Conflicts, in.Notifier, in.Timeout, in.Logger,
			)
		},
	)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		handlers.NewOrderUsecase,
		handlers.NewOrderHandler,
		handlers.NewDispatchUsecase,
		handlers.NewDispatchHandler,
		handlers.NewDriverUsecase,
		handlers.NewDriverHandler,
		handlers.NewSettlementUsecase,
		handlers.NewSettlementHandler,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		newRouter,
		serverProvider,
	)
}

type routerIn struct {
	dig.In
	Base        *handlers.Handlers
	Orders      *handlers.OrderHandler
	Dispatch    *handlers.DispatchHandler
	Drivers     *handlers.DriverHandler
	Settlements *handlers.SettlementHandler
	Tokens      *auth.TokenService
	RateLimit   *ratelimit.Middleware
	Logger      logx.Logger
}

func newRouter(in routerIn) http.Handler {
	return router.New(router.Deps{
		Base:        in.Base,
		Orders:      in.Orders,
		Dispatch:    in.Dispatch,
		Drivers:     in.Drivers,
		Settlements: in.Settlements,
		Tokens:      in.Tokens,
		RateLimit:   in.RateLimit,
		Logger:      in.Logger,
	})
}
