package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"agromarket-dispatch/internal/config"
	"agromarket-dispatch/internal/logx"
	"agromarket-dispatch/internal/service/orders"
	"agromarket-dispatch/internal/service/payments"
	"agromarket-dispatch/internal/transport/kafka"
)

// WorkerContainerBuilder is a dig container builder for the worker binary.
type WorkerContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
}

// NewWorkerContainerBuilder returns a new worker container builder.
func NewWorkerContainerBuilder() *WorkerContainerBuilder {
	return &WorkerContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function.
func (b *WorkerContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *WorkerContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// MustBuild builds and returns a new dig container for the worker.
func (b *WorkerContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build worker container: %v", err)
	}
	return container
}

func (b *WorkerContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerWorkerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerWorker(container); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	return container, nil
}

// MustBuildWorkerContainer builds and returns a new worker dig container.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewWorkerContainerBuilder().MustBuild(ctx)
}

func registerWorkerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		func() *log.Logger { return log.Default() },
		NewWorkerLogger,
		config.Load,
		newCounters,
	)
}

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		func(svc *orders.Service) payments.OrdersPort { return svc },
		payments.NewProcessor,
		makePaymentsHandler,
		func(cfg *config.Config, h kafka.HandleFunc, logger logx.Logger) (*kafka.Consumer, error) {
			return kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.PaymentsGroup, cfg.Kafka.PaymentsTopic, h, logger)
		},
		newResolver,
	)
}

func makePaymentsHandler(p *payments.Processor) kafka.HandleFunc {
	return func(ctx context.Context, event payments.Event) error {
		return p.Handle(ctx, event)
	}
}

// NewWorkerLogger returns the zap-backed logger used by the worker binary.
func NewWorkerLogger() (logx.Logger, error) {
	base, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return logx.NewZapAdapter(base), nil
}
