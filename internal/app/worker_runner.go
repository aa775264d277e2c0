package app

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"agromarket-dispatch/internal/logx"
	"agromarket-dispatch/internal/transport/kafka"
)

// WorkerRunner runs the payment intake consumer and the confirmation
// resolver.
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner.
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun starts the worker using the provided DI container.
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

func workerRun(
	ctx context.Context,
	pool *pgxpool.Pool,
	logger logx.Logger,
	consumer *kafka.Consumer,
	resolver *Resolver,
) error {
	defer closeWorker(pool, logger, consumer)

	logger.Info("dispatch-worker started")

	if consumer == nil {
		logger.Warn("payment intake disabled: kafka not configured")
		return resolver.Run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 2)
	go func() { done <- resolver.Run(ctx) }()
	go func() { done <- consumer.Run(ctx) }()

	// first exit wins; cancel unblocks the other loop
	err := <-done
	cancel()
	<-done
	return err
}

func closeWorker(pool *pgxpool.Pool, logger logx.Logger, kafkaConsumer *kafka.Consumer) {
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Close(); err != nil {
			logger.Error("kafka close error", logx.Any("err", err))
		}
	}
	if pool != nil {
		pool.Close()
	}
}
