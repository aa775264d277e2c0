package app

import (
	"context"
	"time"

	"agromarket-dispatch/internal/config"
	"agromarket-dispatch/internal/logx"
	"agromarket-dispatch/internal/service/settlement"
)

// Resolver periodically auto-confirms deliveries whose customer never
// responded within the confirmation window.
type Resolver struct {
	svc      *settlement.Service
	interval time.Duration
	logger   logx.Logger
}

func newResolver(svc *settlement.Service, cfg *config.Config, logger logx.Logger) *Resolver {
	interval := cfg.Settlement.ResolveInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Resolver{svc: svc, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, resolving expired confirmations on each
// tick.
func (r *Resolver) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.svc.ResolveExpired(ctx); err != nil {
				r.logger.Error("resolve expired confirmations failed", logx.Any("err", err))
			}
		}
	}
}
