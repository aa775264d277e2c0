package settlement

import (
	"context"
	"strings"
	"time"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/logx"
	"agromarket-dispatch/internal/notify"
	"agromarket-dispatch/internal/ports/fulfilltx"
)

// Service tracks the two confirmation signals and finalizes the delivery
// once both are present. The join is symmetric: it does not matter whether
// the driver or the customer confirms first.
type Service struct {
	tx               txRunner
	requests         requestReader
	orders           orderReader
	settlements      settlementReader
	ratings          ratingRepository
	driverSharePct   int64
	confirmWindow    time.Duration
	settled          counter
	notifier         notify.Notifier
	logger           logx.Logger
	operationTimeout time.Duration
	now              func() time.Time
}

// NewService creates a new settlement Service.
func NewService(
	tx txRunner,
	requests requestReader,
	orders orderReader,
	settlements settlementReader,
	ratings ratingRepository,
	driverSharePct int64,
	confirmWindow time.Duration,
	settled counter,
	notifier notify.Notifier,
	timeout time.Duration,
	logger logx.Logger,
) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		tx:               tx,
		requests:         requests,
		orders:           orders,
		settlements:      settlements,
		ratings:          ratings,
		driverSharePct:   driverSharePct,
		confirmWindow:    confirmWindow,
		settled:          settled,
		notifier:         notifier,
		logger:           logger,
		operationTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// ConfirmByCustomer records the customer's side of the dual confirmation
// and settles in the same transaction if the driver's side is already in.
// Repeated confirmations are no-ops.
func (s *Service) ConfirmByCustomer(ctx context.Context, requestID, customerID string) error {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" || strings.TrimSpace(customerID) == "" {
		return apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.tx.WithTx(ctx, func(tx fulfilltx.Repository) error {
		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperr.ErrNotFound
		}
		if req.Status == domain.DeliveryPending || req.Status == domain.DeliveryCancelled {
			return apperr.ErrInvalidTransition
		}

		o, err := tx.GetOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.ErrNotFound
		}
		if o.BuyerID != customerID {
			return apperr.ErrNotAuthorized
		}

		if !req.CustomerConfirmed {
			if _, err := tx.SetCustomerConfirmed(ctx, requestID); err != nil {
				return err
			}
			req.CustomerConfirmed = true
		}

		return s.settleLocked(ctx, tx, req, o)
	})
}

// TrySettle runs the join for a request whose driver side just confirmed.
// It is a no-op unless both flags are set and the delivery reached
// delivered.
func (s *Service) TrySettle(ctx context.Context, requestID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.tx.WithTx(ctx, func(tx fulfilltx.Repository) error {
		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperr.ErrNotFound
		}

		o, err := tx.GetOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.ErrNotFound
		}

		return s.settleLocked(ctx, tx, req, o)
	})
}

// settleLocked finalizes under the request's row lock. The conditional
// ready → delivered order write doubles as the exactly-once guard: a second
// join attempt finds the order already delivered and leaves quietly.
func (s *Service) settleLocked(ctx context.Context, tx fulfilltx.Repository, req *domain.DeliveryRequest, o *domain.Order) error {
	if !req.CustomerConfirmed || !req.DriverConfirmed || req.Status != domain.DeliveryDelivered {
		return nil
	}
	if req.DriverID == nil {
		return apperr.ErrConflict
	}

	ok, err := tx.UpdateOrderStatus(ctx, o.ID, domain.OrderReady, domain.OrderDelivered)
	if err != nil {
		return err
	}
	if !ok {
		// already settled
		return nil
	}

	driverShare, platformShare := domain.SplitAmount(o.TotalAmount, s.driverSharePct)
	rec := &domain.SettlementRecord{
		RequestID:     req.ID,
		OrderID:       o.ID,
		Gross:         o.TotalAmount,
		DriverShare:   driverShare,
		PlatformShare: platformShare,
	}
	if err := tx.InsertSettlement(ctx, rec); err != nil {
		return err
	}
	if err := tx.ApplyDriverStats(ctx, *req.DriverID, driverShare); err != nil {
		return err
	}

	if s.settled != nil {
		s.settled.Inc()
	}
	s.notifier.Notify(ctx, o.BuyerID, notify.EventOrderDelivered, settlementEvent(rec))
	s.notifier.Notify(ctx, o.SellerID, notify.EventSettlementPaid, settlementEvent(rec))
	s.logger.Info("delivery settled",
		logx.String("event", "delivery_settled"),
		logx.String("request_id", req.ID),
		logx.String("order_id", o.ID),
		logx.Int64("driver_share", driverShare),
		logx.Int64("platform_share", platformShare),
	)
	return nil
}

// GetSettlement returns the settlement record for a request, or
// apperr.ErrSettlementNotReady while the dual confirmation is incomplete.
func (s *Service) GetSettlement(ctx context.Context, requestID string) (*domain.SettlementRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.settlements.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperr.ErrNotFound
	}
	return nil, apperr.ErrSettlementNotReady
}

// RateDriver accepts a customer rating, gated on the customer having
// confirmed receipt.
func (s *Service) RateDriver(ctx context.Context, requestID, customerID string, rating int) error {
	if rating < 1 || rating > 5 {
		return apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return apperr.ErrNotFound
	}

	o, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return err
	}
	if o == nil {
		return apperr.ErrNotFound
	}
	if o.BuyerID != customerID {
		return apperr.ErrNotAuthorized
	}

	if !req.CustomerConfirmed {
		return apperr.ErrConflict
	}
	if req.DriverID == nil {
		return apperr.ErrConflict
	}

	return s.ratings.ApplyRating(ctx, *req.DriverID, rating)
}

// ResolveExpired auto-confirms the customer side of requests that have sat
// delivered with only the driver's flag past the confirmation window, then
// settles them. Called from the worker on an interval.
func (s *Service) ResolveExpired(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cutoff := s.now().Add(-s.confirmWindow)
	stale, err := s.requests.ListUnconfirmedBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, req := range stale {
		err := s.tx.WithTx(ctx, func(tx fulfilltx.Repository) error {
			locked, err := tx.GetRequestForUpdate(ctx, req.ID)
			if err != nil {
				return err
			}
			if locked == nil || locked.CustomerConfirmed {
				return nil
			}

			o, err := tx.GetOrder(ctx, locked.OrderID)
			if err != nil {
				return err
			}
			if o == nil {
				return nil
			}

			if _, err := tx.SetCustomerConfirmed(ctx, locked.ID); err != nil {
				return err
			}
			locked.CustomerConfirmed = true
			return s.settleLocked(ctx, tx, locked, o)
		})
		if err != nil {
			s.logger.Error("stale confirmation resolve failed",
				logx.String("request_id", req.ID),
				logx.Any("err", err),
			)
			continue
		}
		s.logger.Info("stale confirmation resolved",
			logx.String("event", "confirmation_timeout"),
			logx.String("request_id", req.ID),
		)
	}
	return nil
}

func settlementEvent(rec *domain.SettlementRecord) map[string]any {
	return map[string]any{
		"request_id":     rec.RequestID,
		"order_id":       rec.OrderID,
		"gross":          rec.Gross,
		"driver_share":   rec.DriverShare,
		"platform_share": rec.PlatformShare,
	}
}
