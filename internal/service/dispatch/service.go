package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/geo"
	"agromarket-dispatch/internal/logx"
	"agromarket-dispatch/internal/notify"
)

// Service exposes the open pool to drivers and performs the atomic
// single-winner claim. All contention is resolved by the store's
// conditional write; this layer never read-then-writes the assignment.
type Service struct {
	requests         deliveryRepository
	drivers          driverDirectory
	orders           orderDirectory
	settler          settler
	factory          ETAFactory
	conflicts        counter
	notifier         notify.Notifier
	logger           logx.Logger
	operationTimeout time.Duration
	now              func() time.Time
}

// NewService creates a new dispatch Service.
func NewService(
	requests deliveryRepository,
	drivers driverDirectory,
	orders orderDirectory,
	settler settler,
	factory ETAFactory,
	conflicts counter,
	notifier notify.Notifier,
	timeout time.Duration,
	logger logx.Logger,
) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		requests:         requests,
		drivers:          drivers,
		orders:           orders,
		settler:          settler,
		factory:          factory,
		conflicts:        conflicts,
		notifier:         notifier,
		logger:           logger,
		operationTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// ListOpen returns the pending requests whose pickup point lies within the
// driver's operating radius. The filter is advisory, for display and
// ranking; it does not gate the claim.
func (s *Service) ListOpen(ctx context.Context, driverID int64) ([]domain.DeliveryRequest, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	driver, err := s.getDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	pool, err := s.requests.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DeliveryRequest, 0, len(pool))
	for _, req := range pool {
		if geo.WithinRadius(driver.ZoneLat, driver.ZoneLon, driver.RadiusKm, req.Pickup.Lat, req.Pickup.Lon) {
			out = append(out, req)
		}
	}
	return out, nil
}

// Claim attempts to take sole ownership of a pending request for the
// driver. Exactly one concurrent caller wins; the rest get
// apperr.ErrAlreadyClaimed and should pick another request.
func (s *Service) Claim(ctx context.Context, requestID string, driverID int64) (*domain.DeliveryRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	driver, err := s.getDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !driver.Online {
		return nil, apperr.ErrConflict
	}

	// Read only to price the ETA; the conditional write below re-checks
	// everything that matters.
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperr.ErrNotFound
	}

	distance := geo.DistanceKm(driver.ZoneLat, driver.ZoneLon, req.Pickup.Lat, req.Pickup.Lon) +
		geo.DistanceKm(req.Pickup.Lat, req.Pickup.Lon, req.Dropoff.Lat, req.Dropoff.Lon)
	eta, err := s.factory.ETA(driver.TransportType, distance, s.now())
	if err != nil {
		return nil, err
	}

	claimed, err := s.requests.Claim(ctx, requestID, driverID, eta)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyClaimed) && s.conflicts != nil {
			s.conflicts.Inc()
		}
		return nil, err
	}

	s.notifyBuyer(ctx, claimed, notify.EventDeliveryClaimed)
	s.logger.Info("delivery claimed",
		logx.String("event", "delivery_claimed"),
		logx.String("request_id", claimed.ID),
		logx.Int64("driver_id", driverID),
		logx.Float64("distance_km", distance),
	)
	return claimed, nil
}

// Advance moves a claimed request one step along the driver-authored path.
// Only the assigned driver may advance, and only from the immediately prior
// status. Reaching delivered stamps the driver confirmation and attempts
// the settlement join.
func (s *Service) Advance(ctx context.Context, requestID string, driverID int64, next domain.DeliveryStatus) (*domain.DeliveryRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" || !next.Valid() {
		return nil, apperr.ErrInvalid
	}
	prev, ok := next.Prev()
	if !ok || next == domain.DeliveryAccepted {
		// accepted is entered through Claim, nothing else
		return nil, apperr.ErrInvalidTransition
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := s.requests.AdvanceStatus(ctx, requestID, driverID, prev, next)
	if err != nil {
		return nil, err
	}

	if next == domain.DeliveryDelivered {
		// The physical delivery is done; money waits for the customer's
		// side of the dual confirmation. A settle failure here must not
		// undo the committed status write.
		if err := s.settler.TrySettle(ctx, requestID); err != nil {
			s.logger.Error("settlement attempt failed",
				logx.String("request_id", requestID),
				logx.Any("err", err),
			)
		}
	}

	s.notifyBuyer(ctx, req, eventForDeliveryStatus(next))
	return req, nil
}

func (s *Service) notifyBuyer(ctx context.Context, req *domain.DeliveryRequest, eventType string) {
	o, err := s.orders.Get(ctx, req.OrderID)
	if err != nil || o == nil {
		s.logger.Warn("notification recipient lookup failed",
			logx.String("order_id", req.OrderID),
			logx.Any("err", err),
		)
		return
	}
	s.notifier.Notify(ctx, o.BuyerID, eventType, requestEvent(req))
}

func (s *Service) getDriver(ctx context.Context, driverID int64) (*domain.Driver, error) {
	if driverID <= 0 {
		return nil, apperr.ErrInvalid
	}
	driver, err := s.drivers.Get(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, apperr.ErrNotFound
	}
	return driver, nil
}

func eventForDeliveryStatus(s domain.DeliveryStatus) string {
	switch s {
	case domain.DeliveryPickedUp:
		return notify.EventDeliveryPickedUp
	case domain.DeliveryInTransit:
		return notify.EventDeliveryInTransit
	default:
		return notify.EventDeliveryDelivered
	}
}

func requestEvent(d *domain.DeliveryRequest) map[string]any {
	ev := map[string]any{
		"request_id": d.ID,
		"order_id":   d.OrderID,
		"status":     string(d.Status),
	}
	if d.ETA != nil {
		ev["eta"] = d.ETA.UTC()
	}
	return ev
}
