package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/logx"
	"agromarket-dispatch/internal/notify"
	"agromarket-dispatch/internal/ports/fulfilltx"
)

// Service owns the order lifecycle: payment intake through preparation to
// handoff into the dispatch engine (delivery mode) or direct completion
// (pickup mode).
type Service struct {
	repo             ordersRepository
	tx               txRunner
	notifier         notify.Notifier
	logger           logx.Logger
	operationTimeout time.Duration
	now              func() time.Time
	newID            func() string
}

// NewService creates and configures an order Service.
func NewService(repo ordersRepository, tx txRunner, notifier notify.Notifier, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		repo:             repo,
		tx:               tx,
		notifier:         notifier,
		logger:           logger,
		operationTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// CreateInput carries everything the payment collaborator supplies for a
// freshly paid order. ID is optional; when empty one is generated.
type CreateInput struct {
	ID              string
	BuyerID         string
	SellerID        string
	TotalAmount     int64
	Currency        string
	Mode            domain.FulfillmentMode
	PickupAddress   domain.Address
	DeliveryAddress *domain.Address
}

func validateCreate(in *CreateInput) error {
	if strings.TrimSpace(in.BuyerID) == "" || strings.TrimSpace(in.SellerID) == "" {
		return apperr.ErrInvalid
	}
	if in.TotalAmount <= 0 {
		return apperr.ErrInvalid
	}
	if len(in.Currency) != 3 {
		return apperr.ErrInvalid
	}
	if !in.Mode.Valid() {
		return apperr.ErrInvalid
	}
	if in.Mode == domain.ModeDelivery && in.DeliveryAddress == nil {
		return apperr.ErrInvalid
	}
	if in.Mode == domain.ModePickup && in.DeliveryAddress != nil {
		return apperr.ErrInvalid
	}
	return nil
}

// Create persists a paid order in its initial status. Payment itself is the
// collaborator's concern; this core trusts the input.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = s.newID()
	}

	o := &domain.Order{
		ID:              id,
		BuyerID:         in.BuyerID,
		SellerID:        in.SellerID,
		TotalAmount:     in.TotalAmount,
		Currency:        strings.ToUpper(in.Currency),
		Mode:            in.Mode,
		Status:          domain.OrderPendingPayment,
		PickupAddress:   in.PickupAddress,
		DeliveryAddress: in.DeliveryAddress,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, o.SellerID, notify.EventOrderPlaced, orderEvent(o))
	s.logger.Info("order created",
		logx.String("event", "order_created"),
		logx.String("order_id", o.ID),
		logx.String("mode", string(o.Mode)),
		logx.Int64("amount", o.TotalAmount),
	)
	return o, nil
}

// Advance moves an order one step along its path on behalf of the actor.
// Delivered is owned by settlement and cancelled by Cancel; both are
// rejected here.
func (s *Service) Advance(ctx context.Context, orderID string, next domain.OrderStatus, actor domain.Actor) (*domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" || !next.Valid() {
		return nil, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	switch next {
	case domain.OrderConfirmed, domain.OrderPreparing:
		return s.advanceSimple(ctx, orderID, next, actor)
	case domain.OrderReady:
		return s.markReady(ctx, orderID, actor)
	case domain.OrderCancelled:
		return s.Cancel(ctx, orderID, actor)
	default:
		// delivered is written by settlement only
		return nil, apperr.ErrNotAuthorized
	}
}

func (s *Service) advanceSimple(ctx context.Context, orderID string, next domain.OrderStatus, actor domain.Actor) (*domain.Order, error) {
	o, err := s.getSellerOrder(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}

	prev, _ := next.Prev()
	ok, err := s.repo.UpdateStatus(ctx, orderID, prev, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrInvalidTransition
	}
	o.Status = next

	s.notifier.Notify(ctx, o.BuyerID, eventForOrderStatus(next), orderEvent(o))
	return o, nil
}

// markReady transitions preparing → ready and, for delivery-mode orders,
// creates the pending delivery request in the same transaction: either both
// writes land or neither does. Pickup orders complete on the spot instead.
func (s *Service) markReady(ctx context.Context, orderID string, actor domain.Actor) (*domain.Order, error) {
	o, err := s.getSellerOrder(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}

	if o.Mode == domain.ModePickup {
		ok, err := s.repo.UpdateStatus(ctx, orderID, domain.OrderPreparing, domain.OrderDelivered)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.ErrInvalidTransition
		}
		o.Status = domain.OrderDelivered

		s.notifier.Notify(ctx, o.BuyerID, notify.EventOrderReady, orderEvent(o))
		return o, nil
	}

	req := &domain.DeliveryRequest{
		ID:      s.newID(),
		OrderID: o.ID,
		Status:  domain.DeliveryPending,
		Pickup:  o.PickupAddress,
		Dropoff: *o.DeliveryAddress,
	}

	err = s.tx.WithTx(ctx, func(tx fulfilltx.Repository) error {
		ok, err := tx.UpdateOrderStatus(ctx, orderID, domain.OrderPreparing, domain.OrderReady)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrInvalidTransition
		}
		return tx.InsertDeliveryRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderReady

	s.notifier.Notify(ctx, o.BuyerID, notify.EventOrderReady, orderEvent(o))
	s.logger.Info("delivery request opened",
		logx.String("event", "request_opened"),
		logx.String("order_id", o.ID),
		logx.String("request_id", req.ID),
	)
	return o, nil
}

// Cancel closes a non-terminal order. If a delivery request exists it is
// cancelled in the same transaction, unless the delivery is already underway
// or physically finished: a courier on the road cannot be cancelled silently,
// and a delivered request still owes the driver a settlement.
func (s *Service) Cancel(ctx context.Context, orderID string, actor domain.Actor) (*domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var cancelled *domain.Order
	err := s.tx.WithTx(ctx, func(tx fulfilltx.Repository) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.ErrNotFound
		}
		if !actor.Is(domain.RoleService) && !(actor.Is(domain.RoleBuyer) && actor.Owns(o.BuyerID)) &&
			!(actor.Is(domain.RoleSeller) && actor.Owns(o.SellerID)) {
			return apperr.ErrNotAuthorized
		}
		if o.Status.Terminal() {
			return apperr.ErrInvalidTransition
		}

		req, err := tx.GetRequestByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if req != nil {
			switch req.Status {
			case domain.DeliveryInTransit, domain.DeliveryDelivered:
				// underway or finished and awaiting settlement; the order
				// must complete or be reconciled manually
				return apperr.ErrConflict
			case domain.DeliveryCancelled:
			default:
				if _, err := tx.CancelRequest(ctx, req.ID); err != nil {
					return err
				}
			}
		}

		ok, err := tx.UpdateOrderStatus(ctx, orderID, o.Status, domain.OrderCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrInvalidTransition
		}
		o.Status = domain.OrderCancelled
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, cancelled.BuyerID, notify.EventOrderCancelled, orderEvent(cancelled))
	s.notifier.Notify(ctx, cancelled.SellerID, notify.EventOrderCancelled, orderEvent(cancelled))
	return cancelled, nil
}

// Get retrieves an order by its ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.ErrNotFound
	}
	return o, nil
}

func (s *Service) getSellerOrder(ctx context.Context, orderID string, actor domain.Actor) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.ErrNotFound
	}
	if !actor.Is(domain.RoleSeller) && !actor.Is(domain.RoleService) {
		return nil, apperr.ErrNotAuthorized
	}
	if !actor.Owns(o.SellerID) {
		return nil, apperr.ErrNotAuthorized
	}
	return o, nil
}

func eventForOrderStatus(s domain.OrderStatus) string {
	switch s {
	case domain.OrderConfirmed:
		return notify.EventOrderConfirmed
	case domain.OrderPreparing:
		return notify.EventOrderPreparing
	case domain.OrderReady:
		return notify.EventOrderReady
	case domain.OrderDelivered:
		return notify.EventOrderDelivered
	default:
		return notify.EventOrderCancelled
	}
}

func orderEvent(o *domain.Order) map[string]any {
	return map[string]any{
		"order_id": o.ID,
		"status":   string(o.Status),
		"mode":     string(o.Mode),
	}
}
