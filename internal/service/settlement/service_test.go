package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/notify"
	"agromarket-dispatch/internal/ports/fulfilltx"
	testlog "agromarket-dispatch/internal/testutil"
)

// fakeTx implements fulfilltx.Repository with overridable behavior.
type fakeTx struct {
	getOrderFn            func(ctx context.Context, id string) (*domain.Order, error)
	updateOrderStatusFn   func(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
	getRequestForUpdateFn func(ctx context.Context, id string) (*domain.DeliveryRequest, error)
	setCustomerConfirmed  func(ctx context.Context, id string) (bool, error)
	insertSettlementFn    func(ctx context.Context, rec *domain.SettlementRecord) error
	applyDriverStatsFn    func(ctx context.Context, driverID, amount int64) error
}

func (f *fakeTx) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if f.getOrderFn == nil {
		return nil, nil
	}
	return f.getOrderFn(ctx, id)
}

func (f *fakeTx) UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	if f.updateOrderStatusFn == nil {
		return true, nil
	}
	return f.updateOrderStatusFn(ctx, id, from, to)
}

func (f *fakeTx) InsertDeliveryRequest(context.Context, *domain.DeliveryRequest) error { return nil }

func (f *fakeTx) GetRequestForUpdate(ctx context.Context, id string) (*domain.DeliveryRequest, error) {
	if f.getRequestForUpdateFn == nil {
		return nil, nil
	}
	return f.getRequestForUpdateFn(ctx, id)
}

func (f *fakeTx) GetRequestByOrderID(context.Context, string) (*domain.DeliveryRequest, error) {
	return nil, nil
}

func (f *fakeTx) CancelRequest(context.Context, string) (bool, error) { return true, nil }

func (f *fakeTx) SetCustomerConfirmed(ctx context.Context, id string) (bool, error) {
	if f.setCustomerConfirmed == nil {
		return true, nil
	}
	return f.setCustomerConfirmed(ctx, id)
}

func (f *fakeTx) InsertSettlement(ctx context.Context, rec *domain.SettlementRecord) error {
	if f.insertSettlementFn == nil {
		return nil
	}
	return f.insertSettlementFn(ctx, rec)
}

func (f *fakeTx) ApplyDriverStats(ctx context.Context, driverID, amount int64) error {
	if f.applyDriverStatsFn == nil {
		return nil
	}
	return f.applyDriverStatsFn(ctx, driverID, amount)
}

type fakeRunner struct {
	tx *fakeTx
}

func (r *fakeRunner) WithTx(ctx context.Context, fn func(tx fulfilltx.Repository) error) error {
	return fn(r.tx)
}

type mockRequestReader struct {
	getByIDFn func(ctx context.Context, id string) (*domain.DeliveryRequest, error)
	listFn    func(ctx context.Context, cutoff time.Time) ([]domain.DeliveryRequest, error)
}

func (m *mockRequestReader) GetByID(ctx context.Context, id string) (*domain.DeliveryRequest, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockRequestReader) ListUnconfirmedBefore(ctx context.Context, cutoff time.Time) ([]domain.DeliveryRequest, error) {
	return m.listFn(ctx, cutoff)
}

type mockOrderReader struct {
	getFn func(ctx context.Context, id string) (*domain.Order, error)
}

func (m *mockOrderReader) Get(ctx context.Context, id string) (*domain.Order, error) {
	return m.getFn(ctx, id)
}

type mockSettlementReader struct {
	getFn func(ctx context.Context, requestID string) (*domain.SettlementRecord, error)
}

func (m *mockSettlementReader) GetByRequestID(ctx context.Context, requestID string) (*domain.SettlementRecord, error) {
	return m.getFn(ctx, requestID)
}

type mockRatingRepo struct {
	applyFn func(ctx context.Context, driverID int64, rating int) error
}

func (m *mockRatingRepo) ApplyRating(ctx context.Context, driverID int64, rating int) error {
	return m.applyFn(ctx, driverID, rating)
}

type countingCounter struct{ n int }

func (c *countingCounter) Inc() { c.n++ }

const sharePct = 85

func newTestService(tx *fakeTx, requests *mockRequestReader, orders *mockOrderReader, settlements *mockSettlementReader, ratings *mockRatingRepo, settled *countingCounter) *Service {
	var c counter
	if settled != nil {
		c = settled
	}
	return NewService(
		&fakeRunner{tx: tx}, requests, orders, settlements, ratings,
		sharePct, 48*time.Hour, c, notify.Nop(), time.Second, testlog.New().Logger(),
	)
}

func deliveredRequest(customerOK, driverOK bool) *domain.DeliveryRequest {
	driverID := int64(7)
	return &domain.DeliveryRequest{
		ID: "r1", OrderID: "o1", Status: domain.DeliveryDelivered,
		DriverID:          &driverID,
		CustomerConfirmed: customerOK,
		DriverConfirmed:   driverOK,
	}
}

func readyOrder() *domain.Order {
	return &domain.Order{
		ID: "o1", BuyerID: "b1", SellerID: "s1",
		TotalAmount: 1000, Currency: "XOF",
		Mode: domain.ModeDelivery, Status: domain.OrderReady,
	}
}

func TestService_ConfirmByCustomer_FirstSideOnlyRecords(t *testing.T) {
	t.Parallel()

	req := deliveredRequest(false, false)
	var confirmed bool
	tx := &fakeTx{
		getRequestForUpdateFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return req, nil },
		getOrderFn:            func(context.Context, string) (*domain.Order, error) { return readyOrder(), nil },
		setCustomerConfirmed: func(context.Context, string) (bool, error) {
			confirmed = true
			return true, nil
		},
		insertSettlementFn: func(context.Context, *domain.SettlementRecord) error {
			t.Fatal("must not settle before the driver confirms")
			return nil
		},
	}
	svc := newTestService(tx, nil, nil, nil, nil, nil)

	if err := svc.ConfirmByCustomer(context.Background(), "r1", "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !confirmed {
		t.Fatal("customer flag not written")
	}
}

func TestService_ConfirmByCustomer_CompletesJoin(t *testing.T) {
	t.Parallel()

	req := deliveredRequest(false, true)
	var rec *domain.SettlementRecord
	var statsDriver, statsAmount int64
	tx := &fakeTx{
		getRequestForUpdateFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return req, nil },
		getOrderFn:            func(context.Context, string) (*domain.Order, error) { return readyOrder(), nil },
		updateOrderStatusFn: func(_ context.Context, _ string, from, to domain.OrderStatus) (bool, error) {
			if from != domain.OrderReady || to != domain.OrderDelivered {
				t.Fatalf("unexpected transition %s -> %s", from, to)
			}
			return true, nil
		},
		insertSettlementFn: func(_ context.Context, r *domain.SettlementRecord) error {
			rec = r
			return nil
		},
		applyDriverStatsFn: func(_ context.Context, driverID, amount int64) error {
			statsDriver, statsAmount = driverID, amount
			return nil
		},
	}
	settled := &countingCounter{}
	svc := newTestService(tx, nil, nil, nil, nil, settled)

	if err := svc.ConfirmByCustomer(context.Background(), "r1", "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Fatal("settlement record not written")
	}
	if rec.DriverShare != 850 || rec.PlatformShare != 150 || rec.Gross != 1000 {
		t.Fatalf("bad split: %#v", rec)
	}
	if statsDriver != 7 || statsAmount != 850 {
		t.Fatalf("driver stats got (%d, %d)", statsDriver, statsAmount)
	}
	if settled.n != 1 {
		t.Fatalf("settled counter = %d, want 1", settled.n)
	}
}

func TestService_TrySettle_DriverSideSecond(t *testing.T) {
	t.Parallel()

	// customer confirmed first, driver flag arrived with delivered
	req := deliveredRequest(true, true)
	var rec *domain.SettlementRecord
	tx := &fakeTx{
		getRequestForUpdateFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return req, nil },
		getOrderFn:            func(context.Context, string) (*domain.Order, error) { return readyOrder(), nil },
		insertSettlementFn: func(_ context.Context, r *domain.SettlementRecord) error {
			rec = r
			return nil
		},
	}
	svc := newTestService(tx, nil, nil, nil, nil, nil)

	if err := svc.TrySettle(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Fatal("join order must not matter: settlement missing")
	}
	if rec.DriverShare+rec.PlatformShare != rec.Gross {
		t.Fatalf("shares do not sum to gross: %#v", rec)
	}
}

func TestService_TrySettle_NoopWithoutCustomer(t *testing.T) {
	t.Parallel()

	req := deliveredRequest(false, true)
	tx := &fakeTx{
		getRequestForUpdateFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return req, nil },
		getOrderFn:            func(context.Context, string) (*domain.Order, error) { return readyOrder(), nil },
		insertSettlementFn: func(context.Context, *domain.SettlementRecord) error {
			t.Fatal("one-sided join must not settle")
			return nil
		},
	}
	svc := newTestService(tx, nil, nil, nil, nil, nil)

	if err := svc.TrySettle(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_ConfirmByCustomer_WrongBuyer(t *testing.T) {
	t.Parallel()

	req := deliveredRequest(false, false)
	tx := &fakeTx{
		getRequestForUpdateFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return req, nil },
		getOrderFn:            func(context.Context, string) (*domain.Order, error) { return readyOrder(), nil },
		setCustomerConfirmed: func(context.Context, string) (bool, error) {
			t.Fatal("stranger must not confirm")
			return false, nil
		},
	}
	svc := newTestService(tx, nil, nil, nil, nil, nil)

	err := svc.ConfirmByCustomer(context.Background(), "r1", "someone-else")
	if !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestService_ConfirmByCustomer_PendingRequest(t *testing.T) {
	t.Parallel()

	req := &domain.DeliveryRequest{ID: "r1", OrderID: "o1", Status: domain.DeliveryPending}
	tx := &fakeTx{
		getRequestForUpdateFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return req, nil },
	}
	svc := newTestService(tx, nil, nil, nil, nil, nil)

	err := svc.ConfirmByCustomer(context.Background(), "r1", "b1")
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestService_ConfirmByCustomer_RepeatIsNoop(t *testing.T) {
	t.Parallel()

	req := deliveredRequest(true, true)
	var flagWrites int
	tx := &fakeTx{
		getRequestForUpdateFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return req, nil },
		getOrderFn: func(context.Context, string) (*domain.Order, error) {
			o := readyOrder()
			o.Status = domain.OrderDelivered
			return o, nil
		},
		setCustomerConfirmed: func(context.Context, string) (bool, error) {
			flagWrites++
			return true, nil
		},
		updateOrderStatusFn: func(context.Context, string, domain.OrderStatus, domain.OrderStatus) (bool, error) {
			// order already delivered; the guard write finds nothing to move
			return false, nil
		},
		insertSettlementFn: func(context.Context, *domain.SettlementRecord) error {
			t.Fatal("second join attempt must not settle again")
			return nil
		},
	}
	svc := newTestService(tx, nil, nil, nil, nil, nil)

	if err := svc.ConfirmByCustomer(context.Background(), "r1", "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flagWrites != 0 {
		t.Fatalf("confirmed flag rewritten %d times", flagWrites)
	}
}

func TestService_GetSettlement_States(t *testing.T) {
	t.Parallel()

	want := &domain.SettlementRecord{RequestID: "r1", OrderID: "o1", Gross: 1000, DriverShare: 850, PlatformShare: 150}

	t.Run("settled", func(t *testing.T) {
		t.Parallel()
		settlements := &mockSettlementReader{
			getFn: func(context.Context, string) (*domain.SettlementRecord, error) { return want, nil },
		}
		svc := newTestService(&fakeTx{}, nil, nil, settlements, nil, nil)
		got, err := svc.GetSettlement(context.Background(), "r1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("got %#v", got)
		}
	})

	t.Run("not settled yet", func(t *testing.T) {
		t.Parallel()
		settlements := &mockSettlementReader{
			getFn: func(context.Context, string) (*domain.SettlementRecord, error) { return nil, nil },
		}
		requests := &mockRequestReader{
			getByIDFn: func(context.Context, string) (*domain.DeliveryRequest, error) {
				return deliveredRequest(false, true), nil
			},
		}
		svc := newTestService(&fakeTx{}, requests, nil, settlements, nil, nil)
		_, err := svc.GetSettlement(context.Background(), "r1")
		if !errors.Is(err, apperr.ErrSettlementNotReady) {
			t.Fatalf("expected ErrSettlementNotReady, got %v", err)
		}
	})

	t.Run("unknown request", func(t *testing.T) {
		t.Parallel()
		settlements := &mockSettlementReader{
			getFn: func(context.Context, string) (*domain.SettlementRecord, error) { return nil, nil },
		}
		requests := &mockRequestReader{
			getByIDFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return nil, nil },
		}
		svc := newTestService(&fakeTx{}, requests, nil, settlements, nil, nil)
		_, err := svc.GetSettlement(context.Background(), "missing")
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestService_RateDriver(t *testing.T) {
	t.Parallel()

	orders := &mockOrderReader{
		getFn: func(context.Context, string) (*domain.Order, error) { return readyOrder(), nil },
	}
	settledRec := &domain.SettlementRecord{RequestID: "r1"}

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(&fakeTx{}, nil, nil, nil, nil, nil)
		for _, r := range []int{0, 6, -1} {
			if err := svc.RateDriver(context.Background(), "r1", "b1", r); !errors.Is(err, apperr.ErrInvalid) {
				t.Fatalf("rating %d: expected ErrInvalid, got %v", r, err)
			}
		}
	})

	t.Run("wrong buyer", func(t *testing.T) {
		t.Parallel()
		requests := &mockRequestReader{
			getByIDFn: func(context.Context, string) (*domain.DeliveryRequest, error) {
				return deliveredRequest(true, true), nil
			},
		}
		svc := newTestService(&fakeTx{}, requests, orders, nil, nil, nil)
		err := svc.RateDriver(context.Background(), "r1", "intruder", 5)
		if !errors.Is(err, apperr.ErrNotAuthorized) {
			t.Fatalf("expected ErrNotAuthorized, got %v", err)
		}
	})

	t.Run("before customer confirmation", func(t *testing.T) {
		t.Parallel()
		requests := &mockRequestReader{
			getByIDFn: func(context.Context, string) (*domain.DeliveryRequest, error) {
				return deliveredRequest(false, true), nil
			},
		}
		svc := newTestService(&fakeTx{}, requests, orders, nil, nil, nil)
		err := svc.RateDriver(context.Background(), "r1", "b1", 5)
		if !errors.Is(err, apperr.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("confirmed before driver finished", func(t *testing.T) {
		t.Parallel()
		// customer already confirmed, driver side still pending: no
		// settlement exists yet but the rating gate is the confirmation
		requests := &mockRequestReader{
			getByIDFn: func(context.Context, string) (*domain.DeliveryRequest, error) {
				return deliveredRequest(true, false), nil
			},
		}
		settlements := &mockSettlementReader{
			getFn: func(context.Context, string) (*domain.SettlementRecord, error) {
				t.Fatal("rating must not depend on the settlement record")
				return nil, nil
			},
		}
		var gotRating int
		ratings := &mockRatingRepo{
			applyFn: func(_ context.Context, driverID int64, rating int) error {
				if driverID != 7 {
					t.Fatalf("rating applied to driver %d", driverID)
				}
				gotRating = rating
				return nil
			},
		}
		svc := newTestService(&fakeTx{}, requests, orders, settlements, ratings, nil)
		if err := svc.RateDriver(context.Background(), "r1", "b1", 5); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotRating != 5 {
			t.Fatalf("expected rating 5 applied, got %d", gotRating)
		}
	})

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()
		requests := &mockRequestReader{
			getByIDFn: func(context.Context, string) (*domain.DeliveryRequest, error) {
				return deliveredRequest(true, true), nil
			},
		}
		settlements := &mockSettlementReader{
			getFn: func(context.Context, string) (*domain.SettlementRecord, error) { return settledRec, nil },
		}
		var gotDriver int64
		var gotRating int
		ratings := &mockRatingRepo{
			applyFn: func(_ context.Context, driverID int64, rating int) error {
				gotDriver, gotRating = driverID, rating
				return nil
			},
		}
		svc := newTestService(&fakeTx{}, requests, orders, settlements, ratings, nil)
		if err := svc.RateDriver(context.Background(), "r1", "b1", 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotDriver != 7 || gotRating != 4 {
			t.Fatalf("rating applied to (%d, %d)", gotDriver, gotRating)
		}
	})
}

func TestService_ResolveExpired_AutoConfirms(t *testing.T) {
	t.Parallel()

	stale := deliveredRequest(false, true)
	requests := &mockRequestReader{
		listFn: func(_ context.Context, cutoff time.Time) ([]domain.DeliveryRequest, error) {
			if cutoff.IsZero() {
				t.Fatal("cutoff not derived from the window")
			}
			return []domain.DeliveryRequest{*stale}, nil
		},
	}

	var confirmed bool
	var rec *domain.SettlementRecord
	tx := &fakeTx{
		getRequestForUpdateFn: func(context.Context, string) (*domain.DeliveryRequest, error) {
			cp := *stale
			return &cp, nil
		},
		getOrderFn: func(context.Context, string) (*domain.Order, error) { return readyOrder(), nil },
		setCustomerConfirmed: func(context.Context, string) (bool, error) {
			confirmed = true
			return true, nil
		},
		insertSettlementFn: func(_ context.Context, r *domain.SettlementRecord) error {
			rec = r
			return nil
		},
	}
	svc := newTestService(tx, requests, nil, nil, nil, nil)

	if err := svc.ResolveExpired(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !confirmed {
		t.Fatal("stale request not auto-confirmed")
	}
	if rec == nil {
		t.Fatal("auto-confirmation must settle")
	}
}

func TestService_ResolveExpired_SkipsFreshlyConfirmed(t *testing.T) {
	t.Parallel()

	stale := deliveredRequest(false, true)
	requests := &mockRequestReader{
		listFn: func(context.Context, time.Time) ([]domain.DeliveryRequest, error) {
			return []domain.DeliveryRequest{*stale}, nil
		},
	}
	tx := &fakeTx{
		getRequestForUpdateFn: func(context.Context, string) (*domain.DeliveryRequest, error) {
			// customer confirmed between the scan and the lock
			cp := *stale
			cp.CustomerConfirmed = true
			return &cp, nil
		},
		setCustomerConfirmed: func(context.Context, string) (bool, error) {
			t.Fatal("already-confirmed request must be left alone")
			return false, nil
		},
	}
	svc := newTestService(tx, requests, nil, nil, nil, nil)

	if err := svc.ResolveExpired(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_ResolveExpired_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	requests := &mockRequestReader{
		listFn: func(context.Context, time.Time) ([]domain.DeliveryRequest, error) {
			return []domain.DeliveryRequest{{ID: "broken"}, {ID: "fine", OrderID: "o1"}}, nil
		},
	}
	var locked []string
	tx := &fakeTx{
		getRequestForUpdateFn: func(_ context.Context, id string) (*domain.DeliveryRequest, error) {
			locked = append(locked, id)
			if id == "broken" {
				return nil, errors.New("lock timeout")
			}
			return deliveredRequest(false, true), nil
		},
		getOrderFn: func(context.Context, string) (*domain.Order, error) { return readyOrder(), nil },
	}
	svc := newTestService(tx, requests, nil, nil, nil, nil)

	if err := svc.ResolveExpired(context.Background()); err != nil {
		t.Fatalf("one bad request must not abort the sweep: %v", err)
	}
	if len(locked) != 2 || locked[1] != "fine" {
		t.Fatalf("sweep stopped early: %v", locked)
	}
}
