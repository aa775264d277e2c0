package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/notify"
	testlog "agromarket-dispatch/internal/testutil"
)

type mockDeliveryRepo struct {
	listPendingFn   func(ctx context.Context) ([]domain.DeliveryRequest, error)
	getByIDFn       func(ctx context.Context, id string) (*domain.DeliveryRequest, error)
	claimFn         func(ctx context.Context, requestID string, driverID int64, eta time.Time) (*domain.DeliveryRequest, error)
	advanceStatusFn func(ctx context.Context, requestID string, driverID int64, from, to domain.DeliveryStatus) (*domain.DeliveryRequest, error)
}

func (m *mockDeliveryRepo) ListPending(ctx context.Context) ([]domain.DeliveryRequest, error) {
	return m.listPendingFn(ctx)
}

func (m *mockDeliveryRepo) GetByID(ctx context.Context, id string) (*domain.DeliveryRequest, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockDeliveryRepo) Claim(ctx context.Context, requestID string, driverID int64, eta time.Time) (*domain.DeliveryRequest, error) {
	return m.claimFn(ctx, requestID, driverID, eta)
}

func (m *mockDeliveryRepo) AdvanceStatus(ctx context.Context, requestID string, driverID int64, from, to domain.DeliveryStatus) (*domain.DeliveryRequest, error) {
	return m.advanceStatusFn(ctx, requestID, driverID, from, to)
}

type mockDriverDirectory struct {
	getFn func(ctx context.Context, id int64) (*domain.Driver, error)
}

func (m *mockDriverDirectory) Get(ctx context.Context, id int64) (*domain.Driver, error) {
	return m.getFn(ctx, id)
}

type mockOrderDirectory struct {
	getFn func(ctx context.Context, id string) (*domain.Order, error)
}

func (m *mockOrderDirectory) Get(ctx context.Context, id string) (*domain.Order, error) {
	if m.getFn == nil {
		return &domain.Order{ID: id, BuyerID: "b1"}, nil
	}
	return m.getFn(ctx, id)
}

type mockSettler struct {
	calls []string
	err   error
}

func (m *mockSettler) TrySettle(_ context.Context, requestID string) error {
	m.calls = append(m.calls, requestID)
	return m.err
}

type countingCounter struct{ n int }

func (c *countingCounter) Inc() { c.n++ }

func onlineDriver() *domain.Driver {
	return &domain.Driver{
		ID: 7, Name: "Adama", Online: true,
		TransportType: domain.TransportScooter,
		ZoneLat:       12.37, ZoneLon: -1.52, RadiusKm: 10,
	}
}

func newTestService(repo *mockDeliveryRepo, drivers *mockDriverDirectory, orders *mockOrderDirectory, settler *mockSettler, conflicts *countingCounter) *Service {
	if orders == nil {
		orders = &mockOrderDirectory{}
	}
	if settler == nil {
		settler = &mockSettler{}
	}
	return NewService(repo, drivers, orders, settler, NewETAFactory(), conflicts, notify.Nop(), time.Second, testlog.New().Logger())
}

func TestService_ListOpen_FiltersByRadius(t *testing.T) {
	t.Parallel()

	near := domain.DeliveryRequest{ID: "near", Status: domain.DeliveryPending,
		Pickup: domain.Address{Lat: 12.38, Lon: -1.52}}
	far := domain.DeliveryRequest{ID: "far", Status: domain.DeliveryPending,
		Pickup: domain.Address{Lat: 13.50, Lon: -2.40}}

	repo := &mockDeliveryRepo{
		listPendingFn: func(context.Context) ([]domain.DeliveryRequest, error) {
			return []domain.DeliveryRequest{near, far}, nil
		},
	}
	drivers := &mockDriverDirectory{
		getFn: func(context.Context, int64) (*domain.Driver, error) { return onlineDriver(), nil },
	}
	svc := newTestService(repo, drivers, nil, nil, nil)

	got, err := svc.ListOpen(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "near" {
		t.Fatalf("expected only the nearby request, got %v", got)
	}
}

func TestService_ListOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	drivers := &mockDriverDirectory{
		getFn: func(context.Context, int64) (*domain.Driver, error) { return nil, nil },
	}
	svc := newTestService(&mockDeliveryRepo{}, drivers, nil, nil, nil)

	if _, err := svc.ListOpen(context.Background(), 99); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Claim_Success(t *testing.T) {
	t.Parallel()

	req := &domain.DeliveryRequest{
		ID: "r1", OrderID: "o1", Status: domain.DeliveryPending,
		Pickup:  domain.Address{Lat: 12.38, Lon: -1.52},
		Dropoff: domain.Address{Lat: 12.40, Lon: -1.49},
	}
	var claimedDriver int64
	var claimedETA time.Time
	repo := &mockDeliveryRepo{
		getByIDFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return req, nil },
		claimFn: func(_ context.Context, _ string, driverID int64, eta time.Time) (*domain.DeliveryRequest, error) {
			claimedDriver = driverID
			claimedETA = eta
			cp := *req
			cp.Status = domain.DeliveryAccepted
			cp.DriverID = &driverID
			cp.ETA = &eta
			return &cp, nil
		},
	}
	drivers := &mockDriverDirectory{
		getFn: func(context.Context, int64) (*domain.Driver, error) { return onlineDriver(), nil },
	}
	svc := newTestService(repo, drivers, nil, nil, nil)

	got, err := svc.Claim(context.Background(), "r1", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimedDriver != 7 {
		t.Fatalf("claim ran for driver %d", claimedDriver)
	}
	if claimedETA.IsZero() {
		t.Fatal("eta not computed")
	}
	if got.Status != domain.DeliveryAccepted || !got.AssignedTo(7) {
		t.Fatalf("bad claimed request: %#v", got)
	}
}

func TestService_Claim_LoserGetsConflictAndCounter(t *testing.T) {
	t.Parallel()

	req := &domain.DeliveryRequest{ID: "r1", OrderID: "o1", Status: domain.DeliveryPending}
	repo := &mockDeliveryRepo{
		getByIDFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return req, nil },
		claimFn: func(context.Context, string, int64, time.Time) (*domain.DeliveryRequest, error) {
			return nil, apperr.ErrAlreadyClaimed
		},
	}
	drivers := &mockDriverDirectory{
		getFn: func(context.Context, int64) (*domain.Driver, error) { return onlineDriver(), nil },
	}
	conflicts := &countingCounter{}
	svc := newTestService(repo, drivers, nil, nil, conflicts)

	_, err := svc.Claim(context.Background(), "r1", 7)
	if !errors.Is(err, apperr.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
	if conflicts.n != 1 {
		t.Fatalf("conflict counter = %d, want 1", conflicts.n)
	}
}

func TestService_Claim_OfflineDriver(t *testing.T) {
	t.Parallel()

	drivers := &mockDriverDirectory{
		getFn: func(context.Context, int64) (*domain.Driver, error) {
			d := onlineDriver()
			d.Online = false
			return d, nil
		},
	}
	repo := &mockDeliveryRepo{
		getByIDFn: func(context.Context, string) (*domain.DeliveryRequest, error) {
			t.Fatal("offline driver must not reach the pool")
			return nil, nil
		},
	}
	svc := newTestService(repo, drivers, nil, nil, nil)

	if _, err := svc.Claim(context.Background(), "r1", 7); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestService_Claim_MissingRequest(t *testing.T) {
	t.Parallel()

	repo := &mockDeliveryRepo{
		getByIDFn: func(context.Context, string) (*domain.DeliveryRequest, error) { return nil, nil },
	}
	drivers := &mockDriverDirectory{
		getFn: func(context.Context, int64) (*domain.Driver, error) { return onlineDriver(), nil },
	}
	svc := newTestService(repo, drivers, nil, nil, nil)

	if _, err := svc.Claim(context.Background(), "r1", 7); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Advance_StepsAreOrdered(t *testing.T) {
	t.Parallel()

	var gotFrom, gotTo domain.DeliveryStatus
	repo := &mockDeliveryRepo{
		advanceStatusFn: func(_ context.Context, id string, driverID int64, from, to domain.DeliveryStatus) (*domain.DeliveryRequest, error) {
			gotFrom, gotTo = from, to
			d := driverID
			return &domain.DeliveryRequest{ID: id, OrderID: "o1", Status: to, DriverID: &d}, nil
		},
	}
	svc := newTestService(repo, &mockDriverDirectory{}, nil, nil, nil)

	got, err := svc.Advance(context.Background(), "r1", 7, domain.DeliveryPickedUp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFrom != domain.DeliveryAccepted || gotTo != domain.DeliveryPickedUp {
		t.Fatalf("conditional write got %s -> %s", gotFrom, gotTo)
	}
	if got.Status != domain.DeliveryPickedUp {
		t.Fatalf("expected picked_up, got %s", got.Status)
	}
}

func TestService_Advance_AcceptedOnlyViaClaim(t *testing.T) {
	t.Parallel()

	repo := &mockDeliveryRepo{
		advanceStatusFn: func(context.Context, string, int64, domain.DeliveryStatus, domain.DeliveryStatus) (*domain.DeliveryRequest, error) {
			t.Fatal("accepted must not reach the store")
			return nil, nil
		},
	}
	svc := newTestService(repo, &mockDriverDirectory{}, nil, nil, nil)

	_, err := svc.Advance(context.Background(), "r1", 7, domain.DeliveryAccepted)
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestService_Advance_DeliveredTriggersSettlement(t *testing.T) {
	t.Parallel()

	repo := &mockDeliveryRepo{
		advanceStatusFn: func(_ context.Context, id string, driverID int64, _, to domain.DeliveryStatus) (*domain.DeliveryRequest, error) {
			d := driverID
			return &domain.DeliveryRequest{ID: id, OrderID: "o1", Status: to, DriverID: &d, DriverConfirmed: true}, nil
		},
	}
	settler := &mockSettler{}
	svc := newTestService(repo, &mockDriverDirectory{}, nil, settler, nil)

	_, err := svc.Advance(context.Background(), "r1", 7, domain.DeliveryDelivered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settler.calls) != 1 || settler.calls[0] != "r1" {
		t.Fatalf("settlement not attempted: %v", settler.calls)
	}
}

func TestService_Advance_SettleFailureDoesNotSurface(t *testing.T) {
	t.Parallel()

	repo := &mockDeliveryRepo{
		advanceStatusFn: func(_ context.Context, id string, driverID int64, _, to domain.DeliveryStatus) (*domain.DeliveryRequest, error) {
			d := driverID
			return &domain.DeliveryRequest{ID: id, OrderID: "o1", Status: to, DriverID: &d}, nil
		},
	}
	settler := &mockSettler{err: errors.New("settlement store down")}
	rec := testlog.New()
	svc := NewService(repo, &mockDriverDirectory{}, &mockOrderDirectory{}, settler, NewETAFactory(), nil, notify.Nop(), time.Second, rec.Logger())

	got, err := svc.Advance(context.Background(), "r1", 7, domain.DeliveryDelivered)
	if err != nil {
		t.Fatalf("delivered must commit even when settlement fails: %v", err)
	}
	if got.Status != domain.DeliveryDelivered {
		t.Fatalf("expected delivered, got %s", got.Status)
	}

	var logged bool
	for _, e := range rec.Entries() {
		if e.Level == "error" && e.Msg == "settlement attempt failed" {
			logged = true
		}
	}
	if !logged {
		t.Fatal("settlement failure was not logged")
	}
}

func TestService_Advance_NotAssignedDriver(t *testing.T) {
	t.Parallel()

	repo := &mockDeliveryRepo{
		advanceStatusFn: func(context.Context, string, int64, domain.DeliveryStatus, domain.DeliveryStatus) (*domain.DeliveryRequest, error) {
			return nil, apperr.ErrNotAuthorized
		},
	}
	svc := newTestService(repo, &mockDriverDirectory{}, nil, nil, nil)

	_, err := svc.Advance(context.Background(), "r1", 8, domain.DeliveryInTransit)
	if !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}
