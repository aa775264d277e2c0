package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/ports/fulfilltx"
)

const requestColumns = `id, order_id, status, driver_id,
        pickup_lat, pickup_lon, pickup_line, pickup_phone,
        dropoff_lat, dropoff_lon, dropoff_line, dropoff_phone,
        eta, customer_confirmed, driver_confirmed, created_at, completed_at`

// DeliveryRepo represents delivery request repository.
type DeliveryRepo struct {
	db *pgxpool.Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(db *pgxpool.Pool) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

// WithTx opens a transaction and executes fn within it.
func (r *DeliveryRepo) WithTx(ctx context.Context, fn func(tx fulfilltx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	wrapped := &TxRepo{tx: tx}

	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// ListPending returns the open pool: requests no driver has claimed yet,
// oldest first.
func (r *DeliveryRepo) ListPending(ctx context.Context) ([]domain.DeliveryRequest, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+requestColumns+`
        FROM delivery_requests
        WHERE status = 'pending' AND driver_id IS NULL
        ORDER BY created_at
    `)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var out []domain.DeliveryRequest
	for rows.Next() {
		d, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetByID - returns a delivery request by its ID.
func (r *DeliveryRepo) GetByID(ctx context.Context, id string) (*domain.DeliveryRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM delivery_requests WHERE id = $1`, id)
	d, err := scanRequest(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get request %q: %w", id, err)
	}
	return d, nil
}

// GetByOrderID - returns a delivery request by its owning order ID.
func (r *DeliveryRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.DeliveryRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM delivery_requests WHERE order_id = $1`, orderID)
	d, err := scanRequest(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get request by order %q: %w", orderID, err)
	}
	return d, nil
}

// Claim performs the single-winner conditional write. The WHERE clause is
// the entire precondition: the row must still be pending and unassigned at
// the instant of the write. Zero rows affected means another driver won.
func (r *DeliveryRepo) Claim(ctx context.Context, requestID string, driverID int64, eta time.Time) (*domain.DeliveryRequest, error) {
	row := r.db.QueryRow(ctx, `
        UPDATE delivery_requests
        SET status = $3, driver_id = $2, eta = $4, updated_at = now()
        WHERE id = $1 AND status = $5 AND driver_id IS NULL
        RETURNING `+requestColumns+`
    `, requestID, driverID, string(domain.DeliveryAccepted), eta, string(domain.DeliveryPending))

	d, err := scanRequest(row)
	if err == nil {
		return d, nil
	}
	if !IsNotFound(err) {
		return nil, fmt.Errorf("claim request %q: %w", requestID, err)
	}

	// Lost the race or no such request; look once to tell which.
	existing, err := r.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.ErrNotFound
	}
	return nil, apperr.ErrAlreadyClaimed
}

// AdvanceStatus moves a claimed request along the driver-authored path with
// a conditional write keyed on the prior status and the assigned driver.
// Entering delivered stamps completed_at and the driver confirmation flag.
func (r *DeliveryRepo) AdvanceStatus(ctx context.Context, requestID string, driverID int64, from, to domain.DeliveryStatus) (*domain.DeliveryRequest, error) {
	row := r.db.QueryRow(ctx, `
        UPDATE delivery_requests
        SET status = $4,
            driver_confirmed = driver_confirmed OR $4 = 'delivered',
            completed_at = CASE WHEN $4 = 'delivered' THEN now() ELSE completed_at END,
            updated_at = now()
        WHERE id = $1 AND driver_id = $2 AND status = $3
        RETURNING `+requestColumns+`
    `, requestID, driverID, string(from), string(to))

	d, err := scanRequest(row)
	if err == nil {
		return d, nil
	}
	if !IsNotFound(err) {
		return nil, fmt.Errorf("advance request %q: %w", requestID, err)
	}

	existing, err := r.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch {
	case existing == nil:
		return nil, apperr.ErrNotFound
	case !existing.AssignedTo(driverID):
		return nil, apperr.ErrNotAuthorized
	default:
		return nil, apperr.ErrInvalidTransition
	}
}

// ListUnconfirmedBefore returns requests that finished delivery with only
// the driver's confirmation and have been waiting since before the cutoff.
func (r *DeliveryRepo) ListUnconfirmedBefore(ctx context.Context, cutoff time.Time) ([]domain.DeliveryRequest, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+requestColumns+`
        FROM delivery_requests
        WHERE status = 'delivered'
          AND driver_confirmed
          AND NOT customer_confirmed
          AND completed_at < $1
        ORDER BY completed_at
    `, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list unconfirmed requests: %w", err)
	}
	defer rows.Close()

	var out []domain.DeliveryRequest
	for rows.Next() {
		d, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*domain.DeliveryRequest, error) {
	var d domain.DeliveryRequest
	err := row.Scan(&d.ID, &d.OrderID, &d.Status, &d.DriverID,
		&d.Pickup.Lat, &d.Pickup.Lon, &d.Pickup.Line, &d.Pickup.Phone,
		&d.Dropoff.Lat, &d.Dropoff.Lon, &d.Dropoff.Line, &d.Dropoff.Phone,
		&d.ETA, &d.CustomerConfirmed, &d.DriverConfirmed, &d.CreatedAt, &d.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
