package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"agromarket-dispatch/internal/domain"
)

// TxRepo represents a fulfillment transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

// GetOrder - get order by ID within the transaction.
func (r *TxRepo) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	o, err := scanOrder(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %q: %w", id, err)
	}
	return o, nil
}

// UpdateOrderStatus - conditional order status write within the transaction.
func (r *TxRepo) UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE orders
        SET status = $3, updated_at = now()
        WHERE id = $1 AND status = $2
    `, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("update order status %q: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// InsertDeliveryRequest - insert a new pending delivery request.
func (r *TxRepo) InsertDeliveryRequest(ctx context.Context, d *domain.DeliveryRequest) error {
	err := r.tx.QueryRow(ctx, `
        INSERT INTO delivery_requests (id, order_id, status,
                                       pickup_lat, pickup_lon, pickup_line, pickup_phone,
                                       dropoff_lat, dropoff_lon, dropoff_line, dropoff_phone)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING created_at
    `, d.ID, d.OrderID, string(d.Status),
		d.Pickup.Lat, d.Pickup.Lon, d.Pickup.Line, d.Pickup.Phone,
		d.Dropoff.Lat, d.Dropoff.Lon, d.Dropoff.Line, d.Dropoff.Phone,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert delivery request: %w", err)
	}
	return nil
}

// GetRequestForUpdate - get a delivery request by ID with a row lock.
func (r *TxRepo) GetRequestForUpdate(ctx context.Context, id string) (*domain.DeliveryRequest, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM delivery_requests WHERE id = $1 FOR UPDATE`, id)
	d, err := scanRequest(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get request %q: %w", id, err)
	}
	return d, nil
}

// GetRequestByOrderID - get a delivery request by owning order ID.
func (r *TxRepo) GetRequestByOrderID(ctx context.Context, orderID string) (*domain.DeliveryRequest, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM delivery_requests WHERE order_id = $1 FOR UPDATE`, orderID)
	d, err := scanRequest(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get request by order %q: %w", orderID, err)
	}
	return d, nil
}

// CancelRequest cancels a request unless the delivery is already underway
// or finished. Returns false when the request was not cancellable.
func (r *TxRepo) CancelRequest(ctx context.Context, id string) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE delivery_requests
        SET status = $2, updated_at = now()
        WHERE id = $1 AND status NOT IN ('in_transit', 'delivered', 'cancelled')
    `, id, string(domain.DeliveryCancelled))
	if err != nil {
		return false, fmt.Errorf("cancel request %q: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// SetCustomerConfirmed sets the customer confirmation flag. Returns false
// when the flag was already set.
func (r *TxRepo) SetCustomerConfirmed(ctx context.Context, id string) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE delivery_requests
        SET customer_confirmed = true, updated_at = now()
        WHERE id = $1 AND NOT customer_confirmed
    `, id)
	if err != nil {
		return false, fmt.Errorf("confirm request %q: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// InsertSettlement writes the settlement record. The primary key on
// request_id enforces exactly-once.
func (r *TxRepo) InsertSettlement(ctx context.Context, rec *domain.SettlementRecord) error {
	err := r.tx.QueryRow(ctx, `
        INSERT INTO settlements (request_id, order_id, gross, driver_share, platform_share)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at
    `, rec.RequestID, rec.OrderID, rec.Gross, rec.DriverShare, rec.PlatformShare).Scan(&rec.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return fmt.Errorf("settlement for request %q exists: %w", rec.RequestID, err)
		}
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// ApplyDriverStats bumps the driver's completion count and earnings.
func (r *TxRepo) ApplyDriverStats(ctx context.Context, driverID int64, earned int64) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE drivers
        SET completed = completed + 1,
            earnings = earnings + $2,
            updated_at = now()
        WHERE id = $1
    `, driverID, earned)
	if err != nil {
		return fmt.Errorf("apply driver stats %d: %w", driverID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("driver %d not found", driverID)
	}
	return nil
}
