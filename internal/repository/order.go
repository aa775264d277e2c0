package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
)

const orderColumns = `id, buyer_id, seller_id, total_amount, currency, mode, status,
        pickup_lat, pickup_lon, pickup_line, pickup_phone,
        dropoff_lat, dropoff_lon, dropoff_line, dropoff_phone, created_at`

// OrderRepo represents order repository.
type OrderRepo struct{ db *pgxpool.Pool }

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo { return &OrderRepo{db: db} }

// Create - inserts a new order.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	var dropLat, dropLon *float64
	var dropLine, dropPhone *string
	if o.DeliveryAddress != nil {
		dropLat, dropLon = &o.DeliveryAddress.Lat, &o.DeliveryAddress.Lon
		dropLine, dropPhone = &o.DeliveryAddress.Line, &o.DeliveryAddress.Phone
	}

	err := r.db.QueryRow(ctx, `
        INSERT INTO orders (id, buyer_id, seller_id, total_amount, currency, mode, status,
                            pickup_lat, pickup_lon, pickup_line, pickup_phone,
                            dropoff_lat, dropoff_lon, dropoff_line, dropoff_phone)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING created_at
    `, o.ID, o.BuyerID, o.SellerID, o.TotalAmount, o.Currency, string(o.Mode), string(o.Status),
		o.PickupAddress.Lat, o.PickupAddress.Lon, o.PickupAddress.Line, o.PickupAddress.Phone,
		dropLat, dropLon, dropLine, dropPhone,
	).Scan(&o.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// Get - returns order by its ID.
func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %q: %w", id, err)
	}
	return o, nil
}

// UpdateStatus performs a conditional status write; it returns false when
// the order was not in the expected prior status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE orders
        SET status = $3, updated_at = now()
        WHERE id = $1 AND status = $2
    `, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("update order status %q: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var dropLat, dropLon *float64
	var dropLine, dropTel *string
	err := row.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.TotalAmount, &o.Currency, &o.Mode, &o.Status,
		&o.PickupAddress.Lat, &o.PickupAddress.Lon, &o.PickupAddress.Line, &o.PickupAddress.Phone,
		&dropLat, &dropLon, &dropLine, &dropTel, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if dropLat != nil && dropLon != nil {
		addr := domain.Address{Lat: *dropLat, Lon: *dropLon}
		if dropLine != nil {
			addr.Line = *dropLine
		}
		if dropTel != nil {
			addr.Phone = *dropTel
		}
		o.DeliveryAddress = &addr
	}
	return &o, nil
}
