package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
)

const driverColumns = `id, name, phone, online, transport_type,
        zone_lat, zone_lon, radius_km, completed, rating, rating_count, earnings`

// DriverRepo represents driver repository.
type DriverRepo struct{ db *pgxpool.Pool }

// NewDriverRepo creates a new DriverRepo.
func NewDriverRepo(db *pgxpool.Pool) *DriverRepo { return &DriverRepo{db: db} }

// Get - returns driver by its ID.
func (r *DriverRepo) Get(ctx context.Context, id int64) (*domain.Driver, error) {
	row := r.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id)

	var d domain.Driver
	err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.Online, &d.TransportType,
		&d.ZoneLat, &d.ZoneLon, &d.RadiusKm, &d.Completed, &d.Rating, &d.RatingCount, &d.Earnings)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver %d: %w", id, err)
	}
	return &d, nil
}

// List returns drivers ordered by ID with optional pagination.
func (r *DriverRepo) List(ctx context.Context, limit, offset *int) ([]domain.Driver, error) {
	q := `SELECT ` + driverColumns + ` FROM drivers ORDER BY id`
	args := make([]any, 0, 2)
	if limit != nil {
		q += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, *limit)
	}
	if offset != nil {
		q += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, *offset)
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	capacity := 0
	if limit != nil && *limit > 0 {
		capacity = *limit
	}
	out := make([]domain.Driver, 0, capacity)
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.Online, &d.TransportType,
			&d.ZoneLat, &d.ZoneLon, &d.RadiusKm, &d.Completed, &d.Rating, &d.RatingCount, &d.Earnings); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create - creates a new driver.
func (r *DriverRepo) Create(ctx context.Context, d *domain.Driver) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
        INSERT INTO drivers (name, phone, online, transport_type, zone_lat, zone_lon, radius_km)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id
    `, d.Name, d.Phone, d.Online, string(d.TransportType), d.ZoneLat, d.ZoneLon, d.RadiusKm).Scan(&id)
	if err != nil {
		if IsDuplicate(err) {
			return 0, apperr.ErrConflict
		}
		return 0, fmt.Errorf("create driver: %w", err)
	}
	return id, nil
}

// UpdatePartial applies a partial update to a driver and returns true if a row was affected.
func (r *DriverRepo) UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE drivers
        SET
            name           = COALESCE($2, name),
            phone          = COALESCE($3, phone),
            online         = COALESCE($4, online),
            transport_type = COALESCE($5, transport_type),
            zone_lat       = COALESCE($6, zone_lat),
            zone_lon       = COALESCE($7, zone_lon),
            radius_km      = COALESCE($8, radius_km),
            updated_at     = now()
        WHERE id = $1
    `, u.ID, u.Name, u.Phone, u.Online, u.TransportType, u.ZoneLat, u.ZoneLon, u.RadiusKm)
	if err != nil {
		if IsDuplicate(err) {
			return false, apperr.ErrConflict
		}
		return false, fmt.Errorf("update driver %d: %w", u.ID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// ApplyRating folds one customer rating into the driver's running average.
func (r *DriverRepo) ApplyRating(ctx context.Context, driverID int64, rating int) error {
	ct, err := r.db.Exec(ctx, `
        UPDATE drivers
        SET rating = (rating * rating_count + $2) / (rating_count + 1),
            rating_count = rating_count + 1,
            updated_at = now()
        WHERE id = $1
    `, driverID, rating)
	if err != nil {
		return fmt.Errorf("apply rating to driver %d: %w", driverID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
