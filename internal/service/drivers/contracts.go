package drivers

import (
	"context"

	"agromarket-dispatch/internal/domain"
)

// driverRepository defines storage operations for driver profiles.
type driverRepository interface {
	Get(ctx context.Context, id int64) (*domain.Driver, error)
	List(ctx context.Context, limit, offset *int) ([]domain.Driver, error)
	Create(ctx context.Context, d *domain.Driver) (int64, error)
	UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (bool, error)
}
