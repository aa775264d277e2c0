package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"agromarket-dispatch/internal/domain"
)

// SettlementRepo represents settlement record repository.
type SettlementRepo struct{ db *pgxpool.Pool }

// NewSettlementRepo creates a new SettlementRepo.
func NewSettlementRepo(db *pgxpool.Pool) *SettlementRepo { return &SettlementRepo{db: db} }

// GetByRequestID - returns the settlement record for a delivery request.
func (r *SettlementRepo) GetByRequestID(ctx context.Context, requestID string) (*domain.SettlementRecord, error) {
	row := r.db.QueryRow(ctx, `
        SELECT request_id, order_id, gross, driver_share, platform_share, created_at
        FROM settlements
        WHERE request_id = $1
    `, requestID)

	var rec domain.SettlementRecord
	err := row.Scan(&rec.RequestID, &rec.OrderID, &rec.Gross, &rec.DriverShare, &rec.PlatformShare, &rec.CreatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settlement for request %q: %w", requestID, err)
	}
	return &rec, nil
}
