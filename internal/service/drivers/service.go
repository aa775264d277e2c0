package drivers

import (
	"context"
	"strings"
	"time"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
)

// Service coordinates driver profile logic and orchestrates repository calls.
type Service struct {
	repo             driverRepository
	operationTimeout time.Duration
}

// NewService creates and configures a driver Service.
func NewService(r driverRepository, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{repo: r, operationTimeout: timeout}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

func validateCreate(d *domain.Driver) error {
	if d == nil {
		return apperr.ErrInvalid
	}
	if strings.TrimSpace(d.Name) == "" {
		return apperr.ErrInvalid
	}
	if !domain.ValidatePhone(d.Phone) {
		return apperr.ErrInvalid
	}
	if d.TransportType == "" {
		d.TransportType = domain.TransportFoot
	}
	if !d.TransportType.Valid() {
		return apperr.ErrInvalid
	}
	if d.RadiusKm <= 0 {
		return apperr.ErrInvalid
	}
	if !validCoords(d.ZoneLat, d.ZoneLon) {
		return apperr.ErrInvalid
	}
	return nil
}

func validateUpdate(u *domain.PartialDriverUpdate) error {
	if u.ID <= 0 {
		return apperr.ErrInvalid
	}
	if u.Name == nil && u.Phone == nil && u.Online == nil && u.TransportType == nil &&
		u.ZoneLat == nil && u.ZoneLon == nil && u.RadiusKm == nil {
		return apperr.ErrInvalid
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return apperr.ErrInvalid
	}
	if u.Phone != nil && !domain.ValidatePhone(*u.Phone) {
		return apperr.ErrInvalid
	}
	if u.TransportType != nil && !u.TransportType.Valid() {
		return apperr.ErrInvalid
	}
	if u.RadiusKm != nil && *u.RadiusKm <= 0 {
		return apperr.ErrInvalid
	}
	if u.ZoneLat != nil && (*u.ZoneLat < -90 || *u.ZoneLat > 90) {
		return apperr.ErrInvalid
	}
	if u.ZoneLon != nil && (*u.ZoneLon < -180 || *u.ZoneLon > 180) {
		return apperr.ErrInvalid
	}
	return nil
}

func validCoords(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Get retrieves a driver by its ID.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Driver, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.ErrNotFound
	}
	return d, nil
}

// List returns drivers with optional pagination.
func (s *Service) List(ctx context.Context, limit, offset *int) ([]domain.Driver, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.List(ctx, limit, offset)
}

// Create persists a new driver and returns its generated ID.
func (s *Service) Create(ctx context.Context, d *domain.Driver) (int64, error) {
	if err := validateCreate(d); err != nil {
		return 0, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Create(ctx, d)
}

// UpdatePartial applies a partial update to a driver. It returns true if a
// row was updated.
func (s *Service) UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (bool, error) {
	if err := validateUpdate(&u); err != nil {
		return false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ok, err := s.repo.UpdatePartial(ctx, u)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, apperr.ErrNotFound
	}
	return true, nil
}
