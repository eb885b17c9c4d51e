package catalog

import (
	"context"
	"time"

	"carrental/internal/domain"
)

// CarRepository is the catalog's persistence interface.
type CarRepository interface {
	Create(ctx context.Context, c *domain.Car) error
	Save(ctx context.Context, c *domain.Car) error
	GetByID(ctx context.Context, id int64) (*domain.Car, error)
	List(ctx context.Context) ([]domain.Car, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Car, error)
	UpdateAvailability(ctx context.Context, carID int64, available bool) error
}

// BookingLedger answers date-range conflict questions. The catalog never
// inspects bookings directly; the ledger owns that interval logic.
type BookingLedger interface {
	CountOverlapping(ctx context.Context, carID int64, start, end time.Time, excludeID int64) (int64, error)
}
