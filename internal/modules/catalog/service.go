package catalog

import (
	"context"
	"errors"
	"time"

	"carrental/internal/domain"
	"carrental/internal/modules/availability"
	"carrental/internal/pkg/clock"

	"gorm.io/gorm"
)

// Service manages the car fleet and exposes the two availability views:
// the coarse per-car flag from the index and exact date-range checks
// delegated to the booking ledger.
type Service struct {
	cars   CarRepository
	ledger BookingLedger
	index  *availability.Index
	clock  clock.Clock
}

func NewService(cars CarRepository, ledger BookingLedger, index *availability.Index, clk clock.Clock) *Service {
	return &Service{cars: cars, ledger: ledger, index: index, clock: clk}
}

// WarmIndex loads every known car into the availability index at
// startup so IsAvailable never misses for existing fleet.
func (s *Service) WarmIndex(ctx context.Context) error {
	cars, err := s.cars.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range cars {
		s.index.Track(c.ID, c.Available)
	}
	return nil
}

type CreateCarRequest struct {
	OwnerID     int64
	Name        string
	Brand       string
	PricePerDay float64
	LocationTag string
}

func (s *Service) Create(ctx context.Context, req CreateCarRequest) (*domain.Car, error) {
	now := s.clock.Now()
	car := &domain.Car{
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Brand:       req.Brand,
		PricePerDay: req.PricePerDay,
		LocationTag: req.LocationTag,
		Status:      domain.CarActive,
		Available:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.cars.Create(ctx, car); err != nil {
		return nil, err
	}
	s.index.Track(car.ID, true)
	return car, nil
}

type UpdateCarRequest struct {
	Name        *string
	Brand       *string
	PricePerDay *float64
	LocationTag *string
	Status      *domain.CarStatus
}

// Update applies partial changes. Moving a car out of active status
// drops its coarse availability; moving it back restores the flag only
// when the ledger holds no approved or active booking, which the caller
// resolves through the materialized flag the ledger maintains.
func (s *Service) Update(ctx context.Context, carID, actorID int64, actorRole domain.Role, req UpdateCarRequest) (*domain.Car, error) {
	car, err := s.get(ctx, carID)
	if err != nil {
		return nil, err
	}
	if actorRole != domain.RoleAdmin && car.OwnerID != actorID {
		return nil, ErrNotOwner
	}

	if req.Name != nil {
		car.Name = *req.Name
	}
	if req.Brand != nil {
		car.Brand = *req.Brand
	}
	if req.PricePerDay != nil {
		car.PricePerDay = *req.PricePerDay
	}
	if req.LocationTag != nil {
		car.LocationTag = *req.LocationTag
	}
	if req.Status != nil && *req.Status != car.Status {
		car.Status = *req.Status
		if car.Status != domain.CarActive {
			car.Available = false
			_ = s.index.Set(car.ID, false)
		}
	}
	car.UpdatedAt = s.clock.Now()

	if err := s.cars.Save(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

// Deactivate retires a car from the bookable fleet.
func (s *Service) Deactivate(ctx context.Context, carID, actorID int64, actorRole domain.Role) error {
	car, err := s.get(ctx, carID)
	if err != nil {
		return err
	}
	if actorRole != domain.RoleAdmin && car.OwnerID != actorID {
		return ErrNotOwner
	}
	car.Status = domain.CarInactive
	car.Available = false
	car.UpdatedAt = s.clock.Now()
	if err := s.cars.Save(ctx, car); err != nil {
		return err
	}
	s.index.Forget(car.ID)
	return nil
}

func (s *Service) GetByID(ctx context.Context, carID int64) (*domain.Car, error) {
	return s.get(ctx, carID)
}

func (s *Service) List(ctx context.Context) ([]domain.Car, error) {
	return s.cars.List(ctx)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Car, error) {
	return s.cars.ListByOwner(ctx, ownerID)
}

// IsAvailableNow answers the coarse "held right now" question from the
// in-memory index.
func (s *Service) IsAvailableNow(carID int64) (bool, error) {
	avail, err := s.index.IsAvailable(carID)
	if errors.Is(err, availability.ErrCarNotTracked) {
		return false, ErrNotFound
	}
	return avail, err
}

// IsAvailableForRange answers the exact question: no consuming booking
// overlaps [start, end) and the car is active.
func (s *Service) IsAvailableForRange(ctx context.Context, carID int64, start, end time.Time) (bool, error) {
	car, err := s.get(ctx, carID)
	if err != nil {
		return false, err
	}
	if car.Status != domain.CarActive {
		return false, nil
	}
	cnt, err := s.ledger.CountOverlapping(ctx, carID, start, end, 0)
	if err != nil {
		return false, err
	}
	return cnt == 0, nil
}

// AvailableForRange filters the active fleet down to cars free over
// [start, end).
func (s *Service) AvailableForRange(ctx context.Context, start, end time.Time) ([]domain.Car, error) {
	cars, err := s.cars.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Car, 0, len(cars))
	for _, c := range cars {
		if c.Status != domain.CarActive {
			continue
		}
		cnt, err := s.ledger.CountOverlapping(ctx, c.ID, start, end, 0)
		if err != nil {
			return nil, err
		}
		if cnt == 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) get(ctx context.Context, carID int64) (*domain.Car, error) {
	car, err := s.cars.GetByID(ctx, carID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return car, nil
}
