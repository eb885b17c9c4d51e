package booking

import (
	"context"
	"time"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

// BookingRepository is the ledger's persistence interface.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	Save(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	CountOverlapping(ctx context.Context, carID int64, start, end time.Time, excludeID int64) (int64, error)
	HasActiveHold(ctx context.Context, carID, excludeID int64) (bool, error)
	ListConsumingForCar(ctx context.Context, carID int64) ([]domain.Booking, error)
	ListRatedCompletedForCar(ctx context.Context, carID int64) ([]domain.Booking, error)
	List(ctx context.Context, f repository.ListFilter) ([]domain.Booking, error)
}

// CarCatalog is the car lookup collaborator.
type CarCatalog interface {
	GetByID(ctx context.Context, id int64) (*domain.Car, error)
	UpdateRating(ctx context.Context, carID int64, rating float64, reviews int) error
	UpdateAvailability(ctx context.Context, carID int64, available bool) error
}

// PaymentProcessor is an opaque external side effect. Calls are made
// under an explicit timeout; a timeout counts as failure.
type PaymentProcessor interface {
	Charge(ctx context.Context, amount float64, method string) error
	Refund(ctx context.Context, amount float64) error
}

// NotificationSender delivers booking lifecycle notices. Best effort;
// failures never fail the booking operation.
type NotificationSender interface {
	NotifyBookingCreated(ctx context.Context, hostID, bookingID int64, number string) error
	NotifyBookingStatus(ctx context.Context, customerID, bookingID int64, status domain.BookingStatus, reason string) error
}

// EventPublisher fans booking lifecycle events out to live dashboard
// feeds. Must not block.
type EventPublisher interface {
	PublishBookingEvent(evt Event)
}

// Event is the activity feed payload for one booking transition.
type Event struct {
	BookingID     int64                `json:"booking_id"`
	BookingNumber string               `json:"booking_number"`
	CarID         int64                `json:"car_id"`
	Status        domain.BookingStatus `json:"status"`
	Reason        string               `json:"reason,omitempty"`
	At            time.Time            `json:"at"`
}
