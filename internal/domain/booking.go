package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingRejected  BookingStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled || s == BookingRejected
}

// Consuming reports whether a booking in this status counts against a
// car's date interval (anything not cancelled or rejected).
func (s BookingStatus) Consuming() bool {
	return s != BookingCancelled && s != BookingRejected
}

// HoldsCar reports whether the status marks the car unavailable in the
// coarse availability index. Pending requests do not hold the car.
func (s BookingStatus) HoldsCar() bool {
	return s == BookingApproved || s == BookingActive
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// StatusChange is one entry of a booking's append-only transition log.
type StatusChange struct {
	Status    BookingStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type BookingExtra struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ExtensionRecord captures one end-date extension of a booking.
type ExtensionRecord struct {
	OriginalEndDate time.Time `json:"original_end_date"`
	NewEndDate      time.Time `json:"new_end_date"`
	AdditionalCost  float64   `json:"additional_cost"`
	Timestamp       time.Time `json:"timestamp"`
}

type Booking struct {
	ID            int64  `json:"id"`
	BookingNumber string `json:"booking_number"`

	CarID      int64 `json:"car_id" validate:"required"`
	CustomerID int64 `json:"customer_id" validate:"required"`
	HostID     int64 `json:"host_id"`

	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required"`
	StartTime      string    `json:"start_time" validate:"required"`
	EndTime        string    `json:"end_time" validate:"required"`
	PickupLocation string    `json:"pickup_location,omitempty"`

	Extras      []BookingExtra `json:"extras,omitempty"`
	TotalAmount float64        `json:"total_amount"`

	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method,omitempty"`

	// Rating is 1..5 once set; zero means not yet rated. Set only on
	// completed bookings.
	Rating  int        `json:"rating,omitempty"`
	Review  string     `json:"review,omitempty"`
	RatedAt *time.Time `json:"rated_at,omitempty"`

	StatusHistory []StatusChange    `json:"status_history,omitempty"`
	Extensions    []ExtensionRecord `json:"extensions,omitempty"`

	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overlaps reports whether the booking's [StartDate, EndDate) interval
// intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartDate.Before(end) && b.EndDate.After(start)
}
