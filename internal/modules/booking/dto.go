package booking

import (
	"time"

	"carrental/internal/domain"
)

type CreateBookingRequest struct {
	CarID          int64                 `json:"car_id"`
	CustomerID     int64                 `json:"customer_id"`
	StartDate      time.Time             `json:"start_date"`
	EndDate        time.Time             `json:"end_date"`
	StartTime      string                `json:"start_time"`
	EndTime        string                `json:"end_time"`
	PickupLocation string                `json:"pickup_location"`
	Extras         []domain.BookingExtra `json:"extras"`
}

// CancelResult reports the applied refund tier.
type CancelResult struct {
	Booking          *domain.Booking `json:"booking"`
	RefundAmount     float64         `json:"refund_amount"`
	RefundPercentage int             `json:"refund_percentage"`
	Policy           string          `json:"policy"`
}

// ExtendResult reports the cost delta of an end-date extension.
type ExtendResult struct {
	Booking        *domain.Booking `json:"booking"`
	AdditionalCost float64         `json:"additional_cost"`
	NewTotal       float64         `json:"new_total"`
}

// Filter narrows the filtered booking view. Zero values mean "all".
type Filter struct {
	Status     domain.BookingStatus
	DateRange  string // "", "today", "week", "month"
	HostID     int64
	CustomerID int64
}

// Stats aggregates the ledger for dashboards.
type Stats struct {
	Total           int     `json:"total"`
	Pending         int     `json:"pending"`
	Approved        int     `json:"approved"`
	Active          int     `json:"active"`
	Completed       int     `json:"completed"`
	Cancelled       int     `json:"cancelled"`
	Rejected        int     `json:"rejected"`
	TotalRevenue    float64 `json:"total_revenue"`
	PendingPayments float64 `json:"pending_payments"`
}

// Analytics summarizes a trailing period.
type Analytics struct {
	TotalBookings       int     `json:"total_bookings"`
	CompletedBookings   int     `json:"completed_bookings"`
	CancelledBookings   int     `json:"cancelled_bookings"`
	Revenue             float64 `json:"revenue"`
	AverageBookingValue float64 `json:"average_booking_value"`
	ConversionRate      float64 `json:"conversion_rate"`
}
