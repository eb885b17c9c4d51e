package repository

import (
	"context"
	"encoding/json"
	"time"

	"carrental/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID            int64  `gorm:"column:id;primaryKey"`
	BookingNumber string `gorm:"column:booking_number;uniqueIndex"`

	CarID      int64 `gorm:"column:car_id;index"`
	CustomerID int64 `gorm:"column:customer_id;index"`
	HostID     int64 `gorm:"column:host_id;index"`

	StartDate      time.Time `gorm:"column:start_date"`
	EndDate        time.Time `gorm:"column:end_date"`
	StartTime      string    `gorm:"column:start_time"`
	EndTime        string    `gorm:"column:end_time"`
	PickupLocation *string   `gorm:"column:pickup_location"`

	Extras      *string `gorm:"column:extras;type:text"`
	TotalAmount float64 `gorm:"column:total_amount"`

	Status        string  `gorm:"column:status;index"`
	PaymentStatus string  `gorm:"column:payment_status"`
	PaymentMethod *string `gorm:"column:payment_method"`

	Rating  int        `gorm:"column:rating"`
	Review  *string    `gorm:"column:review;type:text"`
	RatedAt *time.Time `gorm:"column:rated_at"`

	StatusHistory *string `gorm:"column:status_history;type:text"`
	Extensions    *string `gorm:"column:extensions;type:text"`

	CancellationReason *string    `gorm:"column:cancellation_reason;type:text"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	b := &domain.Booking{
		ID:            m.ID,
		BookingNumber: m.BookingNumber,
		CarID:         m.CarID,
		CustomerID:    m.CustomerID,
		HostID:        m.HostID,
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		StartTime:     m.StartTime,
		EndTime:       m.EndTime,
		TotalAmount:   m.TotalAmount,
		Status:        domain.BookingStatus(m.Status),
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		Rating:        m.Rating,
		RatedAt:       m.RatedAt,
		CancelledAt:   m.CancelledAt,
		CompletedAt:   m.CompletedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	b.PickupLocation = strFromPtr(m.PickupLocation)
	b.PaymentMethod = strFromPtr(m.PaymentMethod)
	b.Review = strFromPtr(m.Review)
	b.CancellationReason = strFromPtr(m.CancellationReason)

	if m.Extras != nil {
		_ = json.Unmarshal([]byte(*m.Extras), &b.Extras)
	}
	if m.StatusHistory != nil {
		_ = json.Unmarshal([]byte(*m.StatusHistory), &b.StatusHistory)
	}
	if m.Extensions != nil {
		_ = json.Unmarshal([]byte(*m.Extensions), &b.Extensions)
	}
	return b
}

func toBookingModel(b *domain.Booking) bookingModel {
	m := bookingModel{
		ID:            b.ID,
		BookingNumber: b.BookingNumber,
		CarID:         b.CarID,
		CustomerID:    b.CustomerID,
		HostID:        b.HostID,
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		TotalAmount:   b.TotalAmount,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		Rating:        b.Rating,
		RatedAt:       b.RatedAt,
		CancelledAt:   b.CancelledAt,
		CompletedAt:   b.CompletedAt,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	m.PickupLocation = strToPtr(b.PickupLocation)
	m.PaymentMethod = strToPtr(b.PaymentMethod)
	m.Review = strToPtr(b.Review)
	m.CancellationReason = strToPtr(b.CancellationReason)
	m.Extras = marshalJSON(b.Extras)
	m.StatusHistory = marshalJSON(b.StatusHistory)
	m.Extensions = marshalJSON(b.Extensions)
	return m
}

func marshalJSON(v any) *string {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(raw)
	if s == "null" {
		return nil
	}
	return &s
}

func strFromPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strToPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Save(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&bookingModel{}).Where("booking_number = ?", number).Count(&cnt)
	if tx.Error != nil {
		return false, tx.Error
	}
	return cnt > 0, nil
}

// CountOverlapping counts bookings on carID whose [start_date, end_date)
// interval intersects [start, end), ignoring cancelled/rejected bookings
// and, when excludeID > 0, the booking being modified.
func (r *BookingRepository) CountOverlapping(ctx context.Context, carID int64, start, end time.Time, excludeID int64) (int64, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("car_id = ?", carID).
		Where("status NOT IN ?", []string{string(domain.BookingCancelled), string(domain.BookingRejected)}).
		Where("start_date < ? AND end_date > ?", end, start)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var cnt int64
	if tx := q.Count(&cnt); tx.Error != nil {
		return 0, tx.Error
	}
	return cnt, nil
}

// HasActiveHold reports whether a booking other than excludeID still
// holds carID (status approved or active).
func (r *BookingRepository) HasActiveHold(ctx context.Context, carID, excludeID int64) (bool, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("car_id = ?", carID).
		Where("status IN ?", []string{string(domain.BookingApproved), string(domain.BookingActive)}).
		Where("id <> ?", excludeID).
		Count(&cnt)
	if tx.Error != nil {
		return false, tx.Error
	}
	return cnt > 0, nil
}

func (r *BookingRepository) ListConsumingForCar(ctx context.Context, carID int64) ([]domain.Booking, error) {
	var models []bookingModel
	tx := r.db.WithContext(ctx).
		Where("car_id = ?", carID).
		Where("status NOT IN ?", []string{string(domain.BookingCancelled), string(domain.BookingRejected)}).
		Order("start_date ASC").
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(models), nil
}

func (r *BookingRepository) ListRatedCompletedForCar(ctx context.Context, carID int64) ([]domain.Booking, error) {
	var models []bookingModel
	tx := r.db.WithContext(ctx).
		Where("car_id = ?", carID).
		Where("status = ?", string(domain.BookingCompleted)).
		Where("rating > 0").
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(models), nil
}

// ListFilter narrows List; zero values mean "no constraint".
type ListFilter struct {
	CustomerID int64
	HostID     int64
	Status     domain.BookingStatus
	From       time.Time
	To         time.Time
}

func (r *BookingRepository) List(ctx context.Context, f ListFilter) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{})
	if f.CustomerID > 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.HostID > 0 {
		q = q.Where("host_id = ?", f.HostID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if !f.From.IsZero() {
		q = q.Where("start_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("end_date <= ?", f.To)
	}

	var models []bookingModel
	if tx := q.Order("created_at DESC").Find(&models); tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(models), nil
}

func toDomainBookings(models []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainBooking(m))
	}
	return out
}
