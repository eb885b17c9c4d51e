package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"carrental/internal/domain"
	"carrental/internal/modules/availability"
	"carrental/internal/pkg/clock"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Config carries the pricing knobs of the ledger. Tax and service fee
// are fractions of the pre-tax subtotal, each applied independently.
type Config struct {
	TaxRate        float64
	ServiceFeeRate float64
	PaymentTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		TaxRate:        0.08,
		ServiceFeeRate: 0.05,
		PaymentTimeout: 10 * time.Second,
	}
}

// Service is the booking ledger: the single writer of booking status,
// payment status and rating, and of the availability index.
type Service struct {
	bookings BookingRepository
	cars     CarCatalog
	index    *availability.Index
	payments PaymentProcessor
	notifs   NotificationSender
	events   EventPublisher
	clock    clock.Clock
	cfg      Config

	locks carLocks

	qmu         sync.Mutex
	quarantined map[int64]bool
}

func NewService(
	bookings BookingRepository,
	cars CarCatalog,
	index *availability.Index,
	payments PaymentProcessor,
	notifs NotificationSender,
	events EventPublisher,
	clk clock.Clock,
	cfg Config,
) *Service {
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Second
	}
	return &Service{
		bookings:    bookings,
		cars:        cars,
		index:       index,
		payments:    payments,
		notifs:      notifs,
		events:      events,
		clock:       clk,
		cfg:         cfg,
		quarantined: make(map[int64]bool),
	}
}

// carLocks serializes the conflict-check-then-insert sequence per car.
type carLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func (l *carLocks) forCar(carID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[int64]*sync.Mutex)
	}
	cl, ok := l.m[carID]
	if !ok {
		cl = &sync.Mutex{}
		l.m[carID] = cl
	}
	return cl
}

// legal transitions of the booking state machine; anything absent is
// an IllegalTransition.
var transitions = map[domain.BookingStatus][]domain.BookingStatus{
	domain.BookingPending:  {domain.BookingApproved, domain.BookingRejected, domain.BookingCancelled},
	domain.BookingApproved: {domain.BookingActive, domain.BookingCancelled},
	domain.BookingActive:   {domain.BookingCompleted},
}

func canTransition(from, to domain.BookingStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func (s *Service) Create(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	today := startOfDay(now)
	if req.StartDate.Before(today) {
		return nil, validationErr("start_date", "cannot be in the past")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, validationErr("end_date", "must be after start date")
	}

	car, err := s.cars.GetByID(ctx, req.CarID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	if car.Status != domain.CarActive {
		return nil, validationErr("car_id", "car is not available for booking")
	}
	if s.isQuarantined(car.ID) {
		return nil, ErrCarQuarantined
	}

	lock := s.locks.forCar(car.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.auditCarInvariant(ctx, car.ID); err != nil {
		return nil, err
	}

	cnt, err := s.bookings.CountOverlapping(ctx, car.ID, req.StartDate, req.EndDate, 0)
	if err != nil {
		return nil, err
	}
	if cnt > 0 {
		return nil, ErrConflict
	}

	number, err := s.generateBookingNumber(ctx)
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		BookingNumber:  number,
		CarID:          car.ID,
		CustomerID:     req.CustomerID,
		HostID:         car.OwnerID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		PickupLocation: req.PickupLocation,
		Extras:         req.Extras,
		TotalAmount:    s.totalAmount(req, car.PricePerDay),
		Status:         domain.BookingPending,
		PaymentStatus:  domain.PaymentPending,
		StatusHistory: []domain.StatusChange{
			{Status: domain.BookingPending, Reason: "created", Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		if isOverlapConstraint(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	// A pending request does not hold the car; availability flips only
	// on approval/activation.
	if s.notifs != nil {
		_ = s.notifs.NotifyBookingCreated(ctx, b.HostID, b.ID, b.BookingNumber)
	}
	s.publish(b, "created")

	return b, nil
}

func validateCreate(req CreateBookingRequest) error {
	switch {
	case req.CarID == 0:
		return validationErr("car_id", "required")
	case req.CustomerID == 0:
		return validationErr("customer_id", "required")
	case req.StartDate.IsZero():
		return validationErr("start_date", "required")
	case req.EndDate.IsZero():
		return validationErr("end_date", "required")
	case req.StartTime == "":
		return validationErr("start_time", "required")
	case req.EndTime == "":
		return validationErr("end_time", "required")
	}
	return nil
}

// totalAmount prices ceil(days) * pricePerDay plus itemized extras,
// then adds tax and service fee on the subtotal.
func (s *Service) totalAmount(req CreateBookingRequest, pricePerDay float64) float64 {
	days := ceilDays(req.StartDate, req.EndDate)
	subtotal := float64(days) * pricePerDay
	for _, extra := range req.Extras {
		subtotal += extra.Price
	}
	total := subtotal + subtotal*s.cfg.TaxRate + subtotal*s.cfg.ServiceFeeRate
	return round2(total)
}

// TransitionStatus drives the booking state machine and keeps the
// availability index in step with it.
func (s *Service) TransitionStatus(ctx context.Context, bookingID int64, newStatus domain.BookingStatus, reason string) (*domain.Booking, error) {
	if _, known := transitions[newStatus]; !known && !newStatus.Terminal() {
		return nil, validationErr("status", "unknown status")
	}

	b, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.applyTransition(ctx, b, newStatus, reason)
}

// applyTransition mutates the booking. The caller holds the car lock;
// b is the row re-read inside it, so the precondition checks cannot
// race a concurrent writer.
func (s *Service) applyTransition(ctx context.Context, b *domain.Booking, newStatus domain.BookingStatus, reason string) (*domain.Booking, error) {
	if s.isQuarantined(b.CarID) {
		return nil, ErrCarQuarantined
	}
	if !canTransition(b.Status, newStatus) {
		return nil, ErrIllegalTransition
	}

	now := s.clock.Now()
	b.Status = newStatus
	b.StatusHistory = append(b.StatusHistory, domain.StatusChange{
		Status:    newStatus,
		Reason:    reason,
		Timestamp: now,
	})
	switch newStatus {
	case domain.BookingCancelled:
		b.CancelledAt = &now
		b.CancellationReason = reason
	case domain.BookingCompleted:
		b.CompletedAt = &now
	}
	b.UpdatedAt = now

	if err := s.bookings.Save(ctx, b); err != nil {
		return nil, err
	}

	if newStatus.HoldsCar() {
		s.setAvailability(ctx, b.CarID, false)
	} else if newStatus.Terminal() {
		// Only flip back to available when no other booking still holds
		// the car; an unconditional flip would lie about double-held cars.
		held, err := s.bookings.HasActiveHold(ctx, b.CarID, b.ID)
		if err != nil {
			return nil, err
		}
		if !held {
			s.setAvailability(ctx, b.CarID, true)
		}
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyBookingStatus(ctx, b.CustomerID, b.ID, newStatus, reason)
	}
	s.publish(b, reason)

	return b, nil
}

// Refund tiers by hours between cancellation and start, inclusive
// lower bounds.
const (
	fullRefundHours    = 48
	partialRefundHours = 24
)

func (s *Service) Cancel(ctx context.Context, bookingID int64, reason string) (*CancelResult, error) {
	b, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if b.Status != domain.BookingPending && b.Status != domain.BookingApproved {
		return nil, ErrIllegalTransition
	}

	hoursUntilStart := b.StartDate.Sub(s.clock.Now()).Hours()
	var pct int
	var policy string
	switch {
	case hoursUntilStart >= fullRefundHours:
		pct = 100
		policy = "Full refund (48+ hours notice)"
	case hoursUntilStart >= partialRefundHours:
		pct = 50
		policy = "Partial refund (24-48 hours notice)"
	default:
		pct = 0
		policy = "No refund (less than 24 hours notice)"
	}
	refund := round2(b.TotalAmount * float64(pct) / 100)

	wasPaid := b.PaymentStatus == domain.PaymentPaid

	b, err = s.applyTransition(ctx, b, domain.BookingCancelled, reason)
	if err != nil {
		return nil, err
	}

	if wasPaid {
		if refund > 0 {
			pctx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
			defer cancel()
			if err := s.payments.Refund(pctx, refund); err != nil {
				log.Printf("refund failed booking_id=%d amount=%.2f error=%q", b.ID, refund, err)
				return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
			}
		}
		b.PaymentStatus = domain.PaymentRefunded
		b.UpdatedAt = s.clock.Now()
		if err := s.bookings.Save(ctx, b); err != nil {
			return nil, err
		}
	}

	return &CancelResult{
		Booking:          b,
		RefundAmount:     refund,
		RefundPercentage: pct,
		Policy:           policy,
	}, nil
}

// Pay charges the booking through the external processor under an
// explicit timeout. A timeout or processor error marks the payment
// failed rather than leaving the booking in limbo.
func (s *Service) Pay(ctx context.Context, bookingID int64, method string) (*domain.Booking, error) {
	b, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if b.PaymentStatus != domain.PaymentPending {
		return nil, ErrIllegalTransition
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()
	chargeErr := s.payments.Charge(pctx, b.TotalAmount, method)

	b.PaymentMethod = method
	b.UpdatedAt = s.clock.Now()
	if chargeErr != nil {
		b.PaymentStatus = domain.PaymentFailed
		if err := s.bookings.Save(ctx, b); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, chargeErr)
	}

	b.PaymentStatus = domain.PaymentPaid
	if err := s.bookings.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) Rate(ctx context.Context, bookingID int64, rating int, review string) (*domain.Booking, error) {
	b, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if b.Status != domain.BookingCompleted {
		return nil, validationErr("status", "can only rate completed bookings")
	}
	if rating < 1 || rating > 5 {
		return nil, validationErr("rating", "must be between 1 and 5")
	}

	now := s.clock.Now()
	b.Rating = rating
	b.Review = review
	b.RatedAt = &now
	b.UpdatedAt = now
	if err := s.bookings.Save(ctx, b); err != nil {
		return nil, err
	}

	rated, err := s.bookings.ListRatedCompletedForCar(ctx, b.CarID)
	if err != nil {
		return nil, err
	}
	var sum int
	for _, rb := range rated {
		sum += rb.Rating
	}
	if len(rated) > 0 {
		avg := round1(float64(sum) / float64(len(rated)))
		if err := s.cars.UpdateRating(ctx, b.CarID, avg, len(rated)); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (s *Service) Extend(ctx context.Context, bookingID int64, newEndDate time.Time, newEndTime string) (*ExtendResult, error) {
	b, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if s.isQuarantined(b.CarID) {
		return nil, ErrCarQuarantined
	}
	if b.Status.Terminal() {
		return nil, ErrIllegalTransition
	}
	if !newEndDate.After(b.EndDate) {
		return nil, validationErr("end_date", "new end date must be after current end date")
	}

	car, err := s.cars.GetByID(ctx, b.CarID)
	if err != nil {
		return nil, err
	}

	cnt, err := s.bookings.CountOverlapping(ctx, b.CarID, b.EndDate, newEndDate, b.ID)
	if err != nil {
		return nil, err
	}
	if cnt > 0 {
		return nil, ErrConflict
	}

	now := s.clock.Now()
	additionalDays := ceilDays(b.EndDate, newEndDate)
	cost := round2(float64(additionalDays) * car.PricePerDay)

	b.Extensions = append(b.Extensions, domain.ExtensionRecord{
		OriginalEndDate: b.EndDate,
		NewEndDate:      newEndDate,
		AdditionalCost:  cost,
		Timestamp:       now,
	})
	b.EndDate = newEndDate
	b.EndTime = newEndTime
	b.TotalAmount = round2(b.TotalAmount + cost)
	b.UpdatedAt = now

	if err := s.bookings.Save(ctx, b); err != nil {
		return nil, err
	}

	return &ExtendResult{
		Booking:        b,
		AdditionalCost: cost,
		NewTotal:       b.TotalAmount,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	return s.get(ctx, bookingID)
}

// lockBooking resolves the booking's car, takes that car's lock and
// re-reads the booking inside it. Status, payment and refund checks run
// on the re-read row; without it two writers could both pass their
// preconditions on a stale copy and, say, refund the same booking twice.
func (s *Service) lockBooking(ctx context.Context, bookingID int64) (*domain.Booking, func(), error) {
	b, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	lock := s.locks.forCar(b.CarID)
	lock.Lock()

	b, err = s.get(ctx, bookingID)
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}
	return b, lock.Unlock, nil
}

func (s *Service) get(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// auditCarInvariant defensively re-checks the no-overlap invariant on
// the stored bookings of one car. A violation quarantines the car:
// loud log, reject further writes, keep the process alive.
func (s *Service) auditCarInvariant(ctx context.Context, carID int64) error {
	existing, err := s.bookings.ListConsumingForCar(ctx, carID)
	if err != nil {
		return err
	}
	sort.Slice(existing, func(i, j int) bool {
		return existing[i].StartDate.Before(existing[j].StartDate)
	})
	for i := 1; i < len(existing); i++ {
		prev, cur := existing[i-1], existing[i]
		if cur.StartDate.Before(prev.EndDate) {
			s.quarantine(carID)
			log.Printf("INVARIANT VIOLATION: overlapping bookings on car_id=%d (%s and %s); quarantining car",
				carID, prev.BookingNumber, cur.BookingNumber)
			return ErrCarQuarantined
		}
	}
	return nil
}

func (s *Service) quarantine(carID int64) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	s.quarantined[carID] = true
}

func (s *Service) isQuarantined(carID int64) bool {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	return s.quarantined[carID]
}

// setAvailability is the single write path into the index and the
// car's materialized flag.
func (s *Service) setAvailability(ctx context.Context, carID int64, available bool) {
	if err := s.index.Set(carID, available); errors.Is(err, availability.ErrCarNotTracked) {
		s.index.Track(carID, available)
	}
	if err := s.cars.UpdateAvailability(ctx, carID, available); err != nil {
		log.Printf("availability flag update failed car_id=%d error=%q", carID, err)
	}
}

func (s *Service) publish(b *domain.Booking, reason string) {
	if s.events == nil {
		return
	}
	s.events.PublishBookingEvent(Event{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		CarID:         b.CarID,
		Status:        b.Status,
		Reason:        reason,
		At:            b.UpdatedAt,
	})
}

const (
	numberPrefix   = "CR"
	numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	numberAttempts = 5
)

// generateBookingNumber builds the human-readable number: prefix, six
// time-derived digits, three random alphanumerics. Retries on the rare
// collision.
func (s *Service) generateBookingNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < numberAttempts; attempt++ {
		ts := s.clock.Now().UnixMilli() % 1_000_000
		suffix, err := randomSuffix(3)
		if err != nil {
			return "", err
		}
		number := fmt.Sprintf("%s%06d%s", numberPrefix, ts, suffix)

		exists, err := s.bookings.ExistsByNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique booking number")
}

func randomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return string(out), nil
}

func isOverlapConstraint(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 unique_violation, 23P01 exclusion_violation
		return pgErr.Code == "23505" || pgErr.Code == "23P01"
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ceilDays is the ceiling of the calendar-day difference; a booking
// spanning exactly one day counts as one.
func ceilDays(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
