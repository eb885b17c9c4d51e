package booking

import (
	"context"
	"fmt"
	"time"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

// Query surface of the ledger. Reads go through repository.List and are
// shaped here; writes stay in service.go.

func (s *Service) ListForPrincipal(ctx context.Context, userID int64, role domain.Role) ([]domain.Booking, error) {
	f := repository.ListFilter{}
	switch role {
	case domain.RoleHoster:
		f.HostID = userID
	case domain.RoleAdmin:
		// admins see everything
	default:
		f.CustomerID = userID
	}
	return s.bookings.List(ctx, f)
}

func (s *Service) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	return s.bookings.List(ctx, repository.ListFilter{Status: status})
}

func (s *Service) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	return s.bookings.List(ctx, repository.ListFilter{From: from, To: to})
}

// Filtered applies status, principal and a named trailing date range in
// one pass.
func (s *Service) Filtered(ctx context.Context, f Filter) ([]domain.Booking, error) {
	lf := repository.ListFilter{
		CustomerID: f.CustomerID,
		HostID:     f.HostID,
		Status:     f.Status,
	}
	if f.DateRange != "" {
		from, err := rangeStart(f.DateRange, s.clock.Now())
		if err != nil {
			return nil, err
		}
		lf.From = from
	}
	return s.bookings.List(ctx, lf)
}

// Stats aggregates the whole ledger. Revenue counts paid bookings;
// pending payments count pending/approved/active ones still unpaid.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.bookings.List(ctx, repository.ListFilter{})
	if err != nil {
		return nil, err
	}

	st := &Stats{Total: len(all)}
	for _, b := range all {
		switch b.Status {
		case domain.BookingPending:
			st.Pending++
		case domain.BookingApproved:
			st.Approved++
		case domain.BookingActive:
			st.Active++
		case domain.BookingCompleted:
			st.Completed++
		case domain.BookingCancelled:
			st.Cancelled++
		case domain.BookingRejected:
			st.Rejected++
		}
		if b.PaymentStatus == domain.PaymentPaid {
			st.TotalRevenue = round2(st.TotalRevenue + b.TotalAmount)
		}
		if b.PaymentStatus == domain.PaymentPending && b.Status.Consuming() && !b.Status.Terminal() {
			st.PendingPayments = round2(st.PendingPayments + b.TotalAmount)
		}
	}
	return st, nil
}

// RevenueByPeriod sums paid bookings whose settlement time falls inside
// the trailing period. CompletedAt is the settlement time when present,
// CreatedAt otherwise.
func (s *Service) RevenueByPeriod(ctx context.Context, period string) (float64, error) {
	from, err := rangeStart(period, s.clock.Now())
	if err != nil {
		return 0, err
	}
	all, err := s.bookings.List(ctx, repository.ListFilter{})
	if err != nil {
		return 0, err
	}

	var total float64
	for _, b := range all {
		if b.PaymentStatus != domain.PaymentPaid {
			continue
		}
		settled := b.CreatedAt
		if b.CompletedAt != nil {
			settled = *b.CompletedAt
		}
		if !settled.Before(from) {
			total += b.TotalAmount
		}
	}
	return round2(total), nil
}

// AnalyticsForPeriod summarizes bookings created in the trailing period.
func (s *Service) AnalyticsForPeriod(ctx context.Context, period string) (*Analytics, error) {
	from, err := rangeStart(period, s.clock.Now())
	if err != nil {
		return nil, err
	}
	all, err := s.bookings.List(ctx, repository.ListFilter{From: from})
	if err != nil {
		return nil, err
	}

	a := &Analytics{TotalBookings: len(all)}
	for _, b := range all {
		switch b.Status {
		case domain.BookingCompleted:
			a.CompletedBookings++
		case domain.BookingCancelled:
			a.CancelledBookings++
		}
		if b.PaymentStatus == domain.PaymentPaid {
			a.Revenue += b.TotalAmount
		}
	}
	a.Revenue = round2(a.Revenue)
	if a.TotalBookings > 0 {
		a.AverageBookingValue = round2(a.Revenue / float64(a.TotalBookings))
		a.ConversionRate = round2(float64(a.CompletedBookings) / float64(a.TotalBookings) * 100)
	}
	return a, nil
}

func rangeStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "today", "day":
		return startOfDay(now), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, -1, 0), nil
	case "year":
		return now.AddDate(-1, 0, 0), nil
	default:
		return time.Time{}, validationErr("period", fmt.Sprintf("unknown period %q", period))
	}
}
