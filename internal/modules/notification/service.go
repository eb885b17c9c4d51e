// Package notification persists booking lifecycle notices for the
// in-app inbox. Delivery is best effort; a failed insert is logged and
// never propagated into the booking operation that triggered it.
package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"carrental/internal/domain"
	"carrental/internal/pkg/clock"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID int64, now time.Time) error
}

type Service struct {
	repo  NotificationRepository
	clock clock.Clock
}

func NewService(repo NotificationRepository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

// NotifyBookingCreated tells a host a new request landed on their car.
func (s *Service) NotifyBookingCreated(ctx context.Context, hostID, bookingID int64, number string) error {
	n := &domain.Notification{
		UserID:    hostID,
		Type:      domain.NotifBookingCreated,
		Title:     "New booking request",
		Body:      fmt.Sprintf("Booking %s is waiting for your approval", number),
		BookingID: &bookingID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("notification insert failed user_id=%d booking_id=%d error=%q", hostID, bookingID, err)
		return err
	}
	return nil
}

// NotifyBookingStatus tells the customer their booking moved.
func (s *Service) NotifyBookingStatus(ctx context.Context, customerID, bookingID int64, status domain.BookingStatus, reason string) error {
	typ, title := statusNotice(status)
	if typ == "" {
		return nil
	}
	body := ""
	if reason != "" {
		body = fmt.Sprintf("Reason: %s", reason)
	}
	n := &domain.Notification{
		UserID:    customerID,
		Type:      typ,
		Title:     title,
		Body:      body,
		BookingID: &bookingID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("notification insert failed user_id=%d booking_id=%d error=%q", customerID, bookingID, err)
		return err
	}
	return nil
}

func statusNotice(status domain.BookingStatus) (domain.NotificationType, string) {
	switch status {
	case domain.BookingApproved:
		return domain.NotifBookingApproved, "Your booking was approved"
	case domain.BookingRejected:
		return domain.NotifBookingRejected, "Your booking was rejected"
	case domain.BookingCancelled:
		return domain.NotifBookingCancelled, "Your booking was cancelled"
	default:
		return "", ""
	}
}

func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	return s.repo.ListForUser(ctx, userID, limit)
}

func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkRead(ctx, id, userID, s.clock.Now())
}
