package notification

import (
	"context"
	"fmt"
	"time"

	"rentalhub/internal/domain/booking"
	"rentalhub/internal/relay"

	"github.com/sirupsen/logrus"
)

type Service struct {
	repo *Repository
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewService(repo *Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// List returns one page of the user's notifications and the unread count.
func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if list == nil {
		list = []Notification{}
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("count unread notifications")
		unread = 0
	}
	return list, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkAsRead(ctx, id, userID, s.now().UTC())
}

// Subscribe registers the booking consumers on r.
func (s *Service) Subscribe(r *relay.Relay) {
	r.Subscribe(booking.TopicSubmitted, s.onSubmitted)
	r.Subscribe(booking.TopicAccepted, s.onAccepted)
	r.Subscribe(booking.TopicCancelled, s.onCancelled)
}

func (s *Service) onSubmitted(ctx context.Context, ev relay.Event) error {
	var p booking.Event
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", ev.Topic, err)
	}
	return s.notify(ctx, ev.ID, p.OwnerID, TypeBookingSubmitted, p,
		"New booking request",
		fmt.Sprintf("A traveler requested %s to %s", p.StartDate, p.EndDate))
}

func (s *Service) onAccepted(ctx context.Context, ev relay.Event) error {
	var p booking.Event
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", ev.Topic, err)
	}
	return s.notify(ctx, ev.ID, p.TravelerID, TypeBookingAccepted, p,
		"Booking accepted",
		fmt.Sprintf("Your stay from %s to %s was accepted by the owner", p.StartDate, p.EndDate))
}

func (s *Service) onCancelled(ctx context.Context, ev relay.Event) error {
	var p booking.Event
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", ev.Topic, err)
	}
	return s.notify(ctx, ev.ID, p.TravelerID, TypeBookingCancelled, p,
		"Booking cancelled",
		fmt.Sprintf("Your stay from %s to %s was cancelled by the owner", p.StartDate, p.EndDate))
}

func (s *Service) notify(ctx context.Context, eventID string, userID int64, t Type, p booking.Event, title, message string) error {
	if userID <= 0 {
		return fmt.Errorf("%s event %s has no recipient", t, eventID)
	}
	bookingID := p.BookingID
	created, err := s.repo.Create(ctx, &Notification{
		UserID:    userID,
		Type:      t,
		Title:     title,
		Message:   message,
		BookingID: &bookingID,
		EventID:   eventID,
	})
	if err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{"event_id": eventID, "user_id": userID, "type": t})
	if !created {
		log.Debug("notification already stored")
		return nil
	}
	log.Info("notification stored")
	return nil
}
