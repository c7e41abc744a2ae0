package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rentalhub/internal/domain/property"
	"rentalhub/internal/pkg/keylock"

	"github.com/sirupsen/logrus"
)

const DateLayout = "2006-01-02"

// BlockedDatesPolicy selects which bookings block dates on the calendar.
type BlockedDatesPolicy string

const (
	// PolicyAll blocks every booking regardless of status.
	PolicyAll      BlockedDatesPolicy = "all"
	PolicyActive   BlockedDatesPolicy = "active"
	PolicyAccepted BlockedDatesPolicy = "accepted"
)

func (p BlockedDatesPolicy) statuses() []Status {
	switch p {
	case PolicyActive:
		return []Status{StatusPending, StatusAccepted}
	case PolicyAccepted:
		return []Status{StatusAccepted}
	default:
		return nil
	}
}

type Options struct {
	Cache     IntervalCache
	Publisher Publisher
	Policy    BlockedDatesPolicy
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

type Service struct {
	repo   Repository
	props  PropertyLookup
	cache  IntervalCache
	events Publisher
	policy BlockedDatesPolicy
	locks  *keylock.Locker
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewService(repo Repository, props PropertyLookup, opts Options) *Service {
	if opts.Policy == "" {
		opts.Policy = PolicyAll
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Service{
		repo:   repo,
		props:  props,
		cache:  opts.Cache,
		events: opts.Publisher,
		policy: opts.Policy,
		locks:  keylock.New(),
		log:    opts.Logger,
		now:    opts.Now,
	}
}

// Submit records a PENDING request. Overlaps are not checked here; they
// are resolved when the owner accepts.
func (s *Service) Submit(ctx context.Context, travelerID int64, req SubmitRequest) (*Booking, error) {
	start, err := ParseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", ErrValidation, err)
	}
	end, err := ParseDate(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date: %v", ErrValidation, err)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start_date must be before end_date", ErrValidation)
	}
	if req.Guests < 1 {
		return nil, fmt.Errorf("%w: guests must be at least 1", ErrValidation)
	}
	if travelerID <= 0 || req.PropertyID <= 0 {
		return nil, ErrValidation
	}

	p, err := s.props.GetByID(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, property.ErrNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}

	b := &Booking{
		TravelerID: travelerID,
		PropertyID: p.ID,
		StartDate:  start,
		EndDate:    end,
		Guests:     req.Guests,
		Status:     StatusPending,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.afterCommit(ctx, TopicSubmitted, b, p.OwnerID)
	return b, nil
}

func (s *Service) ListIncoming(ctx context.Context, ownerID int64) ([]IncomingBooking, error) {
	rows, err := s.repo.ListIncoming(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []IncomingBooking{}
	}
	return rows, nil
}

// ListForTraveler groups a traveler's bookings. An accepted stay whose end
// date is today or earlier counts as past.
func (s *Service) ListForTraveler(ctx context.Context, travelerID int64) (*TravelerBookings, error) {
	rows, err := s.repo.ListByTraveler(ctx, travelerID)
	if err != nil {
		return nil, err
	}

	today := truncateDay(s.now())
	out := &TravelerBookings{
		Pending:  []TravelerBooking{},
		Accepted: []TravelerBooking{},
		Canceled: []TravelerBooking{},
		Past:     []TravelerBooking{},
	}
	for _, row := range rows {
		switch row.Status {
		case StatusPending:
			out.Pending = append(out.Pending, row)
		case StatusCancelled:
			out.Canceled = append(out.Canceled, row)
		case StatusAccepted:
			if !row.EndDate.After(today) {
				out.Past = append(out.Past, row)
			} else {
				out.Accepted = append(out.Accepted, row)
			}
		}
	}
	return out, nil
}

// Accept is idempotent: accepting an accepted booking returns
// "Already accepted" and publishes nothing.
func (s *Service) Accept(ctx context.Context, bookingID, ownerID int64) (*Result, error) {
	b, err := s.ownedBooking(ctx, bookingID, ownerID)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusAccepted {
		return &Result{Message: "Already accepted", Booking: b}, nil
	}

	unlock := s.locks.Lock(propertyKey(b.PropertyID))
	defer unlock()

	updated, changed, err := s.repo.Accept(ctx, bookingID, ownerID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &Result{Message: "Already accepted", Booking: updated}, nil
	}

	s.afterCommit(ctx, TopicAccepted, updated, ownerID)
	return &Result{Message: "Booking accepted", Booking: updated, Changed: true}, nil
}

func (s *Service) Cancel(ctx context.Context, bookingID, ownerID int64) (*Result, error) {
	b, err := s.ownedBooking(ctx, bookingID, ownerID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(propertyKey(b.PropertyID))
	defer unlock()

	updated, changed, err := s.repo.Cancel(ctx, bookingID, ownerID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &Result{Message: "Already cancelled", Booking: updated}, nil
	}

	s.afterCommit(ctx, TopicCancelled, updated, ownerID)
	return &Result{Message: "Booking cancelled", Booking: updated, Changed: true}, nil
}

// BookedIntervals returns the blocked ranges of a property ordered by
// start, with each end moved to the last millisecond of its day.
func (s *Service) BookedIntervals(ctx context.Context, propertyID int64) ([]Interval, error) {
	// the generation is read before the query so a change that lands in
	// between stores this result under a key no reader will use
	var key string
	if s.cache != nil {
		if gen, ok := s.cache.Generation(cacheKey(propertyID)); ok {
			key = cacheKey(propertyID) + ":v" + strconv.FormatUint(gen, 10)
			if v, ok := s.cache.Get(key); ok {
				return v, nil
			}
		}
	}

	rows, err := s.repo.ListIntervals(ctx, propertyID, s.policy.statuses())
	if err != nil {
		return nil, err
	}

	out := make([]Interval, 0, len(rows))
	for _, b := range rows {
		out = append(out, Interval{
			Start: truncateDay(b.StartDate),
			End:   endOfDay(b.EndDate),
		})
	}

	if key != "" {
		s.cache.Set(key, out)
	}
	return out, nil
}

func (s *Service) ownedBooking(ctx context.Context, bookingID, ownerID int64) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	ok, err := s.props.BelongsToOwner(ctx, b.PropertyID, ownerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// afterCommit runs once a state change is durable. Publishing is
// fire-and-forget; failures are logged and never fail the request.
func (s *Service) afterCommit(ctx context.Context, topic string, b *Booking, ownerID int64) {
	if s.cache != nil {
		s.cache.Bump(cacheKey(b.PropertyID))
	}
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, topic, newEvent(b, ownerID)); err != nil {
		s.log.WithFields(logrus.Fields{
			"topic":      topic,
			"booking_id": b.ID,
		}).WithError(err).Warn("booking event publish failed")
	}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns UTC
// midnight of that calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return truncateDay(t), nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return truncateDay(t).Add(24*time.Hour - time.Millisecond)
}

func propertyKey(id int64) string { return "property:" + strconv.FormatInt(id, 10) }

func cacheKey(propertyID int64) string { return "booked:" + strconv.FormatInt(propertyID, 10) }
