package booking

import (
	"context"

	"rentalhub/internal/domain/property"
)

// Repository persists bookings. Accept and Cancel run their own transaction
// and row-lock the property.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	ListIncoming(ctx context.Context, ownerID int64) ([]IncomingBooking, error)
	ListByTraveler(ctx context.Context, travelerID int64) ([]TravelerBooking, error)
	ListIntervals(ctx context.Context, propertyID int64, statuses []Status) ([]Booking, error)
	Accept(ctx context.Context, bookingID, ownerID int64) (*Booking, bool, error)
	Cancel(ctx context.Context, bookingID, ownerID int64) (*Booking, bool, error)
}

// PropertyLookup is the slice of the property repository the ledger needs.
type PropertyLookup interface {
	GetByID(ctx context.Context, id int64) (*property.Property, error)
	BelongsToOwner(ctx context.Context, propertyID, ownerID int64) (bool, error)
}

// IntervalCache holds booked intervals per property. Entries are keyed by
// the property's generation, which Bump advances after every change.
type IntervalCache interface {
	Get(key string) ([]Interval, bool)
	Set(key string, v []Interval)
	Generation(name string) (uint64, bool)
	Bump(name string)
}
