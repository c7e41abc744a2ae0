package booking

import "context"

const (
	TopicSubmitted = "booking.submitted"
	TopicAccepted  = "booking.accepted"
	TopicCancelled = "booking.cancelled"
)

// Topics lists every topic the ledger publishes.
var Topics = []string{TopicSubmitted, TopicAccepted, TopicCancelled}

// Event is the payload published for every booking state change.
type Event struct {
	BookingID  int64  `json:"booking_id"`
	PropertyID int64  `json:"property_id"`
	OwnerID    int64  `json:"owner_id"`
	TravelerID int64  `json:"traveler_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Status     Status `json:"status"`
}

type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

func newEvent(b *Booking, ownerID int64) Event {
	return Event{
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		OwnerID:    ownerID,
		TravelerID: b.TravelerID,
		StartDate:  b.StartDate.Format(DateLayout),
		EndDate:    b.EndDate.Format(DateLayout),
		Status:     b.Status,
	}
}
