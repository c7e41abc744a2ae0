package booking

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusCancelled Status = "CANCELLED"
)

// Booking is a stay request over the half-open interval [StartDate, EndDate).
// Dates are stored as UTC midnight.
type Booking struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	TravelerID int64     `json:"traveler_id" gorm:"not null;index"`
	PropertyID int64     `json:"property_id" gorm:"not null;index:idx_bookings_property_status,priority:1"`
	StartDate  time.Time `json:"start_date" gorm:"type:date;not null"`
	EndDate    time.Time `json:"end_date" gorm:"type:date;not null"`
	Guests     int       `json:"guests" gorm:"not null;default:1"`
	Status     Status    `json:"status" gorm:"size:20;not null;index:idx_bookings_property_status,priority:2"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// IncomingBooking is a booking as seen by the property owner.
type IncomingBooking struct {
	Booking
	PropertyName string `json:"property_name"`
}

// TravelerBooking is a booking as seen by the traveler who made it.
type TravelerBooking struct {
	Booking
	PropertyName string `json:"property_name"`
}

type TravelerBookings struct {
	Pending  []TravelerBooking `json:"pending"`
	Accepted []TravelerBooking `json:"accepted"`
	Canceled []TravelerBooking `json:"canceled"`
	Past     []TravelerBooking `json:"past"`
}

// Interval is a blocked date range. End is the last instant of the final
// booked day.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Result reports the outcome of a status transition. Changed is false when
// the booking was already in the target status.
type Result struct {
	Message string   `json:"message"`
	Booking *Booking `json:"booking,omitempty"`
	Changed bool     `json:"-"`
}
