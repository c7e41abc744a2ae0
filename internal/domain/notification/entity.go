package notification

import "time"

type Type string

const (
	TypeBookingSubmitted Type = "booking_submitted" // owner: new request
	TypeBookingAccepted  Type = "booking_accepted"  // traveler
	TypeBookingCancelled Type = "booking_cancelled" // traveler
)

// Notification is an in-app message. EventID ties it to the relay event that
// produced it, so a redelivered event does not notify the same user twice.
type Notification struct {
	ID        int64      `gorm:"primaryKey;column:id" json:"id"`
	UserID    int64      `gorm:"column:user_id;not null;index:idx_notifications_user_unread;uniqueIndex:idx_notifications_event_user" json:"user_id"`
	Type      Type       `gorm:"column:type;not null" json:"type"`
	Title     string     `gorm:"column:title;not null" json:"title"`
	Message   string     `gorm:"column:message" json:"message"`
	BookingID *int64     `gorm:"column:booking_id" json:"booking_id,omitempty"`
	EventID   string     `gorm:"column:event_id;not null;uniqueIndex:idx_notifications_event_user" json:"-"`
	IsRead    bool       `gorm:"column:is_read;not null;index:idx_notifications_user_unread" json:"is_read"`
	ReadAt    *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
