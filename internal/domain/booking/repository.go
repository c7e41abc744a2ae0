package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentalhub/internal/database"
	"rentalhub/internal/domain/property"

	"gorm.io/gorm"
)

type bookingRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, b *Booking) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	return getBooking(r.db.WithContext(ctx), id)
}

func getBooking(db *gorm.DB, id int64) (*Booking, error) {
	var b Booking
	err := db.First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return &b, nil
}

func (r *bookingRepository) ListIncoming(ctx context.Context, ownerID int64) ([]IncomingBooking, error) {
	var rows []IncomingBooking
	err := r.db.WithContext(ctx).
		Table("bookings AS b").
		Select("b.*, p.name AS property_name").
		Joins("JOIN properties p ON p.id = b.property_id").
		Where("p.owner_id = ?", ownerID).
		Order("b.created_at DESC, b.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list incoming bookings: %w", err)
	}
	return rows, nil
}

func (r *bookingRepository) ListByTraveler(ctx context.Context, travelerID int64) ([]TravelerBooking, error) {
	var rows []TravelerBooking
	err := r.db.WithContext(ctx).
		Table("bookings AS b").
		Select("b.*, p.name AS property_name").
		Joins("LEFT JOIN properties p ON p.id = b.property_id").
		Where("b.traveler_id = ?", travelerID).
		Order("b.start_date ASC, b.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list traveler bookings: %w", err)
	}
	return rows, nil
}

func (r *bookingRepository) ListIntervals(ctx context.Context, propertyID int64, statuses []Status) ([]Booking, error) {
	q := r.db.WithContext(ctx).
		Model(&Booking{}).
		Select("id", "start_date", "end_date", "status").
		Where("property_id = ?", propertyID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var rows []Booking
	if err := q.Order("start_date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list booked intervals: %w", err)
	}
	return rows, nil
}

// Accept moves a booking to ACCEPTED if no other accepted booking of the
// same property overlaps it. The property row stays locked until commit so
// concurrent accepts on one property run one after another.
func (r *bookingRepository) Accept(ctx context.Context, bookingID, ownerID int64) (*Booking, bool, error) {
	var (
		out     *Booking
		changed bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := getBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := lockOwnedProperty(tx, b.PropertyID, ownerID); err != nil {
			return err
		}

		// re-read under the lock; a concurrent call may have won
		if b, err = getBooking(tx, bookingID); err != nil {
			return err
		}
		out = b
		if b.Status == StatusAccepted {
			return nil
		}

		var conflicts int64
		err = tx.Model(&Booking{}).
			Where("property_id = ? AND status = ? AND id <> ?", b.PropertyID, StatusAccepted, b.ID).
			Where("NOT (end_date <= ? OR start_date >= ?)", b.StartDate, b.EndDate).
			Count(&conflicts).Error
		if err != nil {
			return fmt.Errorf("count overlapping bookings: %w", err)
		}
		if conflicts > 0 {
			return ErrConflict
		}

		if err := setStatus(tx, b, StatusAccepted); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if database.IsExclusionViolation(err, OverlapConstraint) {
			return nil, false, ErrConflict
		}
		return nil, false, err
	}
	return out, changed, nil
}

// Cancel moves a booking to CANCELLED from any status.
func (r *bookingRepository) Cancel(ctx context.Context, bookingID, ownerID int64) (*Booking, bool, error) {
	var (
		out     *Booking
		changed bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := getBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := lockOwnedProperty(tx, b.PropertyID, ownerID); err != nil {
			return err
		}
		if b, err = getBooking(tx, bookingID); err != nil {
			return err
		}
		out = b
		if b.Status == StatusCancelled {
			return nil
		}

		if err := setStatus(tx, b, StatusCancelled); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, changed, nil
}

func lockOwnedProperty(tx *gorm.DB, propertyID, ownerID int64) error {
	p, err := property.LockForUpdate(tx, propertyID)
	if errors.Is(err, property.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if p.OwnerID != ownerID {
		return ErrNotFound
	}
	return nil
}

func setStatus(tx *gorm.DB, b *Booking, status Status) error {
	now := time.Now().UTC()
	err := tx.Model(&Booking{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{"status": status, "updated_at": now}).Error
	if err != nil {
		return fmt.Errorf("update booking %d status: %w", b.ID, err)
	}
	b.Status = status
	b.UpdatedAt = now
	return nil
}
