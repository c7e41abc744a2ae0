package property

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *Property) error {
	if p.OwnerID == 0 || p.Name == "" {
		return ErrValidation
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Property, error) {
	var p Property
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get property %d: %w", id, err)
	}
	return &p, nil
}

// BelongsToOwner is the single ownership predicate used by every feature
// that acts on a property on behalf of its owner.
func (r *Repository) BelongsToOwner(ctx context.Context, propertyID, ownerID int64) (bool, error) {
	if propertyID <= 0 || ownerID <= 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Property{}).
		Where("id = ? AND owner_id = ?", propertyID, ownerID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check property owner: %w", err)
	}
	return count > 0, nil
}

// LockForUpdate row-locks the property inside tx. SQLite ignores the lock
// clause; its single connection already serializes writers.
func LockForUpdate(tx *gorm.DB, propertyID int64) (*Property, error) {
	var p Property
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, propertyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock property %d: %w", propertyID, err)
	}
	return &p, nil
}
