package gallery

import (
	"context"
	"errors"
	"fmt"

	"rentalhub/internal/domain/property"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, propertyID int64) ([]PropertyImage, error) {
	return listImages(r.db.WithContext(ctx), propertyID)
}

func listImages(db *gorm.DB, propertyID int64) ([]PropertyImage, error) {
	images := []PropertyImage{}
	err := db.Where("property_id = ?", propertyID).Order("id ASC").Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("list property images: %w", err)
	}
	return images, nil
}

// FirstImageURL returns "" when the property has no images.
func (r *Repository) FirstImageURL(ctx context.Context, propertyID int64) (string, error) {
	var img PropertyImage
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("id ASC").
		Limit(1).
		Find(&img).Error
	if err != nil {
		return "", fmt.Errorf("first property image: %w", err)
	}
	return img.URL, nil
}

// Replace makes the stored set equal to desired in one transaction. URLs
// already present keep their rows and ids; new URLs are appended in the
// order they first appear in desired.
func (r *Repository) Replace(ctx context.Context, propertyID int64, desired []string) ([]PropertyImage, Stats, error) {
	var (
		out   []PropertyImage
		stats Stats
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := property.LockForUpdate(tx, propertyID); err != nil {
			if errors.Is(err, property.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		var current []string
		if err := tx.Model(&PropertyImage{}).Where("property_id = ?", propertyID).Pluck("url", &current).Error; err != nil {
			return fmt.Errorf("read current images: %w", err)
		}

		toDelete, toInsert := diff(current, desired)

		if len(toDelete) > 0 {
			res := tx.Where("property_id = ? AND url IN ?", propertyID, toDelete).Delete(&PropertyImage{})
			if res.Error != nil {
				return fmt.Errorf("delete removed images: %w", res.Error)
			}
			stats.Removed = res.RowsAffected
		}

		if len(toInsert) > 0 {
			rows := make([]PropertyImage, 0, len(toInsert))
			for _, u := range toInsert {
				rows = append(rows, PropertyImage{PropertyID: propertyID, URL: u})
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
			if res.Error != nil {
				return fmt.Errorf("insert added images: %w", res.Error)
			}
			stats.Added = res.RowsAffected
		}

		images, err := listImages(tx, propertyID)
		if err != nil {
			return err
		}
		out = images
		return nil
	})
	if err != nil {
		return nil, Stats{}, err
	}
	return out, stats, nil
}

// diff returns current−desired and desired−current. The insert list keeps
// first-occurrence order and drops duplicates.
func diff(current, desired []string) (toDelete, toInsert []string) {
	want := make(map[string]struct{}, len(desired))
	for _, u := range desired {
		want[u] = struct{}{}
	}
	have := make(map[string]struct{}, len(current))
	for _, u := range current {
		have[u] = struct{}{}
		if _, ok := want[u]; !ok {
			toDelete = append(toDelete, u)
		}
	}
	seen := make(map[string]struct{}, len(desired))
	for _, u := range desired {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if _, ok := have[u]; !ok {
			toInsert = append(toInsert, u)
		}
	}
	return toDelete, toInsert
}
