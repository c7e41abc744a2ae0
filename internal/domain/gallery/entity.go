package gallery

import "time"

// PropertyImage rows are ordered by ID; the lowest ID is the cover image.
type PropertyImage struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	PropertyID int64     `json:"property_id" gorm:"not null;uniqueIndex:idx_property_images_property_url,priority:1"`
	URL        string    `json:"url" gorm:"size:1024;not null;uniqueIndex:idx_property_images_property_url,priority:2"`
	CreatedAt  time.Time `json:"created_at"`
}

func (PropertyImage) TableName() string { return "property_images" }

type Stats struct {
	Added   int64 `json:"added"`
	Removed int64 `json:"removed"`
}
