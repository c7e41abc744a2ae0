package property

import "time"

type Property struct {
	ID                int64      `json:"id" gorm:"primaryKey"`
	OwnerID           int64      `json:"owner_id" gorm:"not null;index"`
	Name              string     `json:"name" gorm:"size:255;not null"`
	Description       string     `json:"description,omitempty" gorm:"type:text"`
	Location          string     `json:"location,omitempty" gorm:"size:255"`
	AvailabilityStart *time.Time `json:"availability_start,omitempty" gorm:"type:date"`
	AvailabilityEnd   *time.Time `json:"availability_end,omitempty" gorm:"type:date"`
	PricePerNight     float64    `json:"price_per_night"`
	Bedrooms          int        `json:"bedrooms"`
	Bathrooms         int        `json:"bathrooms"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Property) TableName() string { return "properties" }

// Details is the public read model of a property.
type Details struct {
	Property
	FirstImageURL *string `json:"first_image_url"`
}
