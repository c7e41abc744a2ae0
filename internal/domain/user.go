package domain

import "time"

type UserRole string

const (
	RoleOwner    UserRole = "owner"
	RoleTraveler UserRole = "traveler"
)

func (r UserRole) Valid() bool {
	return r == RoleOwner || r == RoleTraveler
}

// User is the account row shared by features. Credentials are issued
// elsewhere; this service only reads ids and roles.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Role         UserRole  `json:"role" gorm:"size:20;not null;index"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
