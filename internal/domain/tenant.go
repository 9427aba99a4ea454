package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organizer is the tenant profile for the organizer application.
//
// user_id is the canonical link to the identity record. line_user_id is a
// legacy column from before accounts were unified; a startup migration
// backfills user_id from it and all lookups use user_id only.
type Organizer struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       *uuid.UUID `gorm:"type:uuid;uniqueIndex;column:user_id" json:"user_id"`
	LineUserID   *uuid.UUID `gorm:"type:uuid;index;column:line_user_id" json:"-"`
	Name         string     `gorm:"not null;column:name" json:"name"`
	Email        string     `gorm:"not null;column:email" json:"email"`
	Phone        string     `gorm:"column:phone" json:"phone"`
	Organization string     `gorm:"column:organization" json:"organization"`
	IsApproved   bool       `gorm:"not null;default:false;column:is_approved" json:"is_approved"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (Organizer) TableName() string { return "organizers" }

// Exhibitor is the tenant profile for the exhibitor ("store") application.
// Same dual-column history as Organizer.
type Exhibitor struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *uuid.UUID `gorm:"type:uuid;uniqueIndex;column:user_id" json:"user_id"`
	LineUserID  *uuid.UUID `gorm:"type:uuid;index;column:line_user_id" json:"-"`
	StoreName   string     `gorm:"not null;column:store_name" json:"store_name"`
	Email       string     `gorm:"not null;column:email" json:"email"`
	Phone       string     `gorm:"column:phone" json:"phone"`
	Category    string     `gorm:"column:category" json:"category"`
	Description string     `gorm:"column:description" json:"description"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Exhibitor) TableName() string { return "exhibitors" }
