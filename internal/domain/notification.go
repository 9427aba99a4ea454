package domain

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index;column:recipient_id" json:"recipient_id"`
	Kind        string    `gorm:"not null;column:kind" json:"kind"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Body        string    `gorm:"column:body" json:"body"`
	Read        bool      `gorm:"not null;default:false;column:read" json:"read"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
