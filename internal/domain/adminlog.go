package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdminLog is an append-only record of an administrative action.
type AdminLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID   uuid.UUID `gorm:"type:uuid;not null;index;column:actor_id" json:"actor_id"`
	Action    string    `gorm:"not null;column:action" json:"action"`
	TargetID  uuid.UUID `gorm:"type:uuid;column:target_id" json:"target_id"`
	Detail    string    `gorm:"column:detail" json:"detail"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (AdminLog) TableName() string { return "admin_logs" }
