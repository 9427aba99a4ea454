package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage belongs to the conversation between the organizer and the
// exhibitor of one application.
type ChatMessage struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index;column:application_id" json:"application_id"`
	SenderID      uuid.UUID `gorm:"type:uuid;not null;column:sender_id" json:"sender_id"`
	Body          string    `gorm:"not null;column:body" json:"body"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
