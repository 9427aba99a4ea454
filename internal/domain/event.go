package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPending   EventStatus = "pending"
	EventPublished EventStatus = "published"
	EventRejected  EventStatus = "rejected"
)

type Event struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizerID  uuid.UUID   `gorm:"type:uuid;not null;index;column:organizer_id" json:"organizer_id"`
	Title        string      `gorm:"not null;column:title" json:"title"`
	Description  string      `gorm:"column:description" json:"description"`
	Venue        string      `gorm:"column:venue" json:"venue"`
	StartsAt     time.Time   `gorm:"not null;column:starts_at" json:"starts_at"`
	EndsAt       time.Time   `gorm:"not null;column:ends_at" json:"ends_at"`
	Capacity     int         `gorm:"column:capacity" json:"capacity"`
	Status       EventStatus `gorm:"not null;default:draft;column:status" json:"status"`
	RejectReason string      `gorm:"column:reject_reason" json:"reject_reason,omitempty"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updated_at"`
}

func (Event) TableName() string { return "events" }

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is an exhibitor's request to join an event. One per
// exhibitor+event, enforced by the composite unique index.
type Application struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	EventID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:applications_event_exhibitor;column:event_id" json:"event_id"`
	ExhibitorID  uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:applications_event_exhibitor;column:exhibitor_id" json:"exhibitor_id"`
	Message      string            `gorm:"column:message" json:"message"`
	Status       ApplicationStatus `gorm:"not null;default:pending;column:status" json:"status"`
	DecidedAt    *time.Time        `gorm:"column:decided_at" json:"decided_at,omitempty"`
	RejectReason string            `gorm:"column:reject_reason" json:"reject_reason,omitempty"`
	CreatedAt    time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null" json:"updated_at"`
}

func (Application) TableName() string { return "applications" }
