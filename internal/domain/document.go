package domain

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentPendingReview DocumentStatus = "pending_review"
	DocumentVerified      DocumentStatus = "verified"
	DocumentExpired       DocumentStatus = "expired"
	DocumentUnreadable    DocumentStatus = "unreadable"
)

// Document is an uploaded license or insurance image belonging to an
// exhibitor. ExpiresAt is extracted from the image by the verification
// service; a nil value means extraction failed and the document needs
// manual review.
type Document struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExhibitorID uuid.UUID      `gorm:"type:uuid;not null;index;column:exhibitor_id" json:"exhibitor_id"`
	Kind        string         `gorm:"not null;column:kind" json:"kind"`
	BucketKey   string         `gorm:"not null;column:bucket_key" json:"-"`
	FileName    string         `gorm:"not null;column:file_name" json:"file_name"`
	ContentType string         `gorm:"column:content_type" json:"content_type"`
	Status      DocumentStatus `gorm:"not null;default:pending_review;column:status" json:"status"`
	ExpiresAt   *time.Time     `gorm:"column:expires_at" json:"expires_at,omitempty"`
	ReviewNote  string         `gorm:"column:review_note" json:"review_note,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Document) TableName() string { return "documents" }
