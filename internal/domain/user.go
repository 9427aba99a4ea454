package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity record in the authentication store, keyed by email.
// The id is immutable; profile fields are not.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	DisplayName   string    `gorm:"column:display_name" json:"display_name"`
	AvatarURL     string    `gorm:"column:avatar_url" json:"avatar_url"`
	EmailVerified bool      `gorm:"not null;default:false;column:email_verified" json:"email_verified"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Identity links a User to an external provider subject.
type Identity struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Provider       string    `gorm:"not null;uniqueIndex:identities_provider_subject;column:provider" json:"provider"`
	ProviderUserID string    `gorm:"not null;uniqueIndex:identities_provider_subject;column:provider_user_id" json:"provider_user_id"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (Identity) TableName() string { return "identities" }

// Credential stores the bcrypt hash for email/password accounts.
type Credential struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:user_id" json:"user_id"`
	PasswordHash string    `gorm:"not null;column:password_hash" json:"-"`
	HashVersion  string    `gorm:"not null;column:hash_version" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Credential) TableName() string { return "credentials" }
