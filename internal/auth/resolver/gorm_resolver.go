package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mocky70025/eventplatform-real-sub003/internal/auth"
	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
)

// GormResolver resolves identities against the relational store.
// Resolution order: existing identity link, then email-based linking
// (existing user, new provider), then user creation. Creation tolerates
// a concurrent "already exists" by re-reading, so resolution is
// idempotent per email.
type GormResolver struct {
	db *gorm.DB
}

func NewGormResolver(db *gorm.DB) *GormResolver {
	return &GormResolver{db: db}
}

func (r *GormResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (string, error) {

	if identity == nil {
		return "", errors.New("identity is nil")
	}

	// 1. Try identity lookup (provider + provider_user_id)
	var link domain.Identity
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", identity.Provider, identity.ProviderUserID).
		First(&link).Error

	if err == nil {
		return link.UserID.String(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	// 2. Try email-based linking (existing user, new provider)
	var user domain.User
	err = r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", identity.Email).
		First(&user).Error

	if err == nil {
		if err := r.createLink(ctx, user.ID, identity); err != nil {
			return "", err
		}
		return user.ID.String(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	// 3. Create new user + identity mapping
	now := time.Now()
	user = domain.User{
		ID:            uuid.New(),
		Email:         strings.ToLower(identity.Email),
		DisplayName:   identity.DisplayName,
		AvatarURL:     identity.AvatarURL,
		EmailVerified: identity.EmailVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = r.db.WithContext(ctx).Create(&user).Error
	if err != nil {
		if !isDuplicate(err) {
			return "", err
		}
		// Lost the race: someone created this email first. Re-read.
		if err := r.db.WithContext(ctx).
			Where("LOWER(email) = LOWER(?)", identity.Email).
			First(&user).Error; err != nil {
			return "", err
		}
	}

	if err := r.createLink(ctx, user.ID, identity); err != nil {
		return "", err
	}

	return user.ID.String(), nil
}

func (r *GormResolver) createLink(ctx context.Context, userID uuid.UUID, identity *auth.Identity) error {
	link := domain.Identity{
		ID:             uuid.New(),
		UserID:         userID,
		Provider:       identity.Provider,
		ProviderUserID: identity.ProviderUserID,
		CreatedAt:      time.Now(),
	}
	err := r.db.WithContext(ctx).Create(&link).Error
	if err != nil && isDuplicate(err) {
		return nil
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Driver-specific unique violations that gorm does not translate.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}
