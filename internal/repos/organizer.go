package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
)

type OrganizerRepo interface {
	Create(ctx context.Context, o *domain.Organizer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Organizer, error)
	// GetByUserID returns (nil, nil) when no profile exists. Lookup
	// failures are logged by callers and treated the same way, which
	// routes the user to registration instead of blocking.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Organizer, error)
	List(ctx context.Context) ([]*domain.Organizer, error)
	Update(ctx context.Context, o *domain.Organizer) error
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
}

type organizerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrganizerRepo(db *gorm.DB, baseLog *logger.Logger) OrganizerRepo {
	return &organizerRepo{db: db, log: baseLog.With("repo", "OrganizerRepo")}
}

func (r *organizerRepo) Create(ctx context.Context, o *domain.Organizer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *organizerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organizer, error) {
	var o domain.Organizer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *organizerRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Organizer, error) {
	var o domain.Organizer
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *organizerRepo) List(ctx context.Context) ([]*domain.Organizer, error) {
	var results []*domain.Organizer
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *organizerRepo) Update(ctx context.Context, o *domain.Organizer) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *organizerRepo) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return r.db.WithContext(ctx).
		Model(&domain.Organizer{}).
		Where("id = ?", id).
		Update("is_approved", approved).Error
}
