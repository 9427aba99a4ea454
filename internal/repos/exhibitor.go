package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
)

type ExhibitorRepo interface {
	Create(ctx context.Context, e *domain.Exhibitor) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Exhibitor, error)
	// GetByUserID returns (nil, nil) when no profile exists.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Exhibitor, error)
	List(ctx context.Context) ([]*domain.Exhibitor, error)
	Update(ctx context.Context, e *domain.Exhibitor) error
}

type exhibitorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExhibitorRepo(db *gorm.DB, baseLog *logger.Logger) ExhibitorRepo {
	return &exhibitorRepo{db: db, log: baseLog.With("repo", "ExhibitorRepo")}
}

func (r *exhibitorRepo) Create(ctx context.Context, e *domain.Exhibitor) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *exhibitorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Exhibitor, error) {
	var e domain.Exhibitor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *exhibitorRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Exhibitor, error) {
	var e domain.Exhibitor
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *exhibitorRepo) List(ctx context.Context) ([]*domain.Exhibitor, error) {
	var results []*domain.Exhibitor
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *exhibitorRepo) Update(ctx context.Context, e *domain.Exhibitor) error {
	return r.db.WithContext(ctx).Save(e).Error
}
