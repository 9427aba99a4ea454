package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
)

type ApplicationRepo interface {
	Create(ctx context.Context, a *domain.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.Application, error)
	ListByExhibitor(ctx context.Context, exhibitorID uuid.UUID) ([]*domain.Application, error)
	Decide(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus, rejectReason string) error
}

type applicationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApplicationRepo(db *gorm.DB, baseLog *logger.Logger) ApplicationRepo {
	return &applicationRepo{db: db, log: baseLog.With("repo", "ApplicationRepo")}
}

func (r *applicationRepo) Create(ctx context.Context, a *domain.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	var a domain.Application
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.Application, error) {
	var results []*domain.Application
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *applicationRepo) ListByExhibitor(ctx context.Context, exhibitorID uuid.UUID) ([]*domain.Application, error) {
	var results []*domain.Application
	if err := r.db.WithContext(ctx).
		Where("exhibitor_id = ?", exhibitorID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *applicationRepo) Decide(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus, rejectReason string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        status,
			"decided_at":    &now,
			"reject_reason": rejectReason,
		}).Error
}
