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

type DocumentRepo interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	ListByExhibitor(ctx context.Context, exhibitorID uuid.UUID) ([]*domain.Document, error)
	ListPendingReview(ctx context.Context) ([]*domain.Document, error)
	SetVerification(ctx context.Context, id uuid.UUID, status domain.DocumentStatus, expiresAt *time.Time, note string) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(ctx context.Context, d *domain.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var d domain.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepo) ListByExhibitor(ctx context.Context, exhibitorID uuid.UUID) ([]*domain.Document, error) {
	var results []*domain.Document
	if err := r.db.WithContext(ctx).
		Where("exhibitor_id = ?", exhibitorID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) ListPendingReview(ctx context.Context) ([]*domain.Document, error) {
	var results []*domain.Document
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.DocumentStatus{
			domain.DocumentPendingReview,
			domain.DocumentUnreadable,
		}).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) SetVerification(ctx context.Context, id uuid.UUID, status domain.DocumentStatus, expiresAt *time.Time, note string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      status,
			"expires_at":  expiresAt,
			"review_note": note,
		}).Error
}
