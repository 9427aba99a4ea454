package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
)

type ChatRepo interface {
	Create(ctx context.Context, m *domain.ChatMessage) error
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*domain.ChatMessage, error)
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
	return &chatRepo{db: db, log: baseLog.With("repo", "ChatRepo")}
}

func (r *chatRepo) Create(ctx context.Context, m *domain.ChatMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *chatRepo) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*domain.ChatMessage, error) {
	var results []*domain.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
