package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
)

type AdminLogRepo interface {
	Append(ctx context.Context, l *domain.AdminLog) error
	List(ctx context.Context, limit int) ([]*domain.AdminLog, error)
}

type adminLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdminLogRepo(db *gorm.DB, baseLog *logger.Logger) AdminLogRepo {
	return &adminLogRepo{db: db, log: baseLog.With("repo", "AdminLogRepo")}
}

func (r *adminLogRepo) Append(ctx context.Context, l *domain.AdminLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *adminLogRepo) List(ctx context.Context, limit int) ([]*domain.AdminLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var results []*domain.AdminLog
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
