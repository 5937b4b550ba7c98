package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
)

// ApprovalLogRepository 承認ログリポジトリ
type ApprovalLogRepository struct {
	db *gorm.DB
}

func NewApprovalLogRepository(db *gorm.DB) *ApprovalLogRepository {
	return &ApprovalLogRepository{db: db}
}

// Create 承認ログを追加する
func (r *ApprovalLogRepository) Create(ctx context.Context, tx *gorm.DB, log *entity.ApprovalLog) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(log).Error
}

// ListByBudget 予算の承認ログを時系列で取得する
func (r *ApprovalLogRepository) ListByBudget(ctx context.Context, budgetID string) ([]entity.ApprovalLog, error) {
	var logs []entity.ApprovalLog
	err := r.db.WithContext(ctx).
		Where("budget_id = ?", budgetID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
