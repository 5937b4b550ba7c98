package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
)

// BudgetRepository 実行予算リポジトリ
type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// FindAll 予算一覧を検索する
func (r *BudgetRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Budget, int64, error) {
	var items []entity.Budget
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Budget{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if projectID := filters["project_id"]; projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if createdBy := filters["created_by"]; createdBy != "" {
		query = query.Where("created_by = ?", createdBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByStatuses 指定ステータスの予算一覧（承認待ち一覧用）
func (r *BudgetRepository) FindByStatuses(ctx context.Context, statuses []string) ([]entity.Budget, error) {
	if len(statuses) == 0 {
		return []entity.Budget{}, nil
	}
	var items []entity.Budget
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("updated_at ASC").
		Find(&items).Error
	return items, err
}

// CountByStatus ステータスごとの件数（ダッシュボードバッジ用）
func (r *BudgetRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Budget{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

// FindByID IDで予算を取得する（明細・承認ログ付き）
func (r *BudgetRepository) FindByID(ctx context.Context, id string) (*entity.Budget, error) {
	var b entity.Budget
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("section, sort_order, created_at")
		}).
		Preload("Logs", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create 予算を作成する（明細込み）
func (r *BudgetRepository) Create(ctx context.Context, b *entity.Budget) error {
	return r.db.WithContext(ctx).Create(b).Error
}

// UpdateWithVersion 楽観ロック付きの更新。
// version が一致しない（他者が先に更新した）場合は ErrConflict を返す
func (r *BudgetRepository) UpdateWithVersion(ctx context.Context, tx *gorm.DB, id string, expectedVersion int, updates map[string]interface{}) error {
	if tx == nil {
		tx = r.db
	}
	updates["version"] = expectedVersion + 1
	updates["updated_at"] = time.Now()

	result := tx.WithContext(ctx).
		Model(&entity.Budget{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 行が存在しないか version がずれている
		var count int64
		tx.WithContext(ctx).Model(&entity.Budget{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// Delete 予算を削除する（下書きのみ）
func (r *BudgetRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", id).Delete(&entity.LineItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("budget_id = ?", id).Delete(&entity.ApprovalLog{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND status = 'draft'", id).Delete(&entity.Budget{}).Error
	})
}

// SaveItem 明細を保存する
func (r *BudgetRepository) SaveItem(ctx context.Context, tx *gorm.DB, item *entity.LineItem) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(item).Error
}

// FindItemByID 明細をIDで取得する
func (r *BudgetRepository) FindItemByID(ctx context.Context, budgetID, itemID string) (*entity.LineItem, error) {
	var item entity.LineItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND budget_id = ?", itemID, budgetID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// DeleteItem 明細を削除する
func (r *BudgetRepository) DeleteItem(ctx context.Context, tx *gorm.DB, budgetID, itemID string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Where("id = ? AND budget_id = ?", itemID, budgetID).Delete(&entity.LineItem{}).Error
}

// GenerateCode 予算番号を生成する YSN-YYYYMM-NNNN
func (r *BudgetRepository) GenerateCode(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("YSN-%s", time.Now().Format("200601"))
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Budget{}).
		Where("code LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

// Transaction トランザクションを開始する
func (r *BudgetRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
