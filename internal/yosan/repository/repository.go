package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("version conflict")
)

// Repositories 予算管理のリポジトリ集合
type Repositories struct {
	Budget      *BudgetRepository
	ApprovalLog *ApprovalLogRepository
}

// NewRepositories リポジトリ集合を作成する
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Budget:      NewBudgetRepository(db),
		ApprovalLog: NewApprovalLogRepository(db),
	}
}
