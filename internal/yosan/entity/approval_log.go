package entity

import "time"

// ApprovalLog 承認操作ログ
// ワークフローの遷移が成功するたびに1件追加される。通知・監査の読み取り元
type ApprovalLog struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	BudgetID   string    `json:"budget_id" gorm:"size:36;not null;index"`
	ActorID    string    `json:"actor_id" gorm:"size:36;not null"`
	ActorName  string    `json:"actor_name" gorm:"size:100"`
	ActorRole  string    `json:"actor_role" gorm:"size:20;not null"`
	Action     string    `json:"action" gorm:"size:30;not null"`
	FromStatus string    `json:"from_status" gorm:"size:30;not null"`
	ToStatus   string    `json:"to_status" gorm:"size:30;not null"`
	Comment    string    `json:"comment" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ApprovalLog) TableName() string {
	return "budget_approval_logs"
}
