package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 予算ステータス定数
const (
	BudgetStatusDraft                 = "draft"                   // 下書き
	BudgetStatusPendingManager        = "pending_manager"         // 管理部長承認待ち
	BudgetStatusPendingDirector       = "pending_director"        // 常務承認待ち
	BudgetStatusPendingPresident      = "pending_president"       // 社長承認待ち
	BudgetStatusRejected              = "rejected"                // 差戻し（終了）
	BudgetStatusInProgress            = "in_progress"             // 施工中（予算承認済）
	BudgetStatusFinalPendingManager   = "final_pending_manager"   // 精算・管理部長承認待ち
	BudgetStatusFinalPendingDirector  = "final_pending_director"  // 精算・常務承認待ち
	BudgetStatusFinalPendingPresident = "final_pending_president" // 精算・社長承認待ち
	BudgetStatusFinalRejected         = "final_rejected"          // 精算差戻し（終了）
	BudgetStatusCompleted             = "completed"               // 完了（終了）
	BudgetStatusChangeRequest         = "change_request"          // 変更申請中
)

// 費目区分（4分類固定）
const (
	SectionMaterials   = "materials"   // 材料費
	SectionLabor       = "labor"       // 労務費
	SectionOutsourcing = "outsourcing" // 外注費
	SectionExpenses    = "expenses"    // 経費
)

// Sections 費目区分の固定順序
var Sections = []string{SectionMaterials, SectionLabor, SectionOutsourcing, SectionExpenses}

// ValidSection 費目区分の妥当性チェック
func ValidSection(section string) bool {
	for _, s := range Sections {
		if s == section {
			return true
		}
	}
	return false
}

// Budget 実行予算書
// 合計・消費税・粗利などの集計値はカラムとして持たず、常に明細から再計算する
type Budget struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	Code           string    `json:"code" gorm:"size:32;uniqueIndex;not null"`
	ProjectID      string    `json:"project_id" gorm:"size:36;not null;index"`
	ProjectName    string    `json:"project_name" gorm:"size:200"`
	ContractAmount int64     `json:"contract_amount" gorm:"not null;default:0"` // 請負金額（円）
	Status         string    `json:"status" gorm:"size:30;not null;default:draft;index"`
	Version        int       `json:"version" gorm:"not null;default:1"` // 楽観ロック用
	CreatedBy      string    `json:"created_by" gorm:"size:36;not null;index"`
	Notes          string    `json:"notes" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// 関連
	Items []LineItem    `json:"items,omitempty" gorm:"foreignKey:BudgetID"`
	Logs  []ApprovalLog `json:"logs,omitempty" gorm:"foreignKey:BudgetID"`
}

func (Budget) TableName() string {
	return "budgets"
}

// ItemsBySection 指定費目の明細を表示順で返す
func (b *Budget) ItemsBySection(section string) []LineItem {
	var items []LineItem
	for _, it := range b.Items {
		if it.Section == section {
			items = append(items, it)
		}
	}
	return items
}

// LineItem 予算明細行
// Subtotal/ActualSubtotal はカラムとして持たず、数量×単価から都度計算する
type LineItem struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	BudgetID      string          `json:"budget_id" gorm:"size:36;not null;index"`
	Section       string          `json:"section" gorm:"size:20;not null;index"`
	SortOrder     int             `json:"sort_order" gorm:"default:0"`
	Name          string          `json:"name" gorm:"size:200;not null"`
	Specification string          `json:"specification" gorm:"size:500"`
	Unit          string          `json:"unit" gorm:"size:20"`
	Quantity      decimal.Decimal `json:"quantity" gorm:"type:decimal(12,3);not null"`
	UnitPrice     int64           `json:"unit_price" gorm:"not null;default:0"` // 単価（円）
	Supplier      string          `json:"supplier" gorm:"size:200"`
	Remarks       string          `json:"remarks" gorm:"type:text"`

	// 実績（精算用）。未記録は nil ＝「実績ゼロ確定」とは区別する
	ActualQuantity  *decimal.Decimal `json:"actual_quantity" gorm:"type:decimal(12,3)"`
	ActualUnitPrice *int64           `json:"actual_unit_price"`
	ActualSupplier  string           `json:"actual_supplier" gorm:"size:200"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LineItem) TableName() string {
	return "budget_line_items"
}

// HasActual 実績の数量・単価が両方記録済みかどうか
func (i *LineItem) HasActual() bool {
	return i.ActualQuantity != nil && i.ActualUnitPrice != nil
}
