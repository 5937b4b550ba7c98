package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/money"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/repository"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/workflow"
)

// Actor 操作者。認証ミドルウェアが設定した JWT クレームから組み立てる
type Actor struct {
	ID    string
	Name  string
	Roles []workflow.Role
}

// BudgetService 実行予算サービス
type BudgetService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewBudgetService 実行予算サービスを作成する
func NewBudgetService(repos *repository.Repositories, logger *zap.Logger) *BudgetService {
	return &BudgetService{repos: repos, logger: logger}
}

// LineItemInput 明細の入力値
type LineItemInput struct {
	Section       string          `json:"section" binding:"required"`
	SortOrder     int             `json:"sort_order"`
	Name          string          `json:"name" binding:"required"`
	Specification string          `json:"specification"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     int64           `json:"unit_price"`
	Supplier      string          `json:"supplier"`
	Remarks       string          `json:"remarks"`
}

// ActualInput 実績の入力値。数量・単価とも nil を渡すと未記録に戻す
type ActualInput struct {
	Quantity  *decimal.Decimal `json:"quantity"`
	UnitPrice *int64           `json:"unit_price"`
	Supplier  string           `json:"supplier"`
}

// CreateBudgetRequest 予算作成リクエスト
type CreateBudgetRequest struct {
	ProjectID      string          `json:"project_id" binding:"required"`
	ProjectName    string          `json:"project_name"`
	ContractAmount int64           `json:"contract_amount"`
	Notes          string          `json:"notes"`
	Items          []LineItemInput `json:"items"`
}

// UpdateBudgetRequest 予算ヘッダ更新リクエスト
type UpdateBudgetRequest struct {
	ProjectName    *string `json:"project_name"`
	ContractAmount *int64  `json:"contract_amount"`
	Notes          *string `json:"notes"`
	Version        int     `json:"version" binding:"required"`
}

// BudgetDetail 予算と集計値のセット。集計値は常に明細から再計算した値
type BudgetDetail struct {
	Budget *entity.Budget   `json:"budget"`
	Totals money.Comparison `json:"totals"`
}

func validateItemInput(in *LineItemInput) error {
	if !entity.ValidSection(in.Section) {
		return fmt.Errorf("%w: 費目区分[%s]は不正です", workflow.ErrValidation, in.Section)
	}
	if in.Name == "" {
		return fmt.Errorf("%w: 品名は必須です", workflow.ErrValidation)
	}
	if in.Quantity.IsNegative() {
		return fmt.Errorf("%w: 数量は0以上で入力してください", workflow.ErrValidation)
	}
	if in.UnitPrice < 0 {
		return fmt.Errorf("%w: 単価は0以上で入力してください", workflow.ErrValidation)
	}
	return nil
}

func (s *BudgetService) isSubmitterOrAdmin(actor Actor) bool {
	for _, r := range actor.Roles {
		if r == workflow.RoleSubmitter || r == workflow.RoleAdmin {
			return true
		}
	}
	return false
}

// Create 予算を下書きとして作成する
func (s *BudgetService) Create(ctx context.Context, actor Actor, req *CreateBudgetRequest) (*BudgetDetail, error) {
	if !s.isSubmitterOrAdmin(actor) {
		return nil, fmt.Errorf("%w: 予算の作成は申請者ロールのみ可能です", workflow.ErrUnauthorized)
	}
	if req.ContractAmount < 0 {
		return nil, fmt.Errorf("%w: 請負金額は0以上で入力してください", workflow.ErrValidation)
	}
	for i := range req.Items {
		if err := validateItemInput(&req.Items[i]); err != nil {
			return nil, err
		}
	}

	code, err := s.repos.Budget.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("予算番号の採番に失敗しました: %w", err)
	}

	now := time.Now()
	b := &entity.Budget{
		ID:             uuid.New().String(),
		Code:           code,
		ProjectID:      req.ProjectID,
		ProjectName:    req.ProjectName,
		ContractAmount: req.ContractAmount,
		Status:         entity.BudgetStatusDraft,
		Version:        1,
		CreatedBy:      actor.ID,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range req.Items {
		in := &req.Items[i]
		b.Items = append(b.Items, entity.LineItem{
			ID:            uuid.New().String(),
			BudgetID:      b.ID,
			Section:       in.Section,
			SortOrder:     in.SortOrder,
			Name:          in.Name,
			Specification: in.Specification,
			Unit:          in.Unit,
			Quantity:      in.Quantity,
			UnitPrice:     in.UnitPrice,
			Supplier:      in.Supplier,
			Remarks:       in.Remarks,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if err := s.repos.Budget.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("予算の作成に失敗しました: %w", err)
	}

	s.logger.Info("予算を作成しました",
		zap.String("budget_id", b.ID),
		zap.String("code", b.Code),
		zap.String("created_by", actor.ID),
	)
	return s.Get(ctx, b.ID)
}

// Get 予算を集計値付きで取得する
func (s *BudgetService) Get(ctx context.Context, id string) (*BudgetDetail, error) {
	b, err := s.repos.Budget.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BudgetDetail{Budget: b, Totals: money.Compute(b)}, nil
}

// List 予算一覧を取得する
func (s *BudgetService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Budget, int64, error) {
	return s.repos.Budget.FindAll(ctx, page, pageSize, filters)
}

// Update 予算ヘッダを更新する（明細と同じ編集ゲートに従う）
func (s *BudgetService) Update(ctx context.Context, id string, actor Actor, req *UpdateBudgetRequest) (*BudgetDetail, error) {
	b, err := s.repos.Budget.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanEditItemsAny(actor.Roles, b.Status) {
		return nil, fmt.Errorf("%w: 状態[%s]の予算は編集できません", workflow.ErrUnauthorized, entity.StatusLabel(b.Status))
	}
	if req.ContractAmount != nil && *req.ContractAmount < 0 {
		return nil, fmt.Errorf("%w: 請負金額は0以上で入力してください", workflow.ErrValidation)
	}

	updates := map[string]interface{}{}
	if req.ProjectName != nil {
		updates["project_name"] = *req.ProjectName
	}
	if req.ContractAmount != nil {
		updates["contract_amount"] = *req.ContractAmount
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if err := s.repos.Budget.UpdateWithVersion(ctx, nil, id, req.Version, updates); err != nil {
		return nil, wrapRepoError(err)
	}
	return s.Get(ctx, id)
}

// UpsertLineItem 明細を追加または更新する。
// 予算本体の version を同時に進めることで、編集と承認操作の競合を検出する
func (s *BudgetService) UpsertLineItem(ctx context.Context, budgetID, itemID string, actor Actor, expectedVersion int, in *LineItemInput) (*BudgetDetail, error) {
	b, err := s.repos.Budget.FindByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if !workflow.CanEditItemsAny(actor.Roles, b.Status) {
		return nil, fmt.Errorf("%w: 状態[%s]では明細を編集できません", workflow.ErrUnauthorized, entity.StatusLabel(b.Status))
	}
	if err := validateItemInput(in); err != nil {
		return nil, err
	}

	now := time.Now()
	var item *entity.LineItem
	if itemID == "" {
		item = &entity.LineItem{
			ID:        uuid.New().String(),
			BudgetID:  budgetID,
			CreatedAt: now,
		}
	} else {
		item, err = s.repos.Budget.FindItemByID(ctx, budgetID, itemID)
		if err != nil {
			return nil, wrapRepoError(err)
		}
	}
	item.Section = in.Section
	item.SortOrder = in.SortOrder
	item.Name = in.Name
	item.Specification = in.Specification
	item.Unit = in.Unit
	item.Quantity = in.Quantity
	item.UnitPrice = in.UnitPrice
	item.Supplier = in.Supplier
	item.Remarks = in.Remarks
	item.UpdatedAt = now

	err = s.repos.Budget.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repos.Budget.UpdateWithVersion(ctx, tx, budgetID, expectedVersion, map[string]interface{}{}); err != nil {
			return err
		}
		return s.repos.Budget.SaveItem(ctx, tx, item)
	})
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return s.Get(ctx, budgetID)
}

// DeleteLineItem 明細を削除する
func (s *BudgetService) DeleteLineItem(ctx context.Context, budgetID, itemID string, actor Actor, expectedVersion int) (*BudgetDetail, error) {
	b, err := s.repos.Budget.FindByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if !workflow.CanEditItemsAny(actor.Roles, b.Status) {
		return nil, fmt.Errorf("%w: 状態[%s]では明細を編集できません", workflow.ErrUnauthorized, entity.StatusLabel(b.Status))
	}
	if _, err := s.repos.Budget.FindItemByID(ctx, budgetID, itemID); err != nil {
		return nil, wrapRepoError(err)
	}

	err = s.repos.Budget.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repos.Budget.UpdateWithVersion(ctx, tx, budgetID, expectedVersion, map[string]interface{}{}); err != nil {
			return err
		}
		return s.repos.Budget.DeleteItem(ctx, tx, budgetID, itemID)
	})
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return s.Get(ctx, budgetID)
}

// RecordActual 明細の実績値を記録する。数量・単価は両方そろって初めて実績小計が立つ
func (s *BudgetService) RecordActual(ctx context.Context, budgetID, itemID string, actor Actor, expectedVersion int, in *ActualInput) (*BudgetDetail, error) {
	b, err := s.repos.Budget.FindByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if !workflow.CanRecordActualsAny(actor.Roles, b.Status) {
		return nil, fmt.Errorf("%w: 状態[%s]では実績を記録できません", workflow.ErrUnauthorized, entity.StatusLabel(b.Status))
	}
	if in.Quantity != nil && in.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: 実績数量は0以上で入力してください", workflow.ErrValidation)
	}
	if in.UnitPrice != nil && *in.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: 実績単価は0以上で入力してください", workflow.ErrValidation)
	}

	item, err := s.repos.Budget.FindItemByID(ctx, budgetID, itemID)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	item.ActualQuantity = in.Quantity
	item.ActualUnitPrice = in.UnitPrice
	item.ActualSupplier = in.Supplier
	item.UpdatedAt = time.Now()

	err = s.repos.Budget.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repos.Budget.UpdateWithVersion(ctx, tx, budgetID, expectedVersion, map[string]interface{}{}); err != nil {
			return err
		}
		return s.repos.Budget.SaveItem(ctx, tx, item)
	})
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return s.Get(ctx, budgetID)
}

// Delete 予算を削除する（下書きのみ。作成者または管理者）
func (s *BudgetService) Delete(ctx context.Context, id string, actor Actor) error {
	b, err := s.repos.Budget.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != entity.BudgetStatusDraft {
		return fmt.Errorf("%w: 下書き以外の予算は削除できません", workflow.ErrInvalidTransition)
	}
	isAdmin := false
	for _, r := range actor.Roles {
		if r == workflow.RoleAdmin {
			isAdmin = true
		}
	}
	if b.CreatedBy != actor.ID && !isAdmin {
		return fmt.Errorf("%w: 作成者本人または管理者のみ削除できます", workflow.ErrUnauthorized)
	}
	return s.repos.Budget.Delete(ctx, id)
}

// wrapRepoError リポジトリのエラーをワークフローのエラー種別へ変換する
func wrapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: 画面を再読み込みして最新の状態を確認してください", workflow.ErrConflict)
	default:
		return err
	}
}
