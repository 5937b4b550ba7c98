package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/money"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/repository"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/workflow"
)

// WorkflowService 承認ワークフローサービス。
// 権限チェック → 状態遷移 → 承認ログ追記を1トランザクションで行う
type WorkflowService struct {
	repos    *repository.Repositories
	notifier *Notifier
	logger   *zap.Logger
}

// NewWorkflowService 承認ワークフローサービスを作成する
func NewWorkflowService(repos *repository.Repositories, notifier *Notifier, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{repos: repos, notifier: notifier, logger: logger}
}

// ActionRequest ワークフロー操作リクエスト。
// version は読み出し時点の値を送り、他者の先行更新を検出する
type ActionRequest struct {
	Action  workflow.Action `json:"action" binding:"required"`
	Comment string          `json:"comment"`
	Version int             `json:"version" binding:"required"`
}

// RequestAction ワークフロー操作を実行する。
// 遷移が成功した場合のみ承認ログが1件追加され、ステータスが変わる
func (s *WorkflowService) RequestAction(ctx context.Context, budgetID string, req *ActionRequest, actor Actor) (*BudgetDetail, error) {
	b, err := s.repos.Budget.FindByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if b.Version != req.Version {
		return nil, fmt.Errorf("%w: 予算が他のユーザーによって更新されています", workflow.ErrConflict)
	}

	next, actingRole, err := workflow.Resolve(b.Status, req.Action, actor.Roles)
	if err != nil {
		return nil, err
	}

	if err := s.validateAction(b, req.Action); err != nil {
		return nil, err
	}

	now := time.Now()
	log := &entity.ApprovalLog{
		ID:         uuid.New().String(),
		BudgetID:   b.ID,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		ActorRole:  string(actingRole),
		Action:     string(req.Action),
		FromStatus: b.Status,
		ToStatus:   next,
		Comment:    req.Comment,
		CreatedAt:  now,
	}

	err = s.repos.Budget.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repos.Budget.UpdateWithVersion(ctx, tx, b.ID, req.Version, map[string]interface{}{
			"status": next,
		}); err != nil {
			return err
		}
		return s.repos.ApprovalLog.Create(ctx, tx, log)
	})
	if err != nil {
		return nil, wrapRepoError(err)
	}

	s.logger.Info("ワークフロー遷移",
		zap.String("budget_id", b.ID),
		zap.String("code", b.Code),
		zap.String("action", string(req.Action)),
		zap.String("from", log.FromStatus),
		zap.String("to", log.ToStatus),
		zap.String("actor_id", actor.ID),
		zap.String("actor_role", string(actingRole)),
	)

	// バッジ件数の更新とイベント配信は主処理をブロックしない
	if s.notifier != nil {
		go s.publishTransition(b, log)
	}

	return s.Get(ctx, budgetID)
}

// validateAction 遷移前の内容チェック
func (s *WorkflowService) validateAction(b *entity.Budget, action workflow.Action) error {
	switch action {
	case workflow.ActionSubmit:
		if len(b.Items) == 0 {
			return fmt.Errorf("%w: 明細のない予算は申請できません", workflow.ErrValidation)
		}
	case workflow.ActionSubmitFinal:
		recorded := 0
		for i := range b.Items {
			if b.Items[i].HasActual() {
				recorded++
			}
		}
		if recorded == 0 {
			return fmt.Errorf("%w: 実績が1件も記録されていないため精算申請できません", workflow.ErrValidation)
		}
	}
	return nil
}

func (s *WorkflowService) publishTransition(b *entity.Budget, log *entity.ApprovalLog) {
	bgCtx := context.Background()
	s.notifier.PublishTransition(bgCtx, TransitionEvent{
		BudgetID:   b.ID,
		Code:       b.Code,
		ProjectID:  b.ProjectID,
		Action:     log.Action,
		FromStatus: log.FromStatus,
		ToStatus:   log.ToStatus,
		ActorID:    log.ActorID,
		ActorName:  log.ActorName,
		ActorRole:  log.ActorRole,
		Comment:    log.Comment,
		OccurredAt: log.CreatedAt,
	})

	counts, err := s.repos.Budget.CountByStatus(bgCtx)
	if err != nil {
		s.logger.Warn("ステータス件数の集計に失敗しました", zap.Error(err))
		return
	}
	s.notifier.RefreshStatusCounts(bgCtx, counts)
}

// Get 予算を集計値付きで取得する
func (s *WorkflowService) Get(ctx context.Context, id string) (*BudgetDetail, error) {
	b, err := s.repos.Budget.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BudgetDetail{Budget: b, Totals: money.Compute(b)}, nil
}

// ListPending 操作者のロールで承認できる予算の一覧
func (s *WorkflowService) ListPending(ctx context.Context, roles []workflow.Role) ([]entity.Budget, error) {
	seen := map[string]bool{}
	var statuses []string
	for _, role := range roles {
		for _, st := range workflow.PendingStatusesFor(role) {
			if !seen[st] {
				statuses = append(statuses, st)
				seen[st] = true
			}
		}
	}
	return s.repos.Budget.FindByStatuses(ctx, statuses)
}

// DashboardCounters ダッシュボード用の件数集計。
// redis のキャッシュを優先し、無ければ DB から集計して埋め直す
func (s *WorkflowService) DashboardCounters(ctx context.Context, roles []workflow.Role) (map[string]int64, error) {
	counts, err := s.statusCounts(ctx)
	if err != nil {
		return nil, err
	}

	result := map[string]int64{}
	var pendingForMe int64
	for _, role := range roles {
		for _, st := range workflow.PendingStatusesFor(role) {
			pendingForMe += counts[st]
		}
	}
	result["pending_for_me"] = pendingForMe
	result["draft"] = counts[entity.BudgetStatusDraft]
	result["in_progress"] = counts[entity.BudgetStatusInProgress]
	result["completed"] = counts[entity.BudgetStatusCompleted]
	result["change_request"] = counts[entity.BudgetStatusChangeRequest]
	return result, nil
}

func (s *WorkflowService) statusCounts(ctx context.Context) (map[string]int64, error) {
	if s.notifier != nil {
		if counts, err := s.notifier.GetStatusCounts(ctx); err == nil && len(counts) > 0 {
			return counts, nil
		}
	}
	counts, err := s.repos.Budget.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.RefreshStatusCounts(ctx, counts)
	}
	return counts, nil
}

// Logs 予算の承認ログを取得する
func (s *WorkflowService) Logs(ctx context.Context, budgetID string) ([]entity.ApprovalLog, error) {
	if _, err := s.repos.Budget.FindByID(ctx, budgetID); err != nil {
		return nil, err
	}
	return s.repos.ApprovalLog.ListByBudget(ctx, budgetID)
}
