package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/service"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/workflow"
)

// WorkflowHandler 承認ワークフローハンドラ
type WorkflowHandler struct {
	svc *service.WorkflowService
}

func NewWorkflowHandler(svc *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// RequestAction ワークフロー操作（申請・承認・差戻し・精算申請・変更申請）
func (h *WorkflowHandler) RequestAction(c *gin.Context) {
	var req service.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "パラメータが不正です: "+err.Error())
		return
	}

	detail, err := h.svc.RequestAction(c.Request.Context(), c.Param("id"), &req, GetActor(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, detail)
}

// ListLogs 承認ログ一覧
func (h *WorkflowHandler) ListLogs(c *gin.Context) {
	logs, err := h.svc.Logs(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, logs)
}

// ListPending 自分のロールで承認できる予算一覧
func (h *WorkflowHandler) ListPending(c *gin.Context) {
	actor := GetActor(c)
	items, err := h.svc.ListPending(c.Request.Context(), actor.Roles)
	if err != nil {
		InternalError(c, "承認待ち一覧の取得に失敗しました: "+err.Error())
		return
	}
	Success(c, items)
}

// DashboardCounters ダッシュボードのバッジ件数
func (h *WorkflowHandler) DashboardCounters(c *gin.Context) {
	actor := GetActor(c)
	counters, err := h.svc.DashboardCounters(c.Request.Context(), actor.Roles)
	if err != nil {
		InternalError(c, "件数の集計に失敗しました: "+err.Error())
		return
	}
	Success(c, counters)
}

// AvailableActions 現在の状態で操作者が実行できる操作一覧（ボタン出し分け用）
func (h *WorkflowHandler) AvailableActions(c *gin.Context) {
	detail, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}

	actor := GetActor(c)
	seen := map[workflow.Action]bool{}
	actions := []workflow.Action{}
	for _, role := range actor.Roles {
		for _, a := range workflow.ActionsFor(role, detail.Budget.Status) {
			if !seen[a] {
				actions = append(actions, a)
				seen[a] = true
			}
		}
	}

	Success(c, gin.H{
		"status":             detail.Budget.Status,
		"status_label":       entity.StatusLabel(detail.Budget.Status),
		"status_color":       entity.StatusColor(detail.Budget.Status),
		"actions":            actions,
		"can_edit_items":     workflow.CanEditItemsAny(actor.Roles, detail.Budget.Status),
		"can_record_actuals": workflow.CanRecordActualsAny(actor.Roles, detail.Budget.Status),
	})
}
