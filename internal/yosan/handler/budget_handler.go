package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/service"
)

// BudgetHandler 実行予算ハンドラ
type BudgetHandler struct {
	svc       *service.BudgetService
	exportSvc *service.ExportService
}

func NewBudgetHandler(svc *service.BudgetService, exportSvc *service.ExportService) *BudgetHandler {
	return &BudgetHandler{svc: svc, exportSvc: exportSvc}
}

// ListBudgets 予算一覧
func (h *BudgetHandler) ListBudgets(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":     c.Query("status"),
		"project_id": c.Query("project_id"),
		"created_by": c.Query("created_by"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "予算一覧の取得に失敗しました: "+err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// CreateBudget 予算作成
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req service.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "パラメータが不正です: "+err.Error())
		return
	}

	detail, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}

	Created(c, detail)
}

// GetBudget 予算詳細（集計値付き）
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	detail, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, detail)
}

// UpdateBudget 予算ヘッダ更新
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	var req service.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "パラメータが不正です: "+err.Error())
		return
	}

	detail, err := h.svc.Update(c.Request.Context(), c.Param("id"), GetActor(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, detail)
}

// DeleteBudget 予算削除（下書きのみ）
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetActor(c)); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// CreateLineItem 明細追加
func (h *BudgetHandler) CreateLineItem(c *gin.Context) {
	h.upsertLineItem(c, "")
}

// UpdateLineItem 明細更新
func (h *BudgetHandler) UpdateLineItem(c *gin.Context) {
	h.upsertLineItem(c, c.Param("itemId"))
}

type lineItemRequest struct {
	service.LineItemInput
	Version int `json:"version" binding:"required"`
}

func (h *BudgetHandler) upsertLineItem(c *gin.Context, itemID string) {
	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "パラメータが不正です: "+err.Error())
		return
	}

	detail, err := h.svc.UpsertLineItem(c.Request.Context(), c.Param("id"), itemID, GetActor(c), req.Version, &req.LineItemInput)
	if err != nil {
		Fail(c, err)
		return
	}
	if itemID == "" {
		Created(c, detail)
		return
	}
	Success(c, detail)
}

// DeleteLineItem 明細削除
func (h *BudgetHandler) DeleteLineItem(c *gin.Context) {
	version, err := strconv.Atoi(c.Query("version"))
	if err != nil || version <= 0 {
		BadRequest(c, "version は必須です")
		return
	}

	detail, err := h.svc.DeleteLineItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), GetActor(c), version)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, detail)
}

type actualRequest struct {
	service.ActualInput
	Version int `json:"version" binding:"required"`
}

// RecordActual 明細の実績記録
func (h *BudgetHandler) RecordActual(c *gin.Context) {
	var req actualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "パラメータが不正です: "+err.Error())
		return
	}

	detail, err := h.svc.RecordActual(c.Request.Context(), c.Param("id"), c.Param("itemId"), GetActor(c), req.Version, &req.ActualInput)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, detail)
}

// ExportBudget 予実対比表のExcel出力
func (h *BudgetHandler) ExportBudget(c *gin.Context) {
	detail, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}

	f, err := h.exportSvc.BuildWorkbook(detail)
	if err != nil {
		InternalError(c, "Excelの生成に失敗しました: "+err.Error())
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("%s.xlsx", detail.Budget.Code)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
