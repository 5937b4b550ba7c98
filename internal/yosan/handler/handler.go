package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/repository"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/service"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/workflow"
)

// Handlers 予算管理ハンドラ集合
type Handlers struct {
	Budget   *BudgetHandler
	Workflow *WorkflowHandler
}

// NewHandlers ハンドラ集合を作成する
func NewHandlers(budgetSvc *service.BudgetService, workflowSvc *service.WorkflowService, exportSvc *service.ExportService) *Handlers {
	return &Handlers{
		Budget:   NewBudgetHandler(budgetSvc, exportSvc),
		Workflow: NewWorkflowHandler(workflowSvc),
	}
}

// === 応答ヘルパ ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// Fail エラー種別からHTTP応答を組み立てる。
// ワークフローのエラーはすべて型付きで返るため、ここ以外でマッピングしない
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, workflow.ErrUnauthorized):
		Forbidden(c, err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition):
		Error(c, 40901, err.Error())
	case errors.Is(err, workflow.ErrConflict), errors.Is(err, repository.ErrConflict):
		Conflict(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "予算が見つかりません")
	default:
		InternalError(c, err.Error())
	}
}

// GetActor 認証ミドルウェアが設定したクレームから操作者を組み立てる
func GetActor(c *gin.Context) service.Actor {
	actor := service.Actor{}
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(string); ok {
			actor.ID = id
		}
	}
	if v, ok := c.Get("user_name"); ok {
		if name, ok := v.(string); ok {
			actor.Name = name
		}
	}
	if v, ok := c.Get("roles"); ok {
		if raw, ok := v.([]string); ok {
			actor.Roles = workflow.ParseRoles(raw)
		}
	}
	return actor
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
