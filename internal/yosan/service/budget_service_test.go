package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/repository"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/workflow"
)

func TestCreateGeneratesSequentialCodes(t *testing.T) {
	budgetSvc, _ := setupServices(t)

	first := createDraft(t, budgetSvc)
	second := createDraft(t, budgetSvc)

	if first.Budget.Code == second.Budget.Code {
		t.Fatalf("codes should be unique: %s", first.Budget.Code)
	}
	if len(first.Budget.Code) != len("YSN-202609-0001") {
		t.Fatalf("unexpected code format: %s", first.Budget.Code)
	}
}

func TestCreateRequiresSubmitterRole(t *testing.T) {
	budgetSvc, _ := setupServices(t)
	ctx := context.Background()

	_, err := budgetSvc.Create(ctx, manager, &CreateBudgetRequest{ProjectID: "prj-x"})
	if !errors.Is(err, workflow.ErrUnauthorized) {
		t.Fatalf("manager create: expected ErrUnauthorized, got %v", err)
	}

	// admin は作成を代行できる
	if _, err := budgetSvc.Create(ctx, admin, &CreateBudgetRequest{ProjectID: "prj-x"}); err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
}

func TestCreateValidatesItems(t *testing.T) {
	budgetSvc, _ := setupServices(t)
	ctx := context.Background()

	cases := []LineItemInput{
		{Section: "travel", Name: "不正費目", Quantity: decimal.NewFromInt(1), UnitPrice: 100},
		{Section: entity.SectionMaterials, Name: "", Quantity: decimal.NewFromInt(1), UnitPrice: 100},
		{Section: entity.SectionMaterials, Name: "負数量", Quantity: decimal.NewFromInt(-1), UnitPrice: 100},
		{Section: entity.SectionMaterials, Name: "負単価", Quantity: decimal.NewFromInt(1), UnitPrice: -100},
	}
	for _, c := range cases {
		_, err := budgetSvc.Create(ctx, submitter, &CreateBudgetRequest{
			ProjectID: "prj-x",
			Items:     []LineItemInput{c},
		})
		if !errors.Is(err, workflow.ErrValidation) {
			t.Fatalf("item %+v: expected ErrValidation, got %v", c, err)
		}
	}
}

func TestUpsertLineItemBumpsVersion(t *testing.T) {
	budgetSvc, _ := setupServices(t)
	ctx := context.Background()

	detail := createDraft(t, budgetSvc)
	if detail.Budget.Version != 1 {
		t.Fatalf("expected v1, got %d", detail.Budget.Version)
	}

	detail, err := budgetSvc.UpsertLineItem(ctx, detail.Budget.ID, "", submitter, 1, &LineItemInput{
		Section:   entity.SectionExpenses,
		Name:      "現場経費",
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: 50000,
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if detail.Budget.Version != 2 {
		t.Fatalf("version should bump to 2, got %d", detail.Budget.Version)
	}
	if len(detail.Budget.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(detail.Budget.Items))
	}
	if detail.Totals.Planned.SectionTotals[entity.SectionExpenses] != 50000 {
		t.Fatalf("expenses total: expected 50000, got %d", detail.Totals.Planned.SectionTotals[entity.SectionExpenses])
	}

	// 古い version での編集は競合
	_, err = budgetSvc.UpsertLineItem(ctx, detail.Budget.ID, "", submitter, 1, &LineItemInput{
		Section:   entity.SectionExpenses,
		Name:      "二重編集",
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: 1000,
	})
	if !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale edit, got %v", err)
	}
}

func TestDeleteLineItem(t *testing.T) {
	budgetSvc, _ := setupServices(t)
	ctx := context.Background()

	detail := createDraft(t, budgetSvc)
	itemID := detail.Budget.Items[0].ID

	detail, err := budgetSvc.DeleteLineItem(ctx, detail.Budget.ID, itemID, submitter, 1)
	if err != nil {
		t.Fatalf("delete item failed: %v", err)
	}
	if len(detail.Budget.Items) != 1 {
		t.Fatalf("expected 1 item left, got %d", len(detail.Budget.Items))
	}
	if detail.Budget.Version != 2 {
		t.Fatalf("version should bump on item delete, got %d", detail.Budget.Version)
	}

	_, err = budgetSvc.DeleteLineItem(ctx, detail.Budget.ID, itemID, submitter, detail.Budget.Version)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted item, got %v", err)
	}
}

func TestRecordActualGates(t *testing.T) {
	budgetSvc, workflowSvc := setupServices(t)
	ctx := context.Background()

	detail := createDraft(t, budgetSvc)
	itemID := detail.Budget.Items[0].ID
	qty := decimal.NewFromInt(10)
	price := int64(1000)

	// 下書き中は実績を記録できない
	_, err := budgetSvc.RecordActual(ctx, detail.Budget.ID, itemID, submitter, 1, &ActualInput{Quantity: &qty, UnitPrice: &price})
	if !errors.Is(err, workflow.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized in draft, got %v", err)
	}

	detail = act(t, workflowSvc, detail.Budget.ID, 1, workflow.ActionSubmit, submitter)
	detail = act(t, workflowSvc, detail.Budget.ID, detail.Budget.Version, workflow.ActionApprove, manager)
	detail = act(t, workflowSvc, detail.Budget.ID, detail.Budget.Version, workflow.ActionApprove, director)
	detail = act(t, workflowSvc, detail.Budget.ID, detail.Budget.Version, workflow.ActionApprove, president)

	// 施工中は申請者も記録できる
	detail, err = budgetSvc.RecordActual(ctx, detail.Budget.ID, itemID, submitter, detail.Budget.Version, &ActualInput{
		Quantity:  &qty,
		UnitPrice: &price,
		Supplier:  "株式会社テスト建材",
	})
	if err != nil {
		t.Fatalf("record actual failed: %v", err)
	}
	if detail.Totals.Actual.Subtotal != 10000 {
		t.Fatalf("actual subtotal: expected 10000, got %d", detail.Totals.Actual.Subtotal)
	}

	// nil を渡すと未記録に戻る
	detail, err = budgetSvc.RecordActual(ctx, detail.Budget.ID, itemID, submitter, detail.Budget.Version, &ActualInput{})
	if err != nil {
		t.Fatalf("clear actual failed: %v", err)
	}
	if detail.Totals.UnrecordedCount != 2 {
		t.Fatalf("expected 2 unrecorded after clearing, got %d", detail.Totals.UnrecordedCount)
	}
}

func TestSubmitterCannotEditInProgress(t *testing.T) {
	budgetSvc, workflowSvc := setupServices(t)
	ctx := context.Background()

	detail := createDraft(t, budgetSvc)
	detail = act(t, workflowSvc, detail.Budget.ID, 1, workflow.ActionSubmit, submitter)
	detail = act(t, workflowSvc, detail.Budget.ID, detail.Budget.Version, workflow.ActionApprove, manager)
	detail = act(t, workflowSvc, detail.Budget.ID, detail.Budget.Version, workflow.ActionApprove, director)
	detail = act(t, workflowSvc, detail.Budget.ID, detail.Budget.Version, workflow.ActionApprove, president)

	in := &LineItemInput{Section: entity.SectionMaterials, Name: "追加資材", Quantity: decimal.NewFromInt(1), UnitPrice: 1000}

	// 施工中の明細編集は管理部長・常務・管理者のみ
	_, err := budgetSvc.UpsertLineItem(ctx, detail.Budget.ID, "", submitter, detail.Budget.Version, in)
	if !errors.Is(err, workflow.ErrUnauthorized) {
		t.Fatalf("submitter edit in_progress: expected ErrUnauthorized, got %v", err)
	}
	if _, err := budgetSvc.UpsertLineItem(ctx, detail.Budget.ID, "", manager, detail.Budget.Version, in); err != nil {
		t.Fatalf("manager edit in_progress failed: %v", err)
	}
}

func TestDeleteBudgetDraftOnly(t *testing.T) {
	budgetSvc, workflowSvc := setupServices(t)
	ctx := context.Background()

	detail := createDraft(t, budgetSvc)

	// 作成者以外は削除できない
	other := Actor{ID: "user-999", Name: "別人", Roles: []workflow.Role{workflow.RoleSubmitter}}
	if err := budgetSvc.Delete(ctx, detail.Budget.ID, other); !errors.Is(err, workflow.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-creator, got %v", err)
	}

	// 申請後は削除できない
	submitted := createDraft(t, budgetSvc)
	act(t, workflowSvc, submitted.Budget.ID, 1, workflow.ActionSubmit, submitter)
	if err := budgetSvc.Delete(ctx, submitted.Budget.ID, submitter); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for submitted budget, got %v", err)
	}

	// 作成者本人は下書きを削除できる
	if err := budgetSvc.Delete(ctx, detail.Budget.ID, submitter); err != nil {
		t.Fatalf("delete draft failed: %v", err)
	}
	if _, err := budgetSvc.Get(ctx, detail.Budget.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpdateBudgetHeader(t *testing.T) {
	budgetSvc, _ := setupServices(t)
	ctx := context.Background()

	detail := createDraft(t, budgetSvc)

	name := "変更後の工事名"
	amount := int64(4_000_000)
	detail, err := budgetSvc.Update(ctx, detail.Budget.ID, submitter, &UpdateBudgetRequest{
		ProjectName:    &name,
		ContractAmount: &amount,
		Version:        1,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if detail.Budget.ProjectName != name || detail.Budget.ContractAmount != amount {
		t.Fatalf("header not updated: %+v", detail.Budget)
	}
	if detail.Budget.Version != 2 {
		t.Fatalf("version should bump, got %d", detail.Budget.Version)
	}
	// 粗利は新しい請負金額で再計算される
	wantProfit := amount - detail.Totals.Planned.GrandTotal
	if detail.Totals.Planned.Profit != wantProfit {
		t.Fatalf("profit: expected %d, got %d", wantProfit, detail.Totals.Planned.Profit)
	}
}

func TestListFilters(t *testing.T) {
	budgetSvc, workflowSvc := setupServices(t)
	ctx := context.Background()

	first := createDraft(t, budgetSvc)
	createDraft(t, budgetSvc)
	act(t, workflowSvc, first.Budget.ID, 1, workflow.ActionSubmit, submitter)

	items, total, err := budgetSvc.List(ctx, 1, 20, map[string]string{"status": entity.BudgetStatusDraft})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("draft filter: expected 1, got total=%d len=%d", total, len(items))
	}

	_, total, err = budgetSvc.List(ctx, 1, 20, map[string]string{"created_by": submitter.ID})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("created_by filter: expected 2, got %d", total)
	}
}
