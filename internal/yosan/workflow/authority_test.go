package workflow

import (
	"testing"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
)

func TestCanSubmitForApproval(t *testing.T) {
	// 下書きの submitter だけが予算承認申請を出せる
	for _, role := range Roles {
		got := CanSubmitForApproval(role, entity.BudgetStatusDraft)
		want := role == RoleSubmitter
		if got != want {
			t.Fatalf("draft + %s: expected %v, got %v", role, want, got)
		}
	}

	statuses := []string{
		entity.BudgetStatusPendingManager,
		entity.BudgetStatusInProgress,
		entity.BudgetStatusRejected,
		entity.BudgetStatusCompleted,
		entity.BudgetStatusChangeRequest,
	}
	for _, status := range statuses {
		if CanSubmitForApproval(RoleSubmitter, status) {
			t.Fatalf("submit should not be allowed from %s", status)
		}
	}
}

func TestCanApproveMatchesTransitionTable(t *testing.T) {
	// CanApprove は遷移表の approve/reject 行と完全に一致する
	statuses := []string{
		entity.BudgetStatusDraft,
		entity.BudgetStatusPendingManager,
		entity.BudgetStatusPendingDirector,
		entity.BudgetStatusPendingPresident,
		entity.BudgetStatusRejected,
		entity.BudgetStatusInProgress,
		entity.BudgetStatusFinalPendingManager,
		entity.BudgetStatusFinalPendingDirector,
		entity.BudgetStatusFinalPendingPresident,
		entity.BudgetStatusFinalRejected,
		entity.BudgetStatusCompleted,
		entity.BudgetStatusChangeRequest,
	}
	for _, status := range statuses {
		for _, role := range Roles {
			expected := false
			for _, tr := range Transitions() {
				if tr.From != status || (tr.Action != ActionApprove && tr.Action != ActionReject) {
					continue
				}
				for _, r := range tr.Roles {
					if r == role {
						expected = true
					}
				}
			}
			if got := CanApprove(role, status); got != expected {
				t.Fatalf("CanApprove(%s, %s): expected %v, got %v", role, status, expected, got)
			}
		}
	}
}

func TestCanApproveTiers(t *testing.T) {
	cases := []struct {
		status string
		role   Role
		want   bool
	}{
		{entity.BudgetStatusPendingManager, RoleManager, true},
		{entity.BudgetStatusPendingManager, RoleDirector, false},
		{entity.BudgetStatusPendingManager, RoleAdmin, false},
		{entity.BudgetStatusPendingDirector, RoleDirector, true},
		{entity.BudgetStatusPendingPresident, RolePresident, true},
		{entity.BudgetStatusFinalPendingManager, RoleManager, true},
		{entity.BudgetStatusFinalPendingPresident, RolePresident, true},
		{entity.BudgetStatusInProgress, RoleManager, false},
		{entity.BudgetStatusDraft, RoleManager, false},
	}
	for _, c := range cases {
		if got := CanApprove(c.role, c.status); got != c.want {
			t.Fatalf("CanApprove(%s, %s): expected %v, got %v", c.role, c.status, c.want, got)
		}
	}
}

func TestActionsFor(t *testing.T) {
	actions := ActionsFor(RoleSubmitter, entity.BudgetStatusDraft)
	if len(actions) != 1 || actions[0] != ActionSubmit {
		t.Fatalf("draft submitter: expected [submit], got %v", actions)
	}

	actions = ActionsFor(RoleManager, entity.BudgetStatusPendingManager)
	if len(actions) != 2 {
		t.Fatalf("pending_manager manager: expected approve+reject, got %v", actions)
	}

	actions = ActionsFor(RoleSubmitter, entity.BudgetStatusInProgress)
	if len(actions) != 2 {
		t.Fatalf("in_progress submitter: expected submit_final+request_change, got %v", actions)
	}

	if actions := ActionsFor(RoleSubmitter, entity.BudgetStatusCompleted); len(actions) != 0 {
		t.Fatalf("completed: expected no actions, got %v", actions)
	}
}

func TestPendingStatusesFor(t *testing.T) {
	cases := []struct {
		role Role
		want map[string]bool
	}{
		{RoleManager, map[string]bool{
			entity.BudgetStatusPendingManager:      true,
			entity.BudgetStatusFinalPendingManager: true,
		}},
		{RoleDirector, map[string]bool{
			entity.BudgetStatusPendingDirector:      true,
			entity.BudgetStatusFinalPendingDirector: true,
		}},
		{RolePresident, map[string]bool{
			entity.BudgetStatusPendingPresident:      true,
			entity.BudgetStatusFinalPendingPresident: true,
		}},
		{RoleSubmitter, map[string]bool{}},
		{RoleAdmin, map[string]bool{}},
	}
	for _, c := range cases {
		got := PendingStatusesFor(c.role)
		if len(got) != len(c.want) {
			t.Fatalf("PendingStatusesFor(%s): expected %d statuses, got %v", c.role, len(c.want), got)
		}
		for _, s := range got {
			if !c.want[s] {
				t.Fatalf("PendingStatusesFor(%s): unexpected status %s", c.role, s)
			}
		}
	}
}

func TestCanEditItems(t *testing.T) {
	cases := []struct {
		role   Role
		status string
		want   bool
	}{
		{RoleSubmitter, entity.BudgetStatusDraft, true},
		{RoleSubmitter, entity.BudgetStatusPendingManager, true},
		{RoleSubmitter, entity.BudgetStatusPendingPresident, true},
		{RoleSubmitter, entity.BudgetStatusInProgress, false},
		{RoleManager, entity.BudgetStatusInProgress, true},
		{RoleDirector, entity.BudgetStatusInProgress, true},
		{RoleAdmin, entity.BudgetStatusInProgress, true},
		{RolePresident, entity.BudgetStatusInProgress, false},
		{RoleAdmin, entity.BudgetStatusCompleted, false},
		{RoleAdmin, entity.BudgetStatusRejected, false},
		{RoleManager, entity.BudgetStatusChangeRequest, false},
	}
	for _, c := range cases {
		if got := CanEditItems(c.role, c.status); got != c.want {
			t.Fatalf("CanEditItems(%s, %s): expected %v, got %v", c.role, c.status, c.want, got)
		}
	}
}

func TestCanRecordActuals(t *testing.T) {
	// 実績記録は施工中のみ
	for _, role := range []Role{RoleSubmitter, RoleManager, RoleDirector, RoleAdmin} {
		if !CanRecordActuals(role, entity.BudgetStatusInProgress) {
			t.Fatalf("%s should record actuals while in_progress", role)
		}
	}
	if CanRecordActuals(RolePresident, entity.BudgetStatusInProgress) {
		t.Fatal("president should not record actuals")
	}
	if CanRecordActuals(RoleSubmitter, entity.BudgetStatusDraft) {
		t.Fatal("actuals should not be recordable in draft")
	}
	if CanRecordActuals(RoleAdmin, entity.BudgetStatusCompleted) {
		t.Fatal("actuals should not be recordable after completion")
	}
}

func TestParseRoles(t *testing.T) {
	roles := ParseRoles([]string{"submitter", "manager", "unknown", "admin"})
	if len(roles) != 3 {
		t.Fatalf("expected 3 roles, got %v", roles)
	}
	if roles[0] != RoleSubmitter || roles[1] != RoleManager || roles[2] != RoleAdmin {
		t.Fatalf("unexpected roles: %v", roles)
	}

	if got := ParseRoles(nil); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}
