package workflow

import "github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"

// 権限判定。すべて transitions 表からの導出で、ロールの一覧を別途持たない

// CanAct ロールが現在の状態で操作を実行できるか
func CanAct(role Role, status string, action Action) bool {
	for _, t := range transitions {
		if t.From != status || t.Action != action {
			continue
		}
		for _, r := range t.Roles {
			if r == role {
				return true
			}
		}
	}
	return false
}

// CanSubmitForApproval 予算承認申請を出せるか
func CanSubmitForApproval(role Role, status string) bool {
	return CanAct(role, status, ActionSubmit)
}

// CanApprove 現在の状態で承認または差戻しの操作者かどうか。
// 一覧・ダッシュボードの「要承認」表示判定に使う
func CanApprove(role Role, status string) bool {
	return CanAct(role, status, ActionApprove) || CanAct(role, status, ActionReject)
}

// ActionsFor ロールが現在の状態で実行できる操作の一覧（画面のボタン出し分け用）
func ActionsFor(role Role, status string) []Action {
	var actions []Action
	seen := map[Action]bool{}
	for _, t := range transitions {
		if t.From != status || seen[t.Action] {
			continue
		}
		for _, r := range t.Roles {
			if r == role {
				actions = append(actions, t.Action)
				seen[t.Action] = true
				break
			}
		}
	}
	return actions
}

// PendingStatusesFor ロールが承認者として動ける状態の一覧（待ち件数の集計用）
func PendingStatusesFor(role Role) []string {
	var statuses []string
	seen := map[string]bool{}
	for _, t := range transitions {
		if t.Action != ActionApprove && t.Action != ActionReject {
			continue
		}
		if seen[t.From] {
			continue
		}
		for _, r := range t.Roles {
			if r == role {
				statuses = append(statuses, t.From)
				seen[t.From] = true
				break
			}
		}
	}
	return statuses
}

// CanEditItems 明細の編集可否。
// 申請者は下書き〜承認待ちの間のみ。管理部長・常務・管理者は施工中も編集できる
func CanEditItems(role Role, status string) bool {
	privileged := role == RoleAdmin || role == RoleManager || role == RoleDirector
	switch status {
	case entity.BudgetStatusDraft,
		entity.BudgetStatusPendingManager,
		entity.BudgetStatusPendingDirector,
		entity.BudgetStatusPendingPresident:
		return role == RoleSubmitter || privileged
	case entity.BudgetStatusInProgress:
		return privileged
	default:
		return false
	}
}

// CanRecordActuals 実績値の記録可否。施工中のみ記録できる
func CanRecordActuals(role Role, status string) bool {
	if status != entity.BudgetStatusInProgress {
		return false
	}
	return role == RoleSubmitter || role == RoleManager || role == RoleDirector || role == RoleAdmin
}

// CanRecordActualsAny いずれかのロールで実績を記録できるか
func CanRecordActualsAny(roles []Role, status string) bool {
	for _, r := range roles {
		if CanRecordActuals(r, status) {
			return true
		}
	}
	return false
}

// CanEditItemsAny いずれかのロールで編集できるか
func CanEditItemsAny(roles []Role, status string) bool {
	for _, r := range roles {
		if CanEditItems(r, status) {
			return true
		}
	}
	return false
}

// ParseRoles 認証基盤から渡されたロール文字列を正規化する。未知の値は無視する
func ParseRoles(raw []string) []Role {
	var roles []Role
	for _, s := range raw {
		for _, r := range Roles {
			if string(r) == s {
				roles = append(roles, r)
				break
			}
		}
	}
	return roles
}
