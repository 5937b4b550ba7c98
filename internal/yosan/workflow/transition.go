package workflow

import (
	"errors"
	"fmt"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
)

// Role 承認権限ロール。認証基盤（JWT）が払い出す値で、本システムでは作成しない
type Role string

const (
	RoleSubmitter Role = "submitter" // メンバー・経理
	RoleManager   Role = "manager"   // 管理部長
	RoleDirector  Role = "director"  // 常務
	RolePresident Role = "president" // 社長
	RoleAdmin     Role = "admin"     // システム管理者
)

// Roles 全ロール
var Roles = []Role{RoleSubmitter, RoleManager, RoleDirector, RolePresident, RoleAdmin}

// Action ワークフロー操作
type Action string

const (
	ActionSubmit        Action = "submit"         // 予算承認申請
	ActionApprove       Action = "approve"        // 承認
	ActionReject        Action = "reject"         // 差戻し
	ActionSubmitFinal   Action = "submit_final"   // 精算承認申請
	ActionRequestChange Action = "request_change" // 変更申請
)

// Transition 遷移定義。From の状態で Action を Roles のいずれかが実行すると To へ進む
type Transition struct {
	From   string
	Action Action
	Roles  []Role
	To     string
}

// transitions が遷移の唯一の定義元。
// 承認可否・申請可否などの判定関数はすべてこの表から導出し、別リストを持たない
var transitions = []Transition{
	// 予算承認サイクル: 管理部長 → 常務 → 社長
	{entity.BudgetStatusDraft, ActionSubmit, []Role{RoleSubmitter}, entity.BudgetStatusPendingManager},
	{entity.BudgetStatusPendingManager, ActionApprove, []Role{RoleManager}, entity.BudgetStatusPendingDirector},
	{entity.BudgetStatusPendingManager, ActionReject, []Role{RoleManager}, entity.BudgetStatusRejected},
	{entity.BudgetStatusPendingDirector, ActionApprove, []Role{RoleDirector}, entity.BudgetStatusPendingPresident},
	{entity.BudgetStatusPendingDirector, ActionReject, []Role{RoleDirector}, entity.BudgetStatusRejected},
	{entity.BudgetStatusPendingPresident, ActionApprove, []Role{RolePresident}, entity.BudgetStatusInProgress},
	{entity.BudgetStatusPendingPresident, ActionReject, []Role{RolePresident}, entity.BudgetStatusRejected},

	// 施工完了後の精算サイクル: 管理部長 → 常務 → 社長
	{entity.BudgetStatusInProgress, ActionSubmitFinal, []Role{RoleSubmitter, RoleAdmin}, entity.BudgetStatusFinalPendingManager},
	{entity.BudgetStatusFinalPendingManager, ActionApprove, []Role{RoleManager}, entity.BudgetStatusFinalPendingDirector},
	{entity.BudgetStatusFinalPendingManager, ActionReject, []Role{RoleManager}, entity.BudgetStatusFinalRejected},
	{entity.BudgetStatusFinalPendingDirector, ActionApprove, []Role{RoleDirector}, entity.BudgetStatusFinalPendingPresident},
	{entity.BudgetStatusFinalPendingDirector, ActionReject, []Role{RoleDirector}, entity.BudgetStatusFinalRejected},
	{entity.BudgetStatusFinalPendingPresident, ActionApprove, []Role{RolePresident}, entity.BudgetStatusCompleted},
	{entity.BudgetStatusFinalPendingPresident, ActionReject, []Role{RolePresident}, entity.BudgetStatusFinalRejected},

	// 変更申請。change_request からの復帰遷移は未定義（要件確定待ち）
	{entity.BudgetStatusInProgress, ActionRequestChange, []Role{RoleSubmitter, RoleAdmin}, entity.BudgetStatusChangeRequest},
}

// terminalStatuses 終了状態。再オープンの遷移は定義しない
var terminalStatuses = map[string]bool{
	entity.BudgetStatusRejected:      true,
	entity.BudgetStatusFinalRejected: true,
	entity.BudgetStatusCompleted:     true,
}

// Transitions 遷移表のコピーを返す（テスト・ドキュメント生成用）
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// IsTerminal 終了状態かどうか
func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// Apply 状態遷移を適用する。
// 対象の (状態, 操作) に遷移が定義されていなければ ErrInvalidTransition、
// 遷移はあるがロールが一致しなければ ErrUnauthorized を返す。無変更で成功することはない
func Apply(status string, action Action, role Role) (string, error) {
	edgeExists := false
	for _, t := range transitions {
		if t.From != status || t.Action != action {
			continue
		}
		edgeExists = true
		for _, r := range t.Roles {
			if r == role {
				return t.To, nil
			}
		}
	}
	if edgeExists {
		return "", fmt.Errorf("%w: ロール[%s]は状態[%s]で操作[%s]を実行できません", ErrUnauthorized, role, entity.StatusLabel(status), action)
	}
	return "", fmt.Errorf("%w: 状態[%s]に操作[%s]は定義されていません", ErrInvalidTransition, entity.StatusLabel(status), action)
}

// Resolve 複数ロールを持つ利用者の遷移解決。
// 実行可能なロールが1つでもあればそのロールで遷移し、実際に使ったロールを返す
func Resolve(status string, action Action, roles []Role) (to string, acting Role, err error) {
	for _, role := range roles {
		next, applyErr := Apply(status, action, role)
		if applyErr == nil {
			return next, role, nil
		}
		if err == nil || !errors.Is(err, ErrUnauthorized) {
			err = applyErr
		}
	}
	if err == nil {
		_, err = Apply(status, action, "")
	}
	return "", "", err
}
