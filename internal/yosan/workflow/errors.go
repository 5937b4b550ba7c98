package workflow

import "errors"

// ワークフローのエラー種別。呼び出し側は errors.Is で判定する
var (
	ErrUnauthorized      = errors.New("権限がありません")
	ErrInvalidTransition = errors.New("許可されていない状態遷移です")
	ErrConflict          = errors.New("他のユーザーによって更新されています")
	ErrValidation        = errors.New("入力値が不正です")
)
