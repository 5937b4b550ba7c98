package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// workflowChannel 承認ログの配信チャンネル。通知・監査側が購読する
	workflowChannel = "yosan.workflow"
	// statusCountsKey ステータス別件数のキャッシュキー
	statusCountsKey = "yosan:status_counts"

	statusCountsTTL = 10 * time.Minute
)

// TransitionEvent 遷移イベント。承認ログと同じ内容を持つ
type TransitionEvent struct {
	BudgetID   string    `json:"budget_id"`
	Code       string    `json:"code"`
	ProjectID  string    `json:"project_id"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	ActorRole  string    `json:"actor_role"`
	Comment    string    `json:"comment"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier redis 経由のイベント配信と件数キャッシュ。
// rdb が nil の場合は何もしない（テスト用）
type Notifier struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewNotifier 通知コンポーネントを作成する
func NewNotifier(rdb *redis.Client, logger *zap.Logger) *Notifier {
	return &Notifier{rdb: rdb, logger: logger}
}

// PublishTransition 遷移イベントを配信する。失敗してもログのみで主処理は止めない
func (n *Notifier) PublishTransition(ctx context.Context, ev TransitionEvent) {
	if n.rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		n.logger.Warn("遷移イベントのシリアライズに失敗しました", zap.Error(err))
		return
	}
	if err := n.rdb.Publish(ctx, workflowChannel, payload).Err(); err != nil {
		n.logger.Warn("遷移イベントの配信に失敗しました",
			zap.String("budget_id", ev.BudgetID),
			zap.Error(err),
		)
	}
}

// RefreshStatusCounts ステータス別件数キャッシュを入れ替える
func (n *Notifier) RefreshStatusCounts(ctx context.Context, counts map[string]int64) {
	if n.rdb == nil {
		return
	}
	fields := make(map[string]interface{}, len(counts))
	for status, count := range counts {
		fields[status] = count
	}

	pipe := n.rdb.TxPipeline()
	pipe.Del(ctx, statusCountsKey)
	if len(fields) > 0 {
		pipe.HSet(ctx, statusCountsKey, fields)
	}
	pipe.Expire(ctx, statusCountsKey, statusCountsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		n.logger.Warn("件数キャッシュの更新に失敗しました", zap.Error(err))
	}
}

// GetStatusCounts ステータス別件数キャッシュを取得する
func (n *Notifier) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	if n.rdb == nil {
		return nil, nil
	}
	raw, err := n.rdb.HGetAll(ctx, statusCountsKey).Result()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(raw))
	for status, v := range raw {
		count, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts[status] = count
	}
	return counts, nil
}
