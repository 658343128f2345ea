// Package cleanup は参照先のなくなった権限を削除するバックグラウンドジョブを提供する。
// 開発者の削除時に権限の取り消しが失敗した場合でも、
// このジョブが定期的に残った Specific 権限を片付ける。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/devfolio/internal/metrics"
	"github.com/hitoshi/devfolio/internal/model"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// deleteDanglingQuery は存在しない開発者を指す Specific 権限を削除する。
// resource_idはTEXT、developers.idはUUIDのため文字列として比較する。
const deleteDanglingQuery = `DELETE FROM permissions p
WHERE p.scope = 'Specific'
  AND p.resource = $1
  AND NOT EXISTS (SELECT 1 FROM developers d WHERE d.id::text = p.resource_id)`

// PermissionCleanupJob は参照先のない権限の削除ジョブ。
// 冪等であり、何度実行しても結果は変わらない。
type PermissionCleanupJob struct {
	db        Executor
	logger    *slog.Logger
	collector metrics.MetricsCollector
}

// NewPermissionCleanupJob は新しいPermissionCleanupJobを生成する。
func NewPermissionCleanupJob(db Executor, logger *slog.Logger, collector metrics.MetricsCollector) *PermissionCleanupJob {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &PermissionCleanupJob{
		db:        db,
		logger:    logger,
		collector: collector,
	}
}

// Run は参照先のない Developers の Specific 権限を削除し、削除件数を返す。
// All権限は対象外。削除対象がない場合もエラーにならない。
func (j *PermissionCleanupJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	result, err := j.db.ExecContext(ctx, deleteDanglingQuery, model.ResourceDevelopers)
	if err != nil {
		j.logger.Error("権限クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("権限クリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	j.collector.RecordDanglingPermissionsDeleted(deletedCount)

	duration := time.Since(start)
	j.logger.Info("権限クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.String("resource", model.ResourceDevelopers),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return deletedCount, nil
}

// Start は指定間隔のティッカーでジョブを繰り返し実行する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
// 1回の失敗ではループを止めない。
func (j *PermissionCleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("権限クリーンアップを開始しました",
		slog.Duration("interval", interval),
	)

	_, _ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("権限クリーンアップを停止しました")
			return
		case <-ticker.C:
			_, _ = j.Run(ctx)
		}
	}
}
