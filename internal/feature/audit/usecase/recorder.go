// Package usecase はauditフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"log/slog"

	"portal_backend/internal/feature/audit/domain/entity"
)

// LogRepository は操作記録の永続化層を抽象化します。
// Goの慣例に従い、インターフェースはコンシューマー（usecase）が定義します。
type LogRepository interface {
	Create(ctx context.Context, log *entity.OperationLog) error
}

// Recorder は操作記録を書き込みます。記録の失敗が業務処理を妨げてはならない
// ため、ストレージエラーはログに残すだけで呼び出し元へは伝搬しません。
type Recorder struct {
	logs LogRepository
}

// NewRecorder はRecorderの新しいインスタンスを生成します。
func NewRecorder(logs LogRepository) *Recorder {
	return &Recorder{logs: logs}
}

// Record は操作記録を保存します（フェイルソフト）。
func (r *Recorder) Record(ctx context.Context, e entity.OperationLog) {
	if err := r.logs.Create(ctx, &e); err != nil {
		slog.Error("failed to record operation log",
			"error", err, "operation", e.Operation, "username", e.Username)
	}
}
