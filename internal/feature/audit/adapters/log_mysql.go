// Package adapters はauditフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"

	"portal_backend/internal/feature/audit/domain/entity"
	"portal_backend/internal/feature/audit/usecase"
)

// logMySQL はLogRepositoryインターフェースのMySQL実装です。
type logMySQL struct {
	db *gorm.DB
}

// logMySQLがLogRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.LogRepository = (*logMySQL)(nil)

// NewLogMySQL は指定されたgorm.DB接続でlogMySQLの新しいインスタンスを生成します。
func NewLogMySQL(db *gorm.DB) *logMySQL {
	return &logMySQL{db: db}
}

// Create は操作記録をデータベースに追加します。
func (r *logMySQL) Create(ctx context.Context, log *entity.OperationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
