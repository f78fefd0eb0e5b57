// Package entity はauditフィーチャーのドメインエンティティを定義します。
package entity

import "time"

// OperationLog は監査用の操作記録です。認証イベント（ログイン、ログアウト、
// 強制ログアウト、ユーザー登録）の成否を発生元の情報と共に保存します。
type OperationLog struct {
	ID uint `gorm:"primaryKey"`

	// Username は操作したユーザー名。未認証の操作では "unknown"。
	Username string `gorm:"size:64;index"`

	// Operation は操作名（login, logout, force_logout, register）。
	Operation string `gorm:"size:64;not null"`

	// Module は操作が属する機能領域。
	Module string `gorm:"size:32"`

	IP        string `gorm:"size:45"` // IPv6の最大長
	UserAgent string `gorm:"size:512"`

	// Params は操作パラメータの要約（機密情報は含めない）。
	Params string `gorm:"size:1024"`

	Success bool

	CreatedAt time.Time
}

// TableName returns the table name for GORM.
func (OperationLog) TableName() string {
	return "operation_logs"
}
