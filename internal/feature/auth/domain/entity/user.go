// Package entity はauthフィーチャーのドメインエンティティを定義します。
package entity

import "time"

// 権限レベル。数値が小さいほど強い権限を表します。
const (
	RoleLevelSuperAdmin  = 0 // 最上位管理者
	RoleLevelSeniorAdmin = 1 // 上級管理者
	RoleLevelAdmin       = 2 // 一般管理者
	RoleLevelStaff       = 3 // エンジニア / カスタマーサービス
	RoleLevelTrainee     = 4 // 試用期間スタッフ
)

// RoleDetail の既知の値。空文字列も許容されます。
const (
	RoleDetailCustomerService = "customer_service"
	RoleDetailTrainee         = "trainee"
)

// User represents a registered portal user.
// ActiveSessionID is the durable login-mutex token: a user has at most one
// live session, and this field is the tie-breaker of record across process
// restarts. An empty string means no active session.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey"`

	// Username is the login name. It must be unique across all users.
	Username string `gorm:"uniqueIndex;size:64;not null"`

	// Password is the bcrypt hash of the user's password.
	// This never stores plaintext passwords.
	Password string `gorm:"size:255;not null"`

	// Name is the display name collected at registration.
	Name string `gorm:"size:64"`

	// Role is the base role type (e.g. "engineer").
	Role string `gorm:"size:32"`

	// RoleLevel and RoleDetail are the authorization attributes snapshotted
	// into the session record on every reconciliation pass.
	RoleLevel  int    `gorm:"not null"`
	RoleDetail string `gorm:"size:32"`

	// ActiveSessionID is the currently authoritative session token.
	// Mutated only by login/logout and by the reconciler when it adopts
	// the request token as authoritative.
	ActiveSessionID string `gorm:"size:64;index"`

	CreatedBy string `gorm:"size:64"`
	UpdatedBy string `gorm:"size:64"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
