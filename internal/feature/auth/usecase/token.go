package usecase

import "github.com/google/uuid"

// NewSessionToken は推測不能なセッショントークンを生成します。
// ログインごとに一意で、128ビットのエントロピーを持ちます。
func NewSessionToken() string {
	return uuid.NewString()
}
