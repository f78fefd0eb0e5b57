package dto

// RegisterReq は/registerエンドポイントのリクエストボディを表します。
// 必須フィールドとパスワードの最低文字数バリデーションを含みます。
type RegisterReq struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,max=64"`
}
