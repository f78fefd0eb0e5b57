// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// LoginReq は/loginエンドポイントのリクエストボディを表します。
type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResp は/loginエンドポイントの成功レスポンスを表します。
// Redirect はロールに応じたパネルのパスです。
type LoginResp struct {
	Token    string `json:"token"`
	Redirect string `json:"redirect"`
}
