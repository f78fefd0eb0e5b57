// Package handler はポータルの運用系エンドポイントのHTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health は /healthz を処理するハンドラーを返します。死活監視がセッション
// 照合に巻き込まれないよう、このパスはガードの免除対象です。レスポンスには
// 稼働中のセッションストアのバックエンド（redis / memory）を含めるので、
// Redis 接続に失敗してフォールバックしたまま動いている状態を監視側から
// 見分けられます。
func Health(sessionStore string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 死活監視の応答はキャッシュさせない
		c.Header("Cache-Control", "no-store")

		switch c.Request.Method {
		case http.MethodHead:
			c.Status(http.StatusOK)
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
		default:
			c.JSON(http.StatusOK, gin.H{
				"status":        "ok",
				"service":       "portal_backend",
				"session_store": sessionStore,
			})
		}
	}
}
