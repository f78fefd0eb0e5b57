package router

import (
	authhandler "portal_backend/internal/feature/auth/transport/handler"
	portalhandler "portal_backend/internal/feature/portal/transport/handler"
	platformhandler "portal_backend/internal/platform/http/handler"
	"portal_backend/internal/shared/requestlog"

	"github.com/gin-gonic/gin"
)

// NewRouter はルーティングを組み立てます。lifecycle ミドルウェアが
// 全リクエストのセッション照合とリダイレクトループ検出を担うため、
// 免除パス以外はすべてセッション必須になります。
func NewRouter(lifecycle gin.HandlerFunc, auth *authhandler.AuthHandler,
	panel *portalhandler.PanelHandler, sessionStore string) *gin.Engine {
	r := gin.Default()

	r.Use(requestlog.Middleware(), lifecycle)

	// 導通確認用
	r.GET("/healthz", platformhandler.Health(sessionStore))

	// 静的ファイル（セッション照合の対象外）
	r.Static("/static", "./static")

	// 認証不要（免除パス）。GET /login はログアウト系リダイレクトの着地点。
	r.GET("/login", auth.LoginForm)
	r.POST("/login", auth.Login)
	r.POST("/register", auth.Register)
	r.GET("/force_logout", auth.ForceLogout)

	// ルートはログイン画面へ誘導
	r.GET("/", func(c *gin.Context) {
		c.Redirect(302, "/login")
	})

	// 以下は lifecycle がセッションを解決済みのルート
	r.GET("/logout", auth.Logout)
	r.GET("/session", auth.Session)
	r.GET("/admin/panel", panel.Admin)
	r.GET("/engineer/panel", panel.Engineer)
	r.GET("/customer_service/panel", panel.CustomerService)
	r.GET("/trainee/panel", panel.Trainee)

	return r
}
