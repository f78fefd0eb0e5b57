// Package handler はportalフィーチャーのHTTPハンドラーを提供します。
// パネルはログイン後のリダイレクト先となる終端レスポンスで、業務CRUDは
// 外部コラボレーターの領域です。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portal_backend/internal/feature/auth/domain/entity"
	"portal_backend/internal/platform/guard"
)

// PanelPathFor は権限レベルと詳細ロールからログイン後のリダイレクト先を返します。
func PanelPathFor(roleLevel int, roleDetail string) string {
	switch {
	case roleLevel <= entity.RoleLevelAdmin:
		return "/admin/panel"
	case roleLevel == entity.RoleLevelStaff:
		if roleDetail == entity.RoleDetailCustomerService {
			return "/customer_service/panel"
		}
		return "/engineer/panel"
	default:
		return "/trainee/panel"
	}
}

// PanelHandler は各ロールのパネルエンドポイントを処理します。
type PanelHandler struct{}

// NewPanelHandler はPanelHandlerの新しいインスタンスを生成します。
func NewPanelHandler() *PanelHandler {
	return &PanelHandler{}
}

// Admin は管理者パネルを処理します。
func (h *PanelHandler) Admin(c *gin.Context) {
	h.render(c, "admin")
}

// Engineer はエンジニアパネルを処理します。
func (h *PanelHandler) Engineer(c *gin.Context) {
	h.render(c, "engineer")
}

// CustomerService はカスタマーサービスパネルを処理します。
func (h *PanelHandler) CustomerService(c *gin.Context) {
	h.render(c, "customer_service")
}

// Trainee は試用期間スタッフのパネルを処理します。
func (h *PanelHandler) Trainee(c *gin.Context) {
	h.render(c, "trainee")
}

func (h *PanelHandler) render(c *gin.Context, panel string) {
	c.JSON(http.StatusOK, gin.H{
		"panel":       panel,
		"user_id":     guard.UserID(c),
		"role_level":  guard.RoleLevel(c),
		"role_detail": guard.RoleDetail(c),
	})
}
