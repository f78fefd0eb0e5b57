// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditentity "portal_backend/internal/feature/audit/domain/entity"
	"portal_backend/internal/feature/auth/domain/entity"
	"portal_backend/internal/feature/auth/transport/http/dto"
	"portal_backend/internal/feature/auth/usecase"
	portalhandler "portal_backend/internal/feature/portal/transport/handler"
	"portal_backend/internal/platform/clientsession"
	"portal_backend/internal/platform/guard"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Login はユーザーを認証し、成功時に新しいセッショントークンを発行します。
	Login(ctx context.Context, username, password string) (*entity.User, string, error)
	// Logout は耐久トークンをクリアし、セッションレコードを破棄します。
	Logout(ctx context.Context, userID uint, token string) (string, error)
	// ForceLogout は事前の有効なセッションなしでも安全なログアウトです。
	ForceLogout(ctx context.Context, userID uint, token string) (string, error)
	// Register は試用期間スタッフとして新規ユーザーを登録します。
	Register(ctx context.Context, username, password, name string) (*entity.User, error)
	// IsSessionValid はトークンが有効なセッションを指しているかを返します。
	IsSessionValid(ctx context.Context, token string) bool
}

// OperationRecorder は監査用の操作記録を書き込みます（フェイルソフト）。
type OperationRecorder interface {
	Record(ctx context.Context, e auditentity.OperationLog)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth  AuthUsecase
	audit OperationRecorder
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタです。
func NewAuthHandler(auth AuthUsecase, audit OperationRecorder) *AuthHandler {
	return &AuthHandler{auth: auth, audit: audit}
}

// LoginForm はログイン画面を処理します。ログアウトや無効化後のリダイレクトの
// 着地点なので、免除パスとして必ず終端レスポンスを返し、通知クエリを
// そのまま表示へ引き継ぎます。
func (h *AuthHandler) LoginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "please sign in",
		"notice":  c.Query("notice"),
	})
}

// Login はログインAPIエンドポイントを処理します。
// 成功時はクライアント状態をリセットして（CSRF素材は保持）新しいトークンを
// 確立し、ロールに応じたリダイレクト先を返します。
// 認証失敗時はどの要素が違ったかを明かしません。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.record(c, req.Username, "login", false, fmt.Sprintf("username=%s", req.Username))
		if errors.Is(err, usecase.ErrAuthenticationFailed) {
			slog.Warn("login failed", "username", req.Username, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		slog.Error("login error", "error", err, "username", req.Username, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	// 前のセッション状態を持ち越さない（CSRF素材だけ残す）
	state := guard.ClientState(c)
	state.ResetKeepingCSRF()
	state.Token = token
	state.UserID = user.ID

	h.record(c, user.Username, "login", true, fmt.Sprintf("username=%s", user.Username))
	slog.Info("user login successful", "username", user.Username, "remote_addr", c.ClientIP())

	c.JSON(http.StatusOK, dto.LoginResp{
		Token:    token,
		Redirect: portalhandler.PanelPathFor(user.RoleLevel, user.RoleDetail),
	})
}

// Register はユーザー登録APIエンドポイントを処理します。
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Name)
	if err != nil {
		h.record(c, req.Username, "register", false, fmt.Sprintf("username=%s", req.Username))
		if errors.Is(err, usecase.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
			return
		}
		slog.Error("register error", "error", err, "username", req.Username, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	h.record(c, user.Username, "register", true, fmt.Sprintf("username=%s name=%s", user.Username, user.Name))
	slog.Info("user registered", "username", user.Username, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"message": "registered, awaiting review"})
}

// Logout は通常のログアウトを処理します。リコンサイラを通過した後なので
// コンテキストの解決済みトークンを使います。
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := guard.UserID(c)
	token := guard.SessionToken(c)

	username, err := h.auth.Logout(c.Request.Context(), userID, token)
	if err != nil {
		slog.Error("logout error", "error", err, "user_id", userID, "remote_addr", c.ClientIP())
	}

	state := guard.ClientState(c)
	*state = clientsession.State{}

	h.record(c, username, "logout", true, fmt.Sprintf("user_id=%d", userID))
	c.Redirect(http.StatusFound, "/login")
}

// ForceLogout は強制ログアウトエンドポイントを処理します。ガードの除外パス
// なので、既に無効なセッションからでも到達でき、保護ルートへ戻らず必ず確認
// レスポンスを描画します（ログアウト→ミューテックス検査→ログアウトの循環
// を断つため）。
func (h *AuthHandler) ForceLogout(c *gin.Context) {
	// 除外パスではリコンサイラが走らないため、クッキー由来の主張を使う
	state := guard.ClientState(c)
	userID := state.UserID
	token := state.Token

	username, _ := h.auth.ForceLogout(c.Request.Context(), userID, token)

	*state = clientsession.State{}

	h.record(c, username, "force_logout", true, fmt.Sprintf("user_id=%d", userID))
	slog.Info("forced logout", "username", username, "user_id", userID, "remote_addr", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"message": "you have been signed out",
		"notice":  c.Query("notice"),
	})
}

// Session は現在のリクエストで解決済みのセッション情報を返します。
// テンプレートやハンドラーがトークンを再導出せずに済むようにします。
func (h *AuthHandler) Session(c *gin.Context) {
	token := guard.SessionToken(c)
	c.JSON(http.StatusOK, gin.H{
		"token":       token,
		"user_id":     guard.UserID(c),
		"role_level":  guard.RoleLevel(c),
		"role_detail": guard.RoleDetail(c),
		"valid":       h.auth.IsSessionValid(c.Request.Context(), token),
	})
}

func (h *AuthHandler) record(c *gin.Context, username, operation string, success bool, params string) {
	h.audit.Record(c.Request.Context(), auditentity.OperationLog{
		Username:  username,
		Operation: operation,
		Module:    "auth",
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Params:    params,
		Success:   success,
	})
}
