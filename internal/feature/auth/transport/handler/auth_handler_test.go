package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditentity "portal_backend/internal/feature/audit/domain/entity"
	"portal_backend/internal/feature/auth/domain/entity"
	"portal_backend/internal/feature/auth/usecase"
	"portal_backend/internal/platform/guard"
)

// mockAuthUsecase is a mock implementation of the AuthUsecase interface.
type mockAuthUsecase struct {
	LoginFunc          func(ctx context.Context, username, password string) (*entity.User, string, error)
	LogoutFunc         func(ctx context.Context, userID uint, token string) (string, error)
	ForceLogoutFunc    func(ctx context.Context, userID uint, token string) (string, error)
	RegisterFunc       func(ctx context.Context, username, password, name string) (*entity.User, error)
	IsSessionValidFunc func(ctx context.Context, token string) bool
}

func (m *mockAuthUsecase) Login(ctx context.Context, username, password string) (*entity.User, string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return nil, "", usecase.ErrAuthenticationFailed
}

func (m *mockAuthUsecase) Logout(ctx context.Context, userID uint, token string) (string, error) {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, userID, token)
	}
	return "unknown", nil
}

func (m *mockAuthUsecase) ForceLogout(ctx context.Context, userID uint, token string) (string, error) {
	if m.ForceLogoutFunc != nil {
		return m.ForceLogoutFunc(ctx, userID, token)
	}
	return "unknown", nil
}

func (m *mockAuthUsecase) Register(ctx context.Context, username, password, name string) (*entity.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, username, password, name)
	}
	return nil, usecase.ErrUsernameTaken
}

func (m *mockAuthUsecase) IsSessionValid(ctx context.Context, token string) bool {
	if m.IsSessionValidFunc != nil {
		return m.IsSessionValidFunc(ctx, token)
	}
	return false
}

// mockRecorder captures audit entries.
type mockRecorder struct {
	entries []auditentity.OperationLog
}

func (m *mockRecorder) Record(_ context.Context, e auditentity.OperationLog) {
	m.entries = append(m.entries, e)
}

func setupRouter(h *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/login", h.LoginForm)
	r.POST("/login", h.Login)
	r.POST("/register", h.Register)
	r.GET("/logout", h.Logout)
	r.GET("/force_logout", h.ForceLogout)
	r.GET("/session", h.Session)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_LoginForm(t *testing.T) {
	t.Run("renders a terminal response", func(t *testing.T) {
		r := setupRouter(NewAuthHandler(&mockAuthUsecase{}, &mockRecorder{}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "please sign in")
	})

	t.Run("echoes the logout notice", func(t *testing.T) {
		r := setupRouter(NewAuthHandler(&mockAuthUsecase{}, &mockRecorder{}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/login?notice=your+session+is+no+longer+valid", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "your session is no longer valid")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	staffUser := &entity.User{
		ID:        1,
		Username:  "alice",
		RoleLevel: entity.RoleLevelStaff,
	}

	t.Run("successful login returns token and role redirect", func(t *testing.T) {
		auth := &mockAuthUsecase{
			LoginFunc: func(_ context.Context, username, password string) (*entity.User, string, error) {
				require.Equal(t, "alice", username)
				require.Equal(t, "password123", password)
				return staffUser, "tok-1", nil
			},
		}
		audit := &mockRecorder{}
		r := setupRouter(NewAuthHandler(auth, audit))

		w := postJSON(t, r, "/login", `{"username":"alice","password":"password123"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "tok-1", resp["token"])
		assert.Equal(t, "/engineer/panel", resp["redirect"])

		require.Len(t, audit.entries, 1)
		assert.Equal(t, "login", audit.entries[0].Operation)
		assert.True(t, audit.entries[0].Success)
	})

	t.Run("authentication failure is generic", func(t *testing.T) {
		audit := &mockRecorder{}
		r := setupRouter(NewAuthHandler(&mockAuthUsecase{}, audit))

		w := postJSON(t, r, "/login", `{"username":"alice","password":"wrong"}`)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		// どの要素が違ったかを応答から読み取れない
		assert.Contains(t, w.Body.String(), "invalid username or password")
		assert.NotContains(t, w.Body.String(), "not found")

		require.Len(t, audit.entries, 1)
		assert.False(t, audit.entries[0].Success)
	})

	t.Run("malformed request", func(t *testing.T) {
		r := setupRouter(NewAuthHandler(&mockAuthUsecase{}, &mockRecorder{}))

		w := postJSON(t, r, "/login", `{"username":"alice"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		auth := &mockAuthUsecase{
			RegisterFunc: func(_ context.Context, username, password, name string) (*entity.User, error) {
				return &entity.User{ID: 2, Username: username, Name: name}, nil
			},
		}
		r := setupRouter(NewAuthHandler(auth, &mockRecorder{}))

		w := postJSON(t, r, "/register", `{"username":"bob","password":"password123","name":"Bob"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("duplicate username", func(t *testing.T) {
		r := setupRouter(NewAuthHandler(&mockAuthUsecase{}, &mockRecorder{}))

		w := postJSON(t, r, "/register", `{"username":"alice","password":"password123","name":"Alice"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("short password rejected by binding", func(t *testing.T) {
		r := setupRouter(NewAuthHandler(&mockAuthUsecase{}, &mockRecorder{}))

		w := postJSON(t, r, "/register", `{"username":"bob","password":"short","name":"Bob"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	var gotUserID uint
	var gotToken string
	auth := &mockAuthUsecase{
		LogoutFunc: func(_ context.Context, userID uint, token string) (string, error) {
			gotUserID = userID
			gotToken = token
			return "alice", nil
		},
	}
	audit := &mockRecorder{}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	// リコンサイラ通過後の解決済みコンテキストを模倣する
	r.GET("/logout", func(c *gin.Context) {
		c.Set(guard.ContextUserID, uint(1))
		c.Set(guard.ContextSessionToken, "tok-1")
		NewAuthHandler(auth, audit).Logout(c)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/logout", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, uint(1), gotUserID)
	assert.Equal(t, "tok-1", gotToken)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "logout", audit.entries[0].Operation)
	assert.Equal(t, "alice", audit.entries[0].Username)
}

func TestAuthHandler_ForceLogout(t *testing.T) {
	t.Run("anonymous client gets a confirmation, not a redirect", func(t *testing.T) {
		r := setupRouter(NewAuthHandler(&mockAuthUsecase{}, &mockRecorder{}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/force_logout", nil))

		// 保護ルートへ送り返すとログアウト往復の循環が再発する
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "signed out")
	})

	t.Run("notice is echoed back", func(t *testing.T) {
		r := setupRouter(NewAuthHandler(&mockAuthUsecase{}, &mockRecorder{}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/force_logout?notice=loop+detected", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "loop detected")
	})
}

func TestAuthHandler_Session(t *testing.T) {
	auth := &mockAuthUsecase{
		IsSessionValidFunc: func(_ context.Context, token string) bool {
			return token == "tok-1"
		},
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/session", func(c *gin.Context) {
		c.Set(guard.ContextSessionToken, "tok-1")
		c.Set(guard.ContextUserID, uint(1))
		c.Set(guard.ContextRoleLevel, entity.RoleLevelAdmin)
		NewAuthHandler(auth, &mockRecorder{}).Session(c)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tok-1", resp["token"])
	assert.Equal(t, true, resp["valid"])
	assert.Equal(t, float64(entity.RoleLevelAdmin), resp["role_level"])
}
