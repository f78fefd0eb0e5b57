package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"portal_backend/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じユーザー名のユーザーが既に存在する場合、ErrUsernameTakenを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByUsername は指定されたユーザー名に一致するユーザーを取得します。
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// SetActiveSession は耐久セッショントークンを書き換えます。空文字列で
	// クリアします。二つの同時ログインが両方ミューテックスを握ったと誤認
	// しないよう、実装は読み取り→書き込みの競合窓のない単一のUPDATE文で
	// なければなりません。
	SetActiveSession(ctx context.Context, id uint, token string) error
}

// authUsecase はログインミューテックスのトークン発行・失効を実装します。
type authUsecase struct {
	users UserRepository
	store SessionStore
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, store SessionStore) *authUsecase {
	return &authUsecase{users: users, store: store}
}

// validatePassword はパスワードがセキュリティ要件を満たしているかチェックします。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	return nil
}

// Login はユーザーを認証し、成功時に新しいセッショントークンを発行します。
// 既存の活性セッションがあればそのレコードを無効化します（別プロセスへの
// 通知は不要。追い越されたセッションは次回使用時にリコンサイラが拒否する）。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, username, password string) (*entity.User, string, error) {
	user, err := u.users.FindByUsername(ctx, username)

	// ユーザー未検出時のタイミング攻撃緩和用ダミーハッシュ。
	// bcrypt.CompareHashAndPasswordが常に呼ばれることを保証する。
	passwordHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	if err == nil {
		passwordHash = user.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))

	// どの要素が違ったかは明かさない
	if err != nil || compareErr != nil {
		return nil, "", ErrAuthenticationFailed
	}

	// ログインミューテックス: 既存セッションのレコードを無効化して退去させる
	if old := user.ActiveSessionID; old != "" {
		if err := u.store.Invalidate(ctx, old); err != nil && !errors.Is(err, ErrSessionNotFound) {
			slog.Warn("failed to invalidate previous session", "error", err, "user_id", user.ID)
		}
	}

	token := NewSessionToken()

	// 耐久トークンの更新はミューテックスそのもの。失敗したらログインは成立しない。
	if err := u.users.SetActiveSession(ctx, user.ID, token); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrPersistenceWrite, err)
	}
	user.ActiveSessionID = token

	rec := &entity.SessionRecord{
		Token:        token,
		UserID:       user.ID,
		RoleLevel:    user.RoleLevel,
		RoleDetail:   user.RoleDetail,
		LastActivity: time.Now(),
		Valid:        true,
	}
	if err := u.store.Put(ctx, rec); err != nil {
		// レコードはリコンサイラが耐久トークンから再構築できる
		slog.Error("session store write failed after login", "error", err, "user_id", user.ID)
	}

	return user, token, nil
}

// Logout は耐久トークンをクリアし、セッションレコードを破棄します。
// 戻り値は監査ログ用のユーザー名です。
func (u *authUsecase) Logout(ctx context.Context, userID uint, token string) (string, error) {
	username := "unknown"
	if user, err := u.users.FindByID(ctx, userID); err == nil {
		username = user.Username
	}
	if err := u.users.SetActiveSession(ctx, userID, ""); err != nil {
		return username, fmt.Errorf("%w: %v", ErrPersistenceWrite, err)
	}
	if token != "" {
		if err := u.store.Delete(ctx, token); err != nil {
			slog.Warn("failed to delete session record", "error", err, "user_id", userID)
		}
	}
	return username, nil
}

// ForceLogout はLogoutと同じ後始末を、事前の有効なセッションなしでも安全に
// 行います。既に無効なセッションに対して呼んでも失敗しません。
// 戻り値は監査ログ用のユーザー名です（不明なら "unknown"）。
func (u *authUsecase) ForceLogout(ctx context.Context, userID uint, token string) (string, error) {
	username := "unknown"
	if userID != 0 {
		if user, err := u.users.FindByID(ctx, userID); err == nil {
			username = user.Username
		}
		if err := u.users.SetActiveSession(ctx, userID, ""); err != nil {
			slog.Error("failed to clear active session token", "error", err, "user_id", userID)
		}
	}
	if token != "" {
		if err := u.store.Delete(ctx, token); err != nil {
			slog.Warn("failed to delete session record", "error", err, "user_id", userID)
		}
	}
	return username, nil
}

// Register は試用期間スタッフとして新規ユーザーを登録します。
func (u *authUsecase) Register(ctx context.Context, username, password, name string) (*entity.User, error) {
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if _, err := u.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Username:   username,
		Password:   string(hashed),
		Name:       name,
		Role:       "engineer",
		RoleLevel:  entity.RoleLevelTrainee,
		RoleDetail: entity.RoleDetailTrainee,
		CreatedBy:  "system",
		UpdatedBy:  "system",
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// IsSessionValid はトークンが現在有効なセッションを指しているかを返します。
func (u *authUsecase) IsSessionValid(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	rec, err := u.store.Get(ctx, token)
	return err == nil && rec.Valid
}
