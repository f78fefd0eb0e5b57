package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"portal_backend/internal/feature/auth/domain/entity"
)

// ユーザーへ表示する通知メッセージ。
const (
	NoticeSessionInvalidated = "your session is no longer valid, please sign in again"
	NoticeSessionSuperseded  = "your account was signed in from another location"
	NoticeSessionError       = "session could not be verified, please sign in again"
)

// RequestState は1リクエスト分の再整合入力です。
type RequestState struct {
	Path       string
	RequestURL string
	RemoteAddr string

	// ParamToken は明示的な session_id クエリ/フォームパラメータです。
	// 復旧リンク経由のセッション復元に使われます。
	ParamToken string

	// ClientToken は署名付きクッキーに保存された確立済みトークンです。
	ClientToken string

	// UserID は外部認証レイヤーが確立したアイデンティティです（未認証は0）。
	UserID uint
}

// Outcome is the reconciler's verdict for a request. Every session-mutex
// decision resolves to proceed or redirect; reconciliation never surfaces an
// error to the client.
type Outcome int

const (
	// OutcomeProceed allows the request through.
	OutcomeProceed Outcome = iota
	// OutcomeForceLogout redirects to the forced-logout endpoint.
	OutcomeForceLogout
	// OutcomeLogout redirects to the login page with a notice.
	OutcomeLogout
)

// Decision carries the resolved session context for the request.
type Decision struct {
	Outcome    Outcome
	Token      string
	UserID     uint
	RoleLevel  int
	RoleDetail string
	Notice     string
	// Reason names the taxonomy entry behind a non-proceed outcome
	// (ErrSessionSuperseded, ErrSessionInvalidated, ErrPersistenceWrite).
	Reason error
}

// Reconciler はリクエストごとにセッションストア・耐久トークン・リクエストが
// 主張するトークンの三者を同期させ、強制ログアウトの判定を下します。
// セッションストアはプロセス再起動で失われるため、耐久トークンと要求トークン
// だけからレコードを再構築できます。
type Reconciler struct {
	store SessionStore
	users UserRepository

	// failOpen が真なら、永続層の書き込み失敗はログに記録してリクエストを
	// 通します（一時的な障害で正規ユーザーを締め出さないため）。偽なら
	// 強制ログアウトへ降格します。
	failOpen bool
}

// NewReconciler はReconcilerの新しいインスタンスを生成します。
func NewReconciler(store SessionStore, users UserRepository, failOpen bool) *Reconciler {
	return &Reconciler{store: store, users: users, failOpen: failOpen}
}

// Reconcile decides whether the request may proceed and keeps the session
// store and the user's durable token consistent. The durable token wins every
// disagreement except the missed-write race on the established client token,
// where availability is favored and the durable value is overwritten.
func (r *Reconciler) Reconcile(ctx context.Context, req RequestState) Decision {
	token := req.ClientToken
	userID := req.UserID

	// 明示的な session_id パラメータによるセッション復元。
	// 所有権チェックを通過した場合のみクッキー由来のトークンと同等に扱う。
	if req.ParamToken != "" && req.ParamToken != token {
		d, adopted := r.adoptParamToken(ctx, req)
		if d != nil {
			return *d
		}
		if adopted != nil {
			token = adopted.Token
			userID = adopted.UserID
		}
	}

	// 未認証リクエストには介入しない。
	if userID == 0 {
		return Decision{Outcome: OutcomeProceed}
	}

	var rec *entity.SessionRecord
	if token != "" {
		found, err := r.store.Get(ctx, token)
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			slog.Error("session store read failed", "error", err,
				"path", req.Path, "user_id", userID, "remote_addr", req.RemoteAddr)
			return r.persistenceFailure(token, userID)
		}
		rec = found
	}

	if rec == nil {
		return r.recoverSession(ctx, token, userID, req)
	}
	return r.refreshSession(ctx, rec, userID, req)
}

// adoptParamToken はパラメータで主張されたトークンの所有権を検証します。
// 戻り値の Decision が非nilなら即確定、SessionRecord が非nilなら採用です。
// どちらもnilならパラメータを無視して通常の流れを続けます。
func (r *Reconciler) adoptParamToken(ctx context.Context, req RequestState) (*Decision, *entity.SessionRecord) {
	rec, err := r.store.Get(ctx, req.ParamToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		slog.Error("session store read failed", "error", err,
			"path", req.Path, "remote_addr", req.RemoteAddr)
		d := r.persistenceFailure(req.ClientToken, req.UserID)
		return &d, nil
	}

	user, err := r.users.FindByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// 有効とされるレコードが存在しないユーザーを指している
			return &Decision{Outcome: OutcomeLogout, Notice: NoticeSessionInvalidated, Reason: ErrSessionInvalidated}, nil
		}
		slog.Error("user lookup failed during session recovery", "error", err,
			"path", req.Path, "user_id", rec.UserID, "remote_addr", req.RemoteAddr)
		d := r.persistenceFailure(req.ClientToken, req.UserID)
		return &d, nil
	}

	// 耐久トークンとの不一致は別所でのログインを意味する。
	// 上書きはせず強制ログアウトへ（パラメータ経路は可用性より安全を優先）。
	if user.ActiveSessionID != rec.Token {
		return &Decision{Outcome: OutcomeForceLogout, Notice: NoticeSessionSuperseded, Reason: ErrSessionSuperseded}, nil
	}
	if !rec.Valid {
		return &Decision{Outcome: OutcomeLogout, Notice: NoticeSessionInvalidated, Reason: ErrSessionInvalidated}, nil
	}
	return nil, rec
}

// recoverSession handles an authenticated request with no usable record:
// token absent from the store, or no token at all. When the claimed token
// still equals the durable one this is restart recovery and the record is
// rebuilt as-is; otherwise a fresh token is minted and immediately becomes
// ground truth.
func (r *Reconciler) recoverSession(ctx context.Context, token string, userID uint, req RequestState) Decision {
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Decision{Outcome: OutcomeLogout, Notice: NoticeSessionInvalidated, Reason: ErrSessionInvalidated}
		}
		slog.Error("user lookup failed during session recovery", "error", err,
			"path", req.Path, "user_id", userID, "remote_addr", req.RemoteAddr)
		return r.persistenceFailure(token, userID)
	}

	if token != "" && user.ActiveSessionID == token {
		// 再起動後の復元: 耐久トークンが正。レコードを再構築するだけで
		// トークンは変更しない。
		return r.storeAndProceed(ctx, recordFor(user, token, req), req)
	}

	fresh := NewSessionToken()
	if err := r.users.SetActiveSession(ctx, user.ID, fresh); err != nil {
		slog.Error("failed to persist active session token", "error", err,
			"path", req.Path, "user_id", user.ID, "remote_addr", req.RemoteAddr)
		if !r.failOpen {
			return Decision{Outcome: OutcomeForceLogout, Notice: NoticeSessionError, Reason: ErrPersistenceWrite}
		}
	}
	return r.storeAndProceed(ctx, recordFor(user, fresh, req), req)
}

// refreshSession handles an authenticated request whose token has a record.
func (r *Reconciler) refreshSession(ctx context.Context, rec *entity.SessionRecord, userID uint, req RequestState) Decision {
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Decision{Outcome: OutcomeLogout, Notice: NoticeSessionInvalidated, Reason: ErrSessionInvalidated}
		}
		slog.Error("user lookup failed during session refresh", "error", err,
			"path", req.Path, "user_id", userID, "remote_addr", req.RemoteAddr)
		return r.persistenceFailure(rec.Token, userID)
	}

	if user.ActiveSessionID != rec.Token {
		if !rec.Valid {
			// 別クライアントのログインに追い越された
			return Decision{Outcome: OutcomeForceLogout, Notice: NoticeSessionSuperseded, Reason: ErrSessionSuperseded}
		}
		// レコードは有効なのに耐久値だけがずれている場合は書き込み漏れの
		// 競合とみなし、確立済みトークンを正として上書きする。
		if err := r.users.SetActiveSession(ctx, user.ID, rec.Token); err != nil {
			slog.Error("failed to persist active session token", "error", err,
				"path", req.Path, "user_id", user.ID, "remote_addr", req.RemoteAddr)
			if !r.failOpen {
				return Decision{Outcome: OutcomeForceLogout, Notice: NoticeSessionError, Reason: ErrPersistenceWrite}
			}
		}
	} else if !rec.Valid {
		// 明示的に無効化済み
		return Decision{Outcome: OutcomeLogout, Notice: NoticeSessionInvalidated, Reason: ErrSessionInvalidated}
	}

	return r.storeAndProceed(ctx, recordFor(user, rec.Token, req), req)
}

// storeAndProceed upserts the refreshed record and resolves to proceed.
func (r *Reconciler) storeAndProceed(ctx context.Context, rec *entity.SessionRecord, req RequestState) Decision {
	if err := r.store.Put(ctx, rec); err != nil {
		slog.Error("session store write failed", "error", err,
			"path", req.Path, "user_id", rec.UserID, "remote_addr", req.RemoteAddr)
		if !r.failOpen {
			return Decision{Outcome: OutcomeForceLogout, Notice: NoticeSessionError, Reason: ErrPersistenceWrite}
		}
	}
	return Decision{
		Outcome:    OutcomeProceed,
		Token:      rec.Token,
		UserID:     rec.UserID,
		RoleLevel:  rec.RoleLevel,
		RoleDetail: rec.RoleDetail,
	}
}

func (r *Reconciler) persistenceFailure(token string, userID uint) Decision {
	if r.failOpen {
		return Decision{Outcome: OutcomeProceed, Token: token, UserID: userID, Reason: ErrPersistenceWrite}
	}
	return Decision{Outcome: OutcomeForceLogout, Notice: NoticeSessionError, Reason: ErrPersistenceWrite}
}

// recordFor builds a fresh, valid record with the current role snapshot.
func recordFor(user *entity.User, token string, req RequestState) *entity.SessionRecord {
	return &entity.SessionRecord{
		Token:        token,
		UserID:       user.ID,
		RoleLevel:    user.RoleLevel,
		RoleDetail:   user.RoleDetail,
		LastActivity: time.Now(),
		LastSeenURL:  req.RequestURL,
		Valid:        true,
	}
}
