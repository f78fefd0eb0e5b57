// Package guard wires the session reconciler and the redirect-loop tracker
// into the request/response cycle.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"portal_backend/internal/feature/auth/usecase"
	"portal_backend/internal/platform/clientsession"
)

// Gin context keys exposing the reconciled session to downstream handlers.
const (
	ContextSessionToken = "sessionToken"
	ContextUserID       = "userID"
	ContextRoleLevel    = "roleLevel"
	ContextRoleDetail   = "roleDetail"
	ContextClientState  = "clientState"
)

// NoticeRedirectLoop is the diagnostic shown when a redirect loop trips.
const NoticeRedirectLoop = "a redirect loop was detected, your session has been reset"

const staticPrefix = "/static/"

// SessionReconciler decides whether a request may proceed.
// Defined by the consumer (this middleware); provided by the auth usecase.
type SessionReconciler interface {
	Reconcile(ctx context.Context, req usecase.RequestState) usecase.Decision
}

// Options configures the lifecycle middleware.
type Options struct {
	// ExemptPrefixes bypass the reconciler entirely; these paths must never
	// be blocked by session-mutex decisions. Static assets additionally skip
	// redirect tracking.
	ExemptPrefixes []string

	Loop LoopPolicy

	ForceLogoutPath string
	LoginPath       string
}

func (o Options) withDefaults() Options {
	if len(o.ExemptPrefixes) == 0 {
		o.ExemptPrefixes = []string{staticPrefix, "/force_logout", "/login", "/register", "/healthz"}
	}
	if o.ForceLogoutPath == "" {
		o.ForceLogoutPath = "/force_logout"
	}
	if o.LoginPath == "" {
		o.LoginPath = "/login"
	}
	return o
}

// Lifecycle returns the request-lifecycle middleware. Before the handler it
// runs the redirect-loop pre-check and then the session reconciler; after the
// handler it classifies the response and updates the redirect tracker. The
// updated client state is written back into the signed cookie at the moment
// the response header is flushed, since by then the final status is known.
func Lifecycle(codec *clientsession.Codec, reconciler SessionReconciler, opts Options) gin.HandlerFunc {
	opts = opts.withDefaults()

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, staticPrefix) {
			c.Next()
			return
		}

		state := codec.Read(c.Request)
		c.Set(ContextClientState, &state)

		// The wrapper observes the final status and injects the cookie just
		// before the header goes out. Handlers mutate state via the context
		// pointer; they never write the cookie themselves.
		c.Writer = &cookieWriter{
			ResponseWriter: c.Writer,
			codec:          codec,
			state:          &state,
			path:           path,
			policy:         opts.Loop,
		}

		if !hasAnyPrefix(path, opts.ExemptPrefixes) {
			if CheckLoop(&state, path, opts.Loop) {
				slog.Warn("redirect loop detected",
					"path", path, "user_id", state.UserID, "remote_addr", c.ClientIP())
				c.Redirect(http.StatusFound, opts.ForceLogoutPath+"?notice="+url.QueryEscape(NoticeRedirectLoop))
				c.Abort()
				return
			}

			d := reconciler.Reconcile(c.Request.Context(), usecase.RequestState{
				Path:        path,
				RequestURL:  c.Request.URL.String(),
				RemoteAddr:  c.ClientIP(),
				ParamToken:  paramToken(c),
				ClientToken: state.Token,
				UserID:      state.UserID,
			})
			switch d.Outcome {
			case usecase.OutcomeForceLogout:
				c.Redirect(http.StatusFound, opts.ForceLogoutPath)
				c.Abort()
				return
			case usecase.OutcomeLogout:
				c.Redirect(http.StatusFound, opts.LoginPath+"?notice="+url.QueryEscape(d.Notice))
				c.Abort()
				return
			default:
				state.Token = d.Token
				state.UserID = d.UserID
				c.Set(ContextSessionToken, d.Token)
				c.Set(ContextUserID, d.UserID)
				c.Set(ContextRoleLevel, d.RoleLevel)
				c.Set(ContextRoleDetail, d.RoleDetail)
			}
		}

		c.Next()
	}
}

// paramToken extracts the explicit session_id parameter used by recovery
// links, from the query string or form data.
func paramToken(c *gin.Context) string {
	if t := c.Query("session_id"); t != "" {
		return t
	}
	return c.PostForm("session_id")
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// ClientState returns the mutable per-browser state for the request.
// Handlers use it to establish or clear the session token on the client.
func ClientState(c *gin.Context) *clientsession.State {
	if v, ok := c.Get(ContextClientState); ok {
		if s, ok := v.(*clientsession.State); ok {
			return s
		}
	}
	return &clientsession.State{}
}

// SessionToken returns the reconciled session token for the request, or "" if
// none was resolved.
func SessionToken(c *gin.Context) string {
	return c.GetString(ContextSessionToken)
}

// UserID returns the reconciled user ID for the request (0 when anonymous).
func UserID(c *gin.Context) uint {
	return c.GetUint(ContextUserID)
}

// RoleLevel returns the cached role level snapshot for the request.
func RoleLevel(c *gin.Context) int {
	return c.GetInt(ContextRoleLevel)
}

// RoleDetail returns the cached role detail snapshot for the request.
func RoleDetail(c *gin.Context) string {
	return c.GetString(ContextRoleDetail)
}

// cookieWriter defers the session-cookie write until the response header is
// about to be flushed, when the final status is known and the redirect
// tracker can be advanced exactly once.
type cookieWriter struct {
	gin.ResponseWriter
	codec   *clientsession.Codec
	state   *clientsession.State
	path    string
	policy  LoopPolicy
	flushed bool
}

func (w *cookieWriter) WriteHeader(code int) {
	w.flush(code)
	w.ResponseWriter.WriteHeader(code)
}

func (w *cookieWriter) WriteHeaderNow() {
	w.flush(w.Status())
	w.ResponseWriter.WriteHeaderNow()
}

func (w *cookieWriter) Write(b []byte) (int, error) {
	// The embedded writer's Write would call its own WriteHeaderNow,
	// bypassing the override, so flush explicitly first.
	w.flush(w.Status())
	return w.ResponseWriter.Write(b)
}

func (w *cookieWriter) WriteString(s string) (int, error) {
	w.flush(w.Status())
	return w.ResponseWriter.WriteString(s)
}

func (w *cookieWriter) flush(status int) {
	if w.flushed {
		return
	}
	w.flushed = true

	ObserveResponse(w.state, w.path, status, w.policy)
	if err := w.codec.Write(w.ResponseWriter, *w.state); err != nil {
		slog.Error("failed to write session cookie", "error", err, "path", w.path)
	}
}
