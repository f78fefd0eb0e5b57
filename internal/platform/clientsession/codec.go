// Package clientsession persists per-browser session state in a signed
// cookie: the established session token, the redirect-loop counters, and
// CSRF material that survives re-login. The payload is an HS256-signed JWT,
// so a client can read but never forge its own state.
package clientsession

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultCookieName is the fixed session cookie name.
const DefaultCookieName = "portal_session"

// State is the browser-held session state.
type State struct {
	// UserID is the authenticated identity claim (0 when anonymous).
	UserID uint

	// Token is the established session token for this client.
	Token string

	// RedirectCount is incremented on every redirect-class response and
	// reset on any terminal response.
	RedirectCount int

	// RedirectHistory is a bounded trail of recently requested paths, used
	// to tell genuine redirect cycles from long-but-finite chains.
	RedirectHistory []string

	// CSRFToken survives login resets.
	CSRFToken string
}

// Authenticated reports whether the state carries an identity claim.
func (s *State) Authenticated() bool {
	return s.UserID != 0
}

// ResetKeepingCSRF clears everything except CSRF material. Called on login so
// no state from a previous session leaks into the new one.
func (s *State) ResetKeepingCSRF() {
	*s = State{CSRFToken: s.CSRFToken}
}

// Codec signs and verifies the session cookie.
type Codec struct {
	secret     []byte
	cookieName string
}

// NewCodec creates a codec for the given signing secret and cookie name.
// An empty cookieName falls back to DefaultCookieName.
func NewCodec(secret, cookieName string) *Codec {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Codec{secret: []byte(secret), cookieName: cookieName}
}

// Read decodes the state from the request cookie. An absent, malformed or
// tampered cookie yields the zero state; a forged cookie must never be
// distinguishable from no cookie at all.
func (c *Codec) Read(r *http.Request) State {
	cookie, err := r.Cookie(c.cookieName)
	if err != nil || cookie.Value == "" {
		return State{}
	}

	token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
		// Check signing algorithm (only HMAC allowed)
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return State{}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return State{}
	}

	var s State
	if uid, ok := claims["uid"].(float64); ok { // JWT numbers are decoded as float64
		s.UserID = uint(uid)
	}
	if sid, ok := claims["sid"].(string); ok {
		s.Token = sid
	}
	if rc, ok := claims["rc"].(float64); ok {
		s.RedirectCount = int(rc)
	}
	if rh, ok := claims["rh"].([]interface{}); ok {
		for _, p := range rh {
			if path, ok := p.(string); ok {
				s.RedirectHistory = append(s.RedirectHistory, path)
			}
		}
	}
	if csrf, ok := claims["csrf"].(string); ok {
		s.CSRFToken = csrf
	}
	return s
}

// Write signs the state and sets it as the response cookie. It must be called
// before the response header is flushed. CSRF material is minted on first
// write.
func (c *Codec) Write(w http.ResponseWriter, s State) error {
	if s.CSRFToken == "" {
		s.CSRFToken = uuid.NewString()
	}

	claims := jwt.MapClaims{
		"uid":  s.UserID,
		"sid":  s.Token,
		"rc":   s.RedirectCount,
		"csrf": s.CSRFToken,
		"iat":  time.Now().Unix(),
	}
	if len(s.RedirectHistory) > 0 {
		claims["rh"] = s.RedirectHistory
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
