package handler

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/reconcile"
)

// Handshake cookies live only for the redirect round trip.
const (
	stateCookieName = "__oauth_state"
	pkceCookieName  = "__oauth_pkce"
	stateTTL        = 5 * time.Minute
)

func randomToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func setHandshakeCookie(c *gin.Context, name, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateTTL.Seconds()),
	})
}

func handshakeCookie(c *gin.Context, name string) string {
	cookie, err := c.Request.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// generateState issues the anti-CSRF state for one handshake: a random
// token mirrored in a short-lived cookie. The caller stashes the
// handshake markers under the same value.
func (h *Handler) generateState(c *gin.Context) string {
	state := randomToken()
	setHandshakeCookie(c, stateCookieName, state)
	return state
}

// validateState accepts a callback only when the returned state matches
// the browser cookie and a marker stash this server issued. A forged or
// replayed state fails one of the two legs.
func (h *Handler) validateState(c *gin.Context) bool {
	state := c.Query("state")
	if state == "" || handshakeCookie(c, stateCookieName) != state {
		return false
	}

	stashed, err := h.markers.Peek(c.Request.Context(), reconcile.StateKey(state))
	if err != nil {
		h.log.Error("state marker lookup failed", "error", err)
		return false
	}
	return stashed != nil
}
