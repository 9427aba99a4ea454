package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/reconcile"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
)

// Reconcile is the shared landing every authentication redirect ends on.
// It routes the browser to whichever application initiated login, waits
// for the session to materialize, then sends the user home.
func (h *Handler) Reconcile(c *gin.Context) {
	app := h.currentApp(c)

	outcome := h.reconciler.Reconcile(c.Request.Context(), app, c.Request.URL)

	switch outcome.Kind {
	case reconcile.OutcomeRedirect:
		if outcome.SessionID != "" {
			session.SetCookie(c.Writer, outcome.SessionID, outcome.ExpiresAt, session.CookieOptions{
				Secure:   h.cfg.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Redirect(http.StatusFound, outcome.Location)

	default:
		c.Redirect(http.StatusFound, h.loginErrorURL(outcome.ErrorCode, ""))
	}
}

// GateView reports the single screen the current session maps to. Front
// ends call it on every home-route load instead of trusting cached
// handshake markers.
func (h *Handler) GateView(c *gin.Context) {
	app := h.currentApp(c)

	sessionID := ""
	if cookie, err := c.Request.Cookie(session.CookieName); err == nil {
		sessionID = cookie.Value
	}

	result, err := h.gate.Resolve(c.Request.Context(), sessionID, app)
	if err != nil {
		h.log.Error("gate resolution failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server-error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Logout deletes the session and its markers, then clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		if err := h.sessionStore.Delete(c.Request.Context(), cookie.Value); err != nil {
			h.log.Error("session delete failed", "error", err)
		}
		if err := h.markers.Clear(c.Request.Context(), cookie.Value); err != nil {
			h.log.Error("marker clear failed", "error", err)
		}
	}

	session.ClearCookie(c.Writer, session.CookieOptions{
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}
