package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/provider/line"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/reconcile"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
)

// lineLogin starts the LINE Login flow for the requesting application.
func (h *Handler) lineLogin(c *gin.Context) {
	if h.lineProvider == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "line login not configured"})
		return
	}

	app := h.currentApp(c)
	state := h.generateState(c)

	err := h.markers.Stash(c.Request.Context(), reconcile.StateKey(state), session.Markers{
		App:        string(app),
		AuthMethod: "line",
	}, stateTTL)
	if err != nil {
		h.log.Error("marker stash failed", "error", err)
		c.Redirect(http.StatusFound, h.loginErrorURL("server-error", ""))
		return
	}

	c.Redirect(http.StatusFound, h.lineProvider.AuthCodeURL(state))
}

// lineCallback receives the LINE authorization redirect, exchanges the
// code, finds or creates the identity record by email, and hands off to
// a one-time login link. Every failure degrades to a login redirect with
// a machine-readable error code; nothing here raises.
func (h *Handler) lineCallback(c *gin.Context) {
	if h.lineProvider == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "line login not configured"})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		h.log.Warn("line callback returned error",
			"error", errParam,
			"desc", c.Query("error_description"),
		)
		c.Redirect(http.StatusFound, h.loginErrorURL(errParam, c.Query("error_description")))
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, h.loginErrorURL("no-code", ""))
		return
	}

	_, identity, err := h.lineProvider.Exchange(c.Request.Context(), code)
	if err != nil {
		h.log.Error("line exchange failed", "error", err)
		errCode, detail := lineErrorRedirect(err)
		c.Redirect(http.StatusFound, h.loginErrorURL(errCode, detail))
		return
	}

	// Find-or-create keyed by email, tolerant of "already exists".
	userID, err := h.resolver.Resolve(c.Request.Context(), identity)
	if err != nil {
		h.log.Error("identity resolution failed", "error", err)
		c.Redirect(http.StatusFound, h.loginErrorURL("create-user-failed", ""))
		return
	}

	// One-time login link: its verify endpoint establishes the browser
	// session, mirroring the magic-link path.
	token, err := session.GenerateID()
	if err != nil {
		c.Redirect(http.StatusFound, h.loginErrorURL("magic-link-failed", ""))
		return
	}
	err = h.onetime.Put(
		c.Request.Context(),
		magicKey(token),
		"line:"+userID,
		h.cfg.MagicLinkTTL,
	)
	if err != nil {
		h.log.Error("one-time login link failed", "error", err)
		c.Redirect(http.StatusFound, h.loginErrorURL("magic-link-failed", ""))
		return
	}

	q := url.Values{}
	q.Set("token", token)
	if state := c.Query("state"); state != "" {
		q.Set("state", state)
	}
	c.Redirect(http.StatusFound, "/auth/verify?"+q.Encode())
}

// lineErrorRedirect maps provider failures onto the redirect error
// vocabulary, serializing transport details for the login page.
func lineErrorRedirect(err error) (code, detail string) {
	var xchg *line.TokenExchangeError
	if errors.As(err, &xchg) {
		blob, _ := json.Marshal(gin.H{
			"status": xchg.StatusCode,
			"body":   xchg.Body,
		})
		return "line-token-error", string(blob)
	}

	var verr *line.VerificationError
	if errors.As(err, &verr) {
		return "token-verification-failed", ""
	}

	switch {
	case errors.Is(err, line.ErrNoIDToken):
		return "no-id-token", ""
	case errors.Is(err, line.ErrNoEmail):
		return "email-not-found-in-line", ""
	}
	return "server-error", ""
}
