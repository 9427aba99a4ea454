package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/reconcile"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
)

// oauthLogin starts the generic OIDC flow. The initiating application is
// recorded in the handshake markers so the shared callback can route the
// session to the right front end.
func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	app := h.currentApp(c)

	state := h.generateState(c)
	_, codeChallenge := generatePKCE(c)

	err = h.markers.Stash(c.Request.Context(), reconcile.StateKey(state), session.Markers{
		App:        string(app),
		AuthMethod: providerName,
	}, stateTTL)
	if err != nil {
		h.log.Error("marker stash failed", "error", err)
		c.Redirect(http.StatusFound, h.loginErrorURL("server-error", ""))
		return
	}

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !h.validateState(c) {
		c.Redirect(http.StatusFound, h.loginErrorURL("token-verification-failed", ""))
		return
	}

	// Provider-side denial is common during registration. Degrade to a
	// fresh login rather than surfacing a raw error.
	if errParam := c.Query("error"); errParam != "" {
		h.log.Warn("oauth callback returned error",
			"provider", providerName,
			"error", errParam,
			"desc", c.Query("error_description"),
		)
		c.Redirect(http.StatusFound, h.cfg.LoginPath)
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, h.loginErrorURL("no-code", ""))
		return
	}

	codeVerifier := pkceVerifier(c)
	if codeVerifier == "" {
		c.Redirect(http.StatusFound, h.loginErrorURL("token-verification-failed", ""))
		return
	}

	identity, err := p.ExchangeCode(
		c.Request.Context(),
		code,
		codeVerifier,
	)
	if err != nil {
		h.log.Error("oauth exchange failed", "provider", providerName, "error", err)
		c.Redirect(http.StatusFound, h.loginErrorURL("token-verification-failed", ""))
		return
	}

	userID, err := h.resolver.Resolve(c.Request.Context(), identity)
	if err != nil {
		h.log.Error("identity resolution failed", "error", err)
		c.Redirect(http.StatusFound, h.loginErrorURL("create-user-failed", ""))
		return
	}

	state := c.Query("state")

	sess, err := h.createSession(c, userID, providerName, "")
	if err != nil {
		c.Redirect(http.StatusFound, h.loginErrorURL("server-error", ""))
		return
	}

	// Leave the pending-session signal for the reconciler's poll. The
	// reconcile landing may be served after this handler returns, or by
	// a different front end entirely.
	err = h.onetime.Put(
		c.Request.Context(),
		reconcile.PendingKey(state),
		sess.SessionID,
		2*time.Minute,
	)
	if err != nil {
		h.log.Error("pending session signal failed", "error", err)
	}

	q := url.Values{}
	q.Set("provider", providerName)
	q.Set("state", state)
	c.Redirect(http.StatusFound, "/auth/reconcile?"+q.Encode())
}

// createSession persists a session and issues the cookie.
func (h *Handler) createSession(c *gin.Context, userID, providerName, app string) (*session.Session, error) {
	sessionID, err := session.GenerateID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := session.Session{
		SessionID: sessionID,
		UserID:    userID,
		Provider:  providerName,
		App:       app,
		CreatedAt: now,
		ExpiresAt: now.Add(h.cfg.SessionTTL),
	}

	if err := h.sessionStore.Create(c.Request.Context(), sess); err != nil {
		h.log.Error("session create failed", "error", err)
		return nil, err
	}

	session.SetCookie(c.Writer, sessionID, sess.ExpiresAt, session.CookieOptions{
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return &sess, nil
}

func (h *Handler) loginErrorURL(code, detail string) string {
	q := url.Values{}
	q.Set("error", code)
	if detail != "" {
		q.Set("detail", detail)
	}
	return h.cfg.LoginPath + "?" + q.Encode()
}
