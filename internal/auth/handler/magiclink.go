package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/auth"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/reconcile"
	"github.com/mocky70025/eventplatform-real-sub003/internal/mail"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
)

func magicKey(token string) string { return "magic:" + token }

type magicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// IssueMagicLink emails a single-use login link. The identity record is
// created on first use; clicking the link proves email ownership.
func (h *Handler) IssueMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	userID, err := h.resolver.Resolve(c.Request.Context(), &auth.Identity{
		Provider:       "magic-link",
		ProviderUserID: email,
		Email:          email,
		EmailVerified:  true,
	})
	if err != nil {
		h.log.Error("magic link resolution failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "magic link failed"})
		return
	}

	token, err := session.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "magic link failed"})
		return
	}

	err = h.onetime.Put(
		c.Request.Context(),
		magicKey(token),
		"magic-link:"+userID,
		h.cfg.MagicLinkTTL,
	)
	if err != nil {
		h.log.Error("magic link token store failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "magic link failed"})
		return
	}

	link := h.cfg.BaseURL + "/auth/verify?token=" + url.QueryEscape(token)
	err = h.mailer.Send(c.Request.Context(), mail.Message{
		ToEmail: email,
		Subject: "Your login link",
		Body:    "Click to sign in: " + link,
	})
	if err != nil {
		h.log.Error("magic link email failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "magic link failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// VerifyMagicLink consumes a one-time login token and establishes the
// session. Used by both the emailed magic link and the LINE handoff.
func (h *Handler) VerifyMagicLink(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.Redirect(http.StatusFound, h.loginErrorURL("magic-link-failed", ""))
		return
	}

	val, err := h.onetime.Take(c.Request.Context(), magicKey(token))
	if err != nil || val == "" {
		// Already used or expired; never two sessions per link.
		c.Redirect(http.StatusFound, h.loginErrorURL("magic-link-failed", ""))
		return
	}

	providerName, userID, ok := strings.Cut(val, ":")
	if !ok || userID == "" {
		c.Redirect(http.StatusFound, h.loginErrorURL("magic-link-failed", ""))
		return
	}

	sess, err := h.createSession(c, userID, providerName, "")
	if err != nil {
		c.Redirect(http.StatusFound, h.loginErrorURL("server-error", ""))
		return
	}

	// When the handshake carried a state, reconcile the session home
	// through the shared landing.
	if state := c.Query("state"); state != "" {
		err = h.onetime.Put(
			c.Request.Context(),
			reconcile.PendingKey(state),
			sess.SessionID,
			stateTTL,
		)
		if err != nil {
			h.log.Error("pending session signal failed", "error", err)
		}
		q := url.Values{}
		q.Set("provider", providerName)
		q.Set("state", state)
		c.Redirect(http.StatusFound, "/auth/reconcile?"+q.Encode())
		return
	}

	c.Redirect(http.StatusFound, "/")
}
