package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/credentials"
	"github.com/mocky70025/eventplatform-real-sub003/internal/mail"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
)

func confirmKey(token string) string { return "confirm:" + token }

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a password account and signs the user in immediately.
// The session exists right away, but the home route shows the
// confirm-email screen until the emailed link is clicked.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	app := h.currentApp(c)

	userID, err := h.credentialService.Register(c.Request.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrAlreadyRegistered) {
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
			return
		}
		h.log.Error("registration failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	sess, err := h.createSession(c, userID, credentials.ProviderName(), string(app))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	err = h.markers.Stash(c.Request.Context(), sess.SessionID, session.Markers{
		App:        string(app),
		AuthMethod: credentials.ProviderName(),
		UserID:     userID,
		Email:      email,
	}, h.cfg.SessionTTL)
	if err != nil {
		h.log.Error("marker stash failed", "error", err)
	}

	if err := h.sendConfirmationEmail(c, userID, email); err != nil {
		// The account exists; confirmation can be re-sent later.
		h.log.Error("confirmation email failed", "error", err, "user_id", userID)
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":        userID,
		"email_verified": false,
	})
}

// Login authenticates against stored password credentials.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	app := h.currentApp(c)

	userID, err := h.credentialService.Authenticate(c.Request.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.log.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	sess, err := h.createSession(c, userID, credentials.ProviderName(), string(app))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	err = h.markers.Stash(c.Request.Context(), sess.SessionID, session.Markers{
		App:        string(app),
		AuthMethod: credentials.ProviderName(),
		UserID:     userID,
		Email:      email,
	}, h.cfg.SessionTTL)
	if err != nil {
		h.log.Error("marker stash failed", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID})
}

// ConfirmEmail consumes the emailed confirmation token and marks the
// account's email as verified.
func (h *Handler) ConfirmEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.Redirect(http.StatusFound, h.loginErrorURL("token-verification-failed", ""))
		return
	}

	val, err := h.onetime.Take(c.Request.Context(), confirmKey(token))
	if err != nil || val == "" {
		c.Redirect(http.StatusFound, h.loginErrorURL("token-verification-failed", ""))
		return
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		c.Redirect(http.StatusFound, h.loginErrorURL("token-verification-failed", ""))
		return
	}

	if err := h.users.SetEmailVerified(c.Request.Context(), userID, true); err != nil {
		h.log.Error("email confirmation failed", "error", err, "user_id", userID)
		c.Redirect(http.StatusFound, h.loginErrorURL("server-error", ""))
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) sendConfirmationEmail(c *gin.Context, userID, email string) error {
	token, err := session.GenerateID()
	if err != nil {
		return err
	}

	err = h.onetime.Put(c.Request.Context(), confirmKey(token), userID, h.cfg.MagicLinkTTL)
	if err != nil {
		return err
	}

	link := h.cfg.BaseURL + "/auth/confirm?token=" + url.QueryEscape(token)
	return h.mailer.Send(c.Request.Context(), mail.Message{
		ToEmail: email,
		Subject: "Confirm your email address",
		Body:    "Confirm your account: " + link,
	})
}
