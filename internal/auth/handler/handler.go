package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/apps"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/credentials"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/gate"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/provider"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/provider/line"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/reconcile"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/resolver"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/mail"
	"github.com/mocky70025/eventplatform-real-sub003/internal/repos"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
)

type Config struct {
	// BaseURL is the public URL of this API, used in emailed links.
	BaseURL      string
	SessionTTL   time.Duration
	MagicLinkTTL time.Duration
	LoginPath    string
	SecureCookie bool
}

type Handler struct {
	providers         *provider.Registry
	lineProvider      *line.Provider
	sessionStore      session.Store
	markers           session.MarkerStore
	onetime           session.OneTimeStore
	resolver          resolver.Resolver
	credentialService *credentials.Service
	reconciler        *reconcile.Reconciler
	gate              *gate.Gate
	dir               *apps.Directory
	users             repos.UserRepo
	mailer            mail.Client
	cfg               Config
	log               *logger.Logger
}

func NewHandler(
	registry *provider.Registry,
	lineProvider *line.Provider,
	sessionStore session.Store,
	markers session.MarkerStore,
	onetime session.OneTimeStore,
	identityResolver resolver.Resolver,
	credentialService *credentials.Service,
	reconciler *reconcile.Reconciler,
	g *gate.Gate,
	dir *apps.Directory,
	users repos.UserRepo,
	mailer mail.Client,
	cfg Config,
	log *logger.Logger,
) *Handler {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.MagicLinkTTL <= 0 {
		cfg.MagicLinkTTL = 15 * time.Minute
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	return &Handler{
		providers:         registry,
		lineProvider:      lineProvider,
		sessionStore:      sessionStore,
		markers:           markers,
		onetime:           onetime,
		resolver:          identityResolver,
		credentialService: credentialService,
		reconciler:        reconciler,
		gate:              g,
		dir:               dir,
		users:             users,
		mailer:            mailer,
		cfg:               cfg,
		log:               log.With("component", "AuthHandler"),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/oauth/login/:provider", h.oauthLogin)
	r.GET("/oauth/callback/:provider", h.oauthCallback)

	r.GET("/auth/line/login", h.lineLogin)
	r.GET("/auth/callback/line", h.lineCallback)

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/confirm", h.ConfirmEmail)

	r.POST("/auth/magic-link", h.IssueMagicLink)
	r.GET("/auth/verify", h.VerifyMagicLink)

	r.GET("/auth/reconcile", h.Reconcile)
	r.GET("/gate", h.GateView)
	r.POST("/auth/logout", h.Logout)
}

// currentApp resolves which front end is talking to us: explicit query
// param first, then the request Origin against the configured directory.
func (h *Handler) currentApp(c *gin.Context) apps.Type {
	if t, ok := apps.ParseType(c.Query("app")); ok {
		return t
	}
	origin := c.GetHeader("Origin")
	if origin == "" {
		origin = c.GetHeader("Referer")
	}
	if t, ok := h.dir.ByOrigin(origin); ok {
		return t
	}
	return apps.Organizer
}
