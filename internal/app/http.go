package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/apps"
	authhandler "github.com/mocky70025/eventplatform-real-sub003/internal/auth/handler"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/credentials"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/gate"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/provider"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/provider/google"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/provider/line"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/reconcile"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/resolver"
	"github.com/mocky70025/eventplatform-real-sub003/internal/config"
	"github.com/mocky70025/eventplatform-real-sub003/internal/docverify"
	"github.com/mocky70025/eventplatform-real-sub003/internal/http/handlers"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/mail"
	"github.com/mocky70025/eventplatform-real-sub003/internal/middleware"
	"github.com/mocky70025/eventplatform-real-sub003/internal/repos"
	"github.com/mocky70025/eventplatform-real-sub003/internal/services"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
	"github.com/mocky70025/eventplatform-real-sub003/internal/sse"
	"github.com/mocky70025/eventplatform-real-sub003/internal/storage"
)

func setupHTTP(ctx context.Context, cfg config.Config, log *logger.Logger) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	markerStore := session.NewRedisMarkerStore(infra.Redis.Client)
	onetimeStore := session.NewRedisOneTimeStore(infra.Redis.Client)
	identityResolver := resolver.NewGormResolver(infra.DB)

	userRepo := repos.NewUserRepo(infra.DB, log)
	organizerRepo := repos.NewOrganizerRepo(infra.DB, log)
	exhibitorRepo := repos.NewExhibitorRepo(infra.DB, log)
	eventRepo := repos.NewEventRepo(infra.DB, log)
	applicationRepo := repos.NewApplicationRepo(infra.DB, log)
	notificationRepo := repos.NewNotificationRepo(infra.DB, log)
	chatRepo := repos.NewChatRepo(infra.DB, log)
	adminLogRepo := repos.NewAdminLogRepo(infra.DB, log)
	documentRepo := repos.NewDocumentRepo(infra.DB, log)

	dir, err := apps.NewDirectory(cfg.AdminOrigin, cfg.OrganizerOrigin, cfg.ExhibitorOrigin)
	if err != nil {
		return nil, nil, err
	}

	var providers []provider.OAuthProvider
	if cfg.GoogleClientID != "" {
		googleProvider, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, googleProvider)
	}
	registry := provider.NewRegistry(providers...)
	log.Info("oauth providers ready", "providers", registry.Names())

	// LINE Login is optional in local setups, same as Google above. The
	// auth handler and reconciler degrade to "not configured" responses.
	var lineProvider *line.Provider
	var lineExchanger reconcile.LineExchanger
	if cfg.LineChannelID != "" {
		lineProvider, err = line.New(
			cfg.LineChannelID,
			cfg.LineChannelSecret,
			cfg.LineRedirectURL,
		)
		if err != nil {
			return nil, nil, err
		}
		lineExchanger = lineProvider
	}

	credentialService := credentials.NewService(infra.DB)

	g := gate.New(sessionStore, userRepo, organizerRepo, exhibitorRepo, log)
	profiles := gate.NewProfileLookup(organizerRepo, exhibitorRepo)

	reconciler := reconcile.New(
		dir,
		sessionStore,
		markerStore,
		onetimeStore,
		lineExchanger,
		identityResolver,
		profiles,
		reconcile.Config{
			PollInterval: cfg.ReconcilePollInterval,
			PollAttempts: cfg.ReconcilePollAttempts,
			SessionTTL:   cfg.SessionTTL,
		},
		log,
	)

	mailer := mail.New(log, mail.Config{
		APIKey:    cfg.MailAPIKey,
		BaseURL:   cfg.MailBaseURL,
		FromEmail: cfg.MailFromEmail,
		FromName:  cfg.MailFromName,
	})

	hub := sse.NewHub(log)

	notificationService := services.NewNotificationService(notificationRepo, hub, log)
	tenantService := services.NewTenantService(organizerRepo, exhibitorRepo, adminLogRepo, notificationService, log)
	eventService := services.NewEventService(eventRepo, organizerRepo, adminLogRepo, notificationService, log)
	applicationService := services.NewApplicationService(applicationRepo, eventRepo, organizerRepo, exhibitorRepo, notificationService, log)
	chatService := services.NewChatService(chatRepo, applicationRepo, eventRepo, organizerRepo, exhibitorRepo, hub, log)

	// Document storage and AI review are optional in local setups.
	var documentService services.DocumentService
	if cfg.GCSBucketName != "" {
		bucket, err := storage.NewBucketService(ctx, log, storage.Config{
			BucketName: cfg.GCSBucketName,
			CredsFile:  cfg.GCSCredsFile,
		})
		if err != nil {
			return nil, nil, err
		}

		var verifier docverify.Verifier
		if cfg.OpenAIAPIKey != "" {
			verifier, err = docverify.New(log, docverify.Config{
				APIKey:  cfg.OpenAIAPIKey,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.OpenAIModel,
			})
			if err != nil {
				return nil, nil, err
			}
		}

		documentService = services.NewDocumentService(documentRepo, exhibitorRepo, adminLogRepo, bucket, verifier, log)
	}

	authHandler := authhandler.NewHandler(
		registry,
		lineProvider,
		sessionStore,
		markerStore,
		onetimeStore,
		identityResolver,
		credentialService,
		reconciler,
		g,
		dir,
		userRepo,
		mailer,
		authhandler.Config{
			BaseURL:      cfg.PublicBaseURL,
			SessionTTL:   cfg.SessionTTL,
			MagicLinkTTL: cfg.MagicLinkTTL,
			LoginPath:    cfg.LoginPath,
			SecureCookie: cfg.SecureCookies,
		},
		log,
	)

	authMiddleware := middleware.NewAuthMiddleware(sessionStore)
	adminGuard := middleware.NewAdminGuard(userRepo, cfg.AdminEmails, log)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS([]string{cfg.AdminOrigin, cfg.OrganizerOrigin, cfg.ExhibitorOrigin}))

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)
	router.GET("/healthz", handlers.Health)

	eventHandler := handlers.NewEventHandler(eventService)

	// Published events are the storefront; browsing needs no session.
	router.GET("/api/events", eventHandler.ListPublished)

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	tenantHandler := handlers.NewTenantHandler(tenantService)
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	chatHandler := handlers.NewChatHandler(chatService, hub)

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	api.POST("/organizers", tenantHandler.RegisterOrganizer)
	api.GET("/organizers/me", tenantHandler.GetOwnOrganizer)
	api.PUT("/organizers/me", tenantHandler.UpdateOwnOrganizer)
	api.POST("/exhibitors", tenantHandler.RegisterExhibitor)
	api.GET("/exhibitors/me", tenantHandler.GetOwnExhibitor)
	api.PUT("/exhibitors/me", tenantHandler.UpdateOwnExhibitor)

	api.GET("/events/mine", eventHandler.ListOwn)
	api.POST("/events", eventHandler.Create)
	api.GET("/events/:id", eventHandler.Get)
	api.PUT("/events/:id", eventHandler.Update)
	api.POST("/events/:id/submit", eventHandler.Submit)

	api.POST("/events/:id/applications", applicationHandler.Apply)
	api.GET("/events/:id/applications", applicationHandler.ListForEvent)
	api.GET("/applications/mine", applicationHandler.ListOwn)
	api.POST("/applications/:id/approve", applicationHandler.Approve)
	api.POST("/applications/:id/reject", applicationHandler.Reject)

	api.GET("/notifications", notificationHandler.List)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)

	api.POST("/applications/:id/messages", chatHandler.Send)
	api.GET("/applications/:id/messages", chatHandler.History)
	api.GET("/applications/:id/stream", chatHandler.Stream)

	if documentService != nil {
		documentHandler := handlers.NewDocumentHandler(documentService)
		api.POST("/documents", documentHandler.Upload)
		api.GET("/documents/mine", documentHandler.ListOwn)
	}

	// ----------------------------
	// Admin Routes
	// ----------------------------

	adminHandler := handlers.NewAdminHandler(tenantService, eventService, documentService, adminLogRepo)

	admin := router.Group("/api/admin")
	admin.Use(middleware.GinRequireAuth(authMiddleware))
	admin.Use(adminGuard.RequireAdmin())

	admin.GET("/organizers", adminHandler.ListOrganizers)
	admin.GET("/exhibitors", adminHandler.ListExhibitors)
	admin.POST("/organizers/:id/approve", adminHandler.ApproveOrganizer)
	admin.GET("/events/pending", adminHandler.ListPendingEvents)
	admin.POST("/events/:id/publish", adminHandler.PublishEvent)
	admin.POST("/events/:id/reject", adminHandler.RejectEvent)
	admin.GET("/logs", adminHandler.ListLogs)
	if documentService != nil {
		admin.GET("/documents/pending", adminHandler.ListPendingDocuments)
		admin.POST("/documents/:id/review", adminHandler.ReviewDocument)
	}

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.Redis.Close()
	}, nil
}
