package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vjbollavarapu/sitebackend/internal/handlers"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/middleware"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
	"strings"
)

type RouterConfig struct {
	Log               *logger.Logger
	AuthHandler       *handlers.AuthHandler
	ContactHandler    *handlers.ContactHandler
	WaitlistHandler   *handlers.WaitlistHandler
	LeadHandler       *handlers.LeadHandler
	NewsletterHandler *handlers.NewsletterHandler
	AnalyticsHandler  *handlers.AnalyticsHandler
	ABTestHandler     *handlers.ABTestHandler
	GDPRHandler       *handlers.GDPRHandler
	WebhookHandler    *handlers.WebhookHandler
	DashboardHandler  *handlers.DashboardHandler
	SiteHandler       *handlers.SiteHandler
	AuthMiddleware    *middleware.AuthMiddleware
	SiteMiddleware    *middleware.SiteMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	allowOrigins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", cfg.Log), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Site-ID"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	public := router.Group("/api/v1")
	public.Use(cfg.SiteMiddleware.ResolveSite())
	{
		public.POST("/contact", cfg.ContactHandler.Submit)

		public.POST("/waitlist", cfg.WaitlistHandler.Join)
		public.GET("/waitlist/verify", cfg.WaitlistHandler.Verify)
		public.GET("/waitlist/position", cfg.WaitlistHandler.Position)

		public.POST("/leads", cfg.LeadHandler.Capture)

		public.POST("/newsletter/subscribe", cfg.NewsletterHandler.Subscribe)
		public.GET("/newsletter/confirm", cfg.NewsletterHandler.Confirm)
		public.GET("/newsletter/unsubscribe", cfg.NewsletterHandler.Unsubscribe)
		public.POST("/newsletter/bounce", cfg.NewsletterHandler.Bounce)

		public.POST("/analytics/track", cfg.AnalyticsHandler.Track)

		public.GET("/ab-tests/:slug/variant", cfg.ABTestHandler.Variant)
		public.POST("/ab-tests/:slug/convert", cfg.ABTestHandler.Convert)

		public.POST("/gdpr/consent", cfg.GDPRHandler.RecordConsent)
		public.GET("/gdpr/consent", cfg.GDPRHandler.ConsentStatus)
		public.GET("/gdpr/privacy-policy", cfg.GDPRHandler.ActivePolicy)
	}

	router.POST("/api/v1/auth/login", cfg.AuthHandler.Login)
	router.POST("/api/v1/auth/refresh", cfg.AuthHandler.Refresh)

	// ===============
	// || Protected ||
	// ===============
	admin := router.Group("/api/v1/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth())
	{
		admin.POST("/auth/logout", cfg.AuthHandler.Logout)

		admin.GET("/dashboard/overview", cfg.DashboardHandler.Overview)

		admin.GET("/contact-submissions", cfg.ContactHandler.List)
		admin.GET("/contact-submissions/:id", cfg.ContactHandler.Get)
		admin.PATCH("/contact-submissions/:id", cfg.AuthMiddleware.RequireRole("editor"), cfg.ContactHandler.UpdateStatus)

		admin.GET("/waitlist", cfg.WaitlistHandler.List)
		admin.POST("/waitlist/:id/invite", cfg.AuthMiddleware.RequireRole("editor"), cfg.WaitlistHandler.Invite)
		admin.PATCH("/waitlist/:id", cfg.AuthMiddleware.RequireRole("editor"), cfg.WaitlistHandler.UpdateStatus)

		admin.GET("/leads", cfg.LeadHandler.List)
		admin.GET("/leads/:id", cfg.LeadHandler.Get)
		admin.PATCH("/leads/:id", cfg.AuthMiddleware.RequireRole("editor"), cfg.LeadHandler.UpdateStatus)

		admin.GET("/newsletter", cfg.NewsletterHandler.List)

		admin.GET("/ab-tests", cfg.ABTestHandler.List)
		admin.POST("/ab-tests", cfg.AuthMiddleware.RequireRole("editor"), cfg.ABTestHandler.Create)
		admin.GET("/ab-tests/:id", cfg.ABTestHandler.Get)
		admin.PATCH("/ab-tests/:id/status", cfg.AuthMiddleware.RequireRole("editor"), cfg.ABTestHandler.UpdateStatus)
		admin.GET("/ab-tests/:id/stats", cfg.ABTestHandler.Stats)

		admin.POST("/gdpr/export", cfg.AuthMiddleware.RequireRole("editor"), cfg.GDPRHandler.Export)
		admin.POST("/gdpr/delete", cfg.AuthMiddleware.RequireRole("owner"), cfg.GDPRHandler.Delete)
		admin.GET("/gdpr/policies", cfg.GDPRHandler.ListPolicies)
		admin.POST("/gdpr/policies", cfg.AuthMiddleware.RequireRole("editor"), cfg.GDPRHandler.CreatePolicy)
		admin.POST("/gdpr/policies/:id/activate", cfg.AuthMiddleware.RequireRole("editor"), cfg.GDPRHandler.ActivatePolicy)
		admin.PUT("/gdpr/retention", cfg.AuthMiddleware.RequireRole("owner"), cfg.GDPRHandler.SetRetentionPolicy)
		admin.GET("/gdpr/audit-logs", cfg.GDPRHandler.ListAuditLogs)

		admin.GET("/webhooks", cfg.WebhookHandler.List)
		admin.POST("/webhooks", cfg.AuthMiddleware.RequireRole("editor"), cfg.WebhookHandler.Create)
		admin.PATCH("/webhooks/:id", cfg.AuthMiddleware.RequireRole("editor"), cfg.WebhookHandler.Update)
		admin.DELETE("/webhooks/:id", cfg.AuthMiddleware.RequireRole("editor"), cfg.WebhookHandler.Delete)
		admin.GET("/webhooks/:id/events", cfg.WebhookHandler.Events)
		admin.POST("/webhook-events/:id/redeliver", cfg.AuthMiddleware.RequireRole("editor"), cfg.WebhookHandler.Redeliver)

		admin.GET("/sites", cfg.SiteHandler.List)
		admin.POST("/sites", cfg.AuthMiddleware.RequireRole("owner"), cfg.SiteHandler.Create)
		admin.GET("/sites/:id", cfg.SiteHandler.Get)
		admin.PATCH("/sites/:id", cfg.AuthMiddleware.RequireRole("owner"), cfg.SiteHandler.Update)
		admin.DELETE("/sites/:id", cfg.AuthMiddleware.RequireRole("owner"), cfg.SiteHandler.Delete)
	}

	return router
}
