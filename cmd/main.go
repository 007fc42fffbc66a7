package main

import (
	"context"
	"fmt"
	"github.com/vjbollavarapu/sitebackend/internal/clients/ga4"
	"github.com/vjbollavarapu/sitebackend/internal/clients/hubspot"
	"github.com/vjbollavarapu/sitebackend/internal/clients/mixpanel"
	"github.com/vjbollavarapu/sitebackend/internal/clients/pipedrive"
	"github.com/vjbollavarapu/sitebackend/internal/clients/recaptcha"
	redisclient "github.com/vjbollavarapu/sitebackend/internal/clients/redis"
	"github.com/vjbollavarapu/sitebackend/internal/clients/salesforce"
	"github.com/vjbollavarapu/sitebackend/internal/clients/sendgrid"
	"github.com/vjbollavarapu/sitebackend/internal/db"
	"github.com/vjbollavarapu/sitebackend/internal/handlers"
	jobhandlers "github.com/vjbollavarapu/sitebackend/internal/jobs/handlers"
	"github.com/vjbollavarapu/sitebackend/internal/jobs/runtime"
	"github.com/vjbollavarapu/sitebackend/internal/jobs/worker"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/middleware"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/server"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
	"os"
	"time"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis
	rdb, err := redisclient.New(log)
	if err != nil {
		log.Warn("Redis init failed, rate limiting and sessions disabled", "error", err)
	}

	// External clients. Each one is optional: a missing credential logs a
	// warning and the dependent feature degrades gracefully.
	recaptchaClient := recaptcha.New(log, recaptcha.ConfigFromEnv(log))
	sendgridClient, err := sendgrid.New(log, sendgrid.ConfigFromEnv(log))
	if err != nil {
		log.Warn("SendGrid disabled", "error", err)
	}
	ga4Client, err := ga4.New(log, ga4.ConfigFromEnv(log))
	if err != nil {
		log.Warn("GA4 disabled", "error", err)
	}
	mixpanelClient, err := mixpanel.New(log, mixpanel.ConfigFromEnv(log))
	if err != nil {
		log.Warn("Mixpanel disabled", "error", err)
	}
	hubspotClient, err := hubspot.New(log, hubspot.ConfigFromEnv(log))
	if err != nil {
		log.Warn("HubSpot disabled", "error", err)
	}
	salesforceClient, err := salesforce.New(log, salesforce.ConfigFromEnv(log))
	if err != nil {
		log.Warn("Salesforce disabled", "error", err)
	}
	pipedriveClient, err := pipedrive.New(log, pipedrive.ConfigFromEnv(log))
	if err != nil {
		log.Warn("Pipedrive disabled", "error", err)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	siteRepo := repos.NewSiteRepo(thePG, log)
	adminUserRepo := repos.NewAdminUserRepo(thePG, log)
	adminTokenRepo := repos.NewAdminTokenRepo(thePG, log)
	contactRepo := repos.NewContactSubmissionRepo(thePG, log)
	waitlistRepo := repos.NewWaitlistEntryRepo(thePG, log)
	leadRepo := repos.NewLeadRepo(thePG, log)
	newsletterRepo := repos.NewNewsletterSubscriptionRepo(thePG, log)
	analyticsRepo := repos.NewAnalyticsRepo(thePG, log)
	abTestRepo := repos.NewABTestRepo(thePG, log)
	gdprRepo := repos.NewGDPRRepo(thePG, log)
	webhookRepo := repos.NewWebhookRepo(thePG, log)
	jobRunRepo := repos.NewJobRunRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	jobService := services.NewJobService(thePG, log, jobRunRepo)
	rateLimitService := services.NewRateLimitService(rdb, log)
	sessionService := services.NewSessionService(rdb, log)
	spamService := services.NewSpamService(log, recaptchaClient)
	authService := services.NewAuthService(thePG, log, adminUserRepo, adminTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	siteService := services.NewSiteService(thePG, log, siteRepo)
	webhookService := services.NewWebhookService(thePG, log, webhookRepo, jobService)
	analyticsService := services.NewAnalyticsService(thePG, log, analyticsRepo, sessionService, jobService)
	contactService := services.NewContactService(thePG, log, contactRepo, spamService, rateLimitService, jobService, webhookService, analyticsService)
	waitlistService := services.NewWaitlistService(thePG, log, waitlistRepo, jobService, webhookService)
	leadService := services.NewLeadService(thePG, log, leadRepo, jobService, webhookService)
	newsletterService := services.NewNewsletterService(thePG, log, newsletterRepo, jobService)
	abTestService := services.NewABTestService(thePG, log, abTestRepo)
	gdprService := services.NewGDPRService(thePG, log, gdprRepo, contactRepo, waitlistRepo, leadRepo, newsletterRepo, analyticsRepo, jobService)
	crmService := services.NewCRMService(thePG, log, leadRepo, contactRepo, waitlistRepo, hubspotClient, salesforceClient, pipedriveClient)
	emailService := services.NewEmailService(log, sendgridClient, siteRepo, contactRepo, waitlistRepo, newsletterRepo)
	externalAnalyticsService := services.NewExternalAnalyticsService(log, ga4Client, mixpanelClient)
	dashboardService := services.NewDashboardService(log, analyticsRepo, contactRepo, leadRepo, waitlistRepo, newsletterRepo, sessionService)

	if err := authService.EnsureDefaultAdmin(context.Background()); err != nil {
		log.Warn("Failed to ensure default admin", "error", err)
	}

	// Jobs
	log.Info("Setting up job worker from main...")
	registry := runtime.NewRegistry()
	if err := jobhandlers.RegisterAll(registry, jobhandlers.Deps{
		Log:               log,
		Webhooks:          webhookService,
		CRM:               crmService,
		Email:             emailService,
		GDPR:              gdprService,
		ABTests:           abTestService,
		ExternalAnalytics: externalAnalyticsService,
	}); err != nil {
		log.Error("Failed to register job handlers", "error", err)
		os.Exit(1)
	}
	jobWorker := worker.NewWorker(thePG, log, jobRunRepo, registry)
	jobWorker.Start(context.Background())
	scheduler := worker.NewScheduler(log, jobRunRepo, jobService)
	scheduler.Start(context.Background())

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	contactHandler := handlers.NewContactHandler(contactService)
	waitlistHandler := handlers.NewWaitlistHandler(waitlistService)
	leadHandler := handlers.NewLeadHandler(leadService)
	newsletterHandler := handlers.NewNewsletterHandler(newsletterService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	abTestHandler := handlers.NewABTestHandler(abTestService)
	gdprHandler := handlers.NewGDPRHandler(gdprService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	siteHandler := handlers.NewSiteHandler(siteService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	siteMiddleware := middleware.NewSiteMiddleware(log, siteService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		AuthHandler:       authHandler,
		ContactHandler:    contactHandler,
		WaitlistHandler:   waitlistHandler,
		LeadHandler:       leadHandler,
		NewsletterHandler: newsletterHandler,
		AnalyticsHandler:  analyticsHandler,
		ABTestHandler:     abTestHandler,
		GDPRHandler:       gdprHandler,
		WebhookHandler:    webhookHandler,
		DashboardHandler:  dashboardHandler,
		SiteHandler:       siteHandler,
		AuthMiddleware:    authMiddleware,
		SiteMiddleware:    siteMiddleware,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
