package router

import (
	"time"

	"ishrakaat/config"
	"ishrakaat/internal/handler"
	"ishrakaat/internal/ledger"
	"ishrakaat/internal/middleware"
	"ishrakaat/internal/repository"
	"ishrakaat/internal/service"
	"ishrakaat/internal/ws"
	"ishrakaat/pkg/cloudinary"
	"ishrakaat/pkg/paystack"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers onto a gin engine. The
// settlement engine and zakah service are built by the caller so background
// jobs can share them.
func Setup(cfg *config.Config, db *gorm.DB, engine *ledger.Engine, zakahSvc *service.ZakahService, gateway *paystack.Client, cloud cloudinary.Client, logg zerolog.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging

	// Repositories
	userRepo := repository.NewUserRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	chatRepo := repository.NewChatRepository(db)

	chatHub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, logg)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	meHandler := handler.NewMeHandler(userRepo, donationRepo, cloud)
	donationHandler := handler.NewDonationHandler(engine, donationRepo, userRepo, logg)
	paymentHandler := handler.NewPaymentHandler(engine, gateway, userRepo, logg)
	webhookHandler := handler.NewWebhookHandler(engine, cfg.Paystack.SecretKey, logg)
	zakahHandler := handler.NewZakahHandler(zakahSvc, engine, userRepo, logg)
	adminHandler := handler.NewAdminHandler(userRepo, donationRepo, logg)
	reportHandler := handler.NewReportHandler(reportRepo, userRepo, logg)
	chatHandler := handler.NewChatHandler(chatRepo, userRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()

	api := r.Group("/api/v1")
	// The webhook is registered before the rate limiter is attached: Paystack
	// retries deliveries in bursts and a 429 would delay settlement.
	api.POST("/webhooks/paystack", webhookHandler.HandlePaystack)
	api.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.Profile)
			me.PATCH("/profile", meHandler.UpdateProfile)
			me.GET("/dashboard", meHandler.Dashboard)
			me.POST("/picture", meHandler.UploadProfilePicture)
		}

		donations := api.Group("/donations")
		{
			donations.GET("/campaigns", donationHandler.ListCampaigns)
			donations.GET("/campaigns/:id", donationHandler.GetCampaign)
			donations.POST("/donate", authMw, donationHandler.Donate)
			donations.GET("/settings", authMw, donationHandler.GetSettings)
			donations.PUT("/settings", authMw, donationHandler.UpdateSettings)
			donations.GET("/transactions", authMw, donationHandler.ListTransactions)
			donations.POST("/welfare", authMw, donationHandler.DonateWelfare)
			// Guests may register waqf interest without an account.
			donations.POST("/waqf", middleware.AuthOptional(&cfg.JWT), donationHandler.SubmitWaqfInterest)
		}

		payments := api.Group("/payments")
		payments.Use(authMw)
		{
			payments.POST("/deposit", paymentHandler.InitializeDeposit)
			payments.GET("/verify/:reference", paymentHandler.VerifyDeposit)
			payments.POST("/withdraw", paymentHandler.Withdraw)
			payments.POST("/virtual-account", paymentHandler.CreateVirtualAccount)
			payments.GET("/cards", paymentHandler.ListCards)
		}

		zakah := api.Group("/zakah")
		{
			zakah.GET("/dashboard", zakahHandler.Dashboard)
			zakah.POST("/pay", authMw, zakahHandler.QuickPay)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users/:id/approve", adminHandler.ApproveUser)
			admin.PATCH("/users/:id/admin-level", adminHandler.SetAdminLevel)
			admin.POST("/campaigns", adminHandler.CreateCampaign)
			admin.POST("/campaigns/:id/close", adminHandler.CloseCampaign)
			admin.GET("/waqf-interests", adminHandler.ListWaqfInterests)
			admin.POST("/zakah/refresh", zakahHandler.Refresh)
			admin.GET("/stats", reportHandler.Stats)
			admin.GET("/stats/export", reportHandler.ExportCSV)
			admin.GET("/chat/history", chatHandler.History)
		}
	}

	r.GET("/ws/admin-chat", handler.UpgradeAdminChatWS(&cfg.JWT, chatHub, chatRepo, userRepo))

	return r
}
