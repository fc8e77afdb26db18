package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"speshway/internal/api/middleware"
	"speshway/internal/auth"
	"speshway/internal/cache"
	"speshway/internal/config"
	"speshway/internal/database"
	"speshway/internal/mailer"
	"speshway/internal/storage"
)

// cacheTTL bounds staleness for public content listings.
const cacheTTL = time.Hour

// RegisterRoutes wires every API endpoint onto the router.
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	authService *auth.AuthService,
	cacheStore cache.Store,
	objectStore ObjectStorage,
	localStore *storage.LocalStore,
	mail mailer.Mailer,
) {
	authHandler := NewAuthHandler(db, authService, mail, cfg.Auth.OTPTTL)
	portfolioHandler := NewPortfolioHandler(db, objectStore, cacheStore)
	teamHandler := NewTeamHandler(db, objectStore, cacheStore)
	serviceHandler := NewServiceHandler(db, objectStore, cacheStore)
	galleryHandler := NewGalleryHandler(db, objectStore, cacheStore)
	jobHandler := NewJobHandler(db, cacheStore)
	contactHandler := NewContactHandler(db, localStore, mail, cfg.SMTP.ContactsTo, cfg.Uploads.MaxResumeBytes, cfg.Uploads.ClamdAddr)
	settingsHandler := NewSettingsHandler(db)
	sitemapHandler := NewSitemapHandler(db, cfg.API.PublicURL)

	authMW := middleware.AuthMiddleware(authService)
	adminOnly := middleware.RequireRoles(database.RoleAdmin)
	staffOnly := middleware.RequireRoles(database.RoleAdmin, database.RoleHR)
	cached := middleware.CachePage(cacheStore, cacheTTL)

	router.GET("/sitemap.xml", sitemapHandler.Sitemap)

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", authMW, authHandler.Me)
		authGroup.POST("/forgot/request-otp", authHandler.RequestOTP)
		authGroup.POST("/forgot/verify", authHandler.VerifyOTP)
		authGroup.POST("/forgot/reset", authHandler.ResetPassword)
	}

	portfolios := api.Group("/portfolios")
	{
		portfolios.GET("", cached, portfolioHandler.List)
		portfolios.GET("/:id", portfolioHandler.Get)
		portfolios.POST("", authMW, adminOnly, portfolioHandler.Create)
		portfolios.PUT("/:id", authMW, adminOnly, portfolioHandler.Update)
		portfolios.DELETE("/:id", authMW, adminOnly, portfolioHandler.Delete)
	}

	team := api.Group("/team")
	{
		team.GET("", cached, teamHandler.List)
		team.GET("/:id", teamHandler.Get)
		team.POST("", authMW, adminOnly, teamHandler.Create)
		team.PUT("/:id", authMW, adminOnly, teamHandler.Update)
		team.DELETE("/:id", authMW, adminOnly, teamHandler.Delete)
	}

	services := api.Group("/services")
	{
		services.GET("", cached, serviceHandler.List)
		services.GET("/:id", serviceHandler.Get)
		services.POST("", authMW, adminOnly, serviceHandler.Create)
		services.PUT("/:id", authMW, adminOnly, serviceHandler.Update)
		services.DELETE("/:id", authMW, adminOnly, serviceHandler.Delete)
	}

	gallery := api.Group("/gallery")
	{
		gallery.GET("", cached, galleryHandler.List)
		gallery.GET("/categories", cached, galleryHandler.Categories)
		gallery.GET("/:id", galleryHandler.Get)
		gallery.POST("", authMW, adminOnly, galleryHandler.Create)
		gallery.PUT("/:id", authMW, adminOnly, galleryHandler.Update)
		gallery.DELETE("/:id", authMW, adminOnly, galleryHandler.Delete)
	}

	jobs := api.Group("/jobs")
	{
		jobs.GET("", cached, jobHandler.List)
		jobs.GET("/:id", jobHandler.Get)
		jobs.POST("", authMW, adminOnly, jobHandler.Create)
		jobs.PUT("/:id", authMW, adminOnly, jobHandler.Update)
		jobs.DELETE("/:id", authMW, adminOnly, jobHandler.Delete)
	}

	contact := api.Group("/contact")
	{
		contact.POST("/submit", contactHandler.Submit)
		contact.GET("/submissions", authMW, staffOnly, contactHandler.List)
		contact.PUT("/submission/:id/status", authMW, staffOnly, contactHandler.UpdateStatus)
		contact.POST("/submission/:id/reply", authMW, staffOnly, contactHandler.Reply)
		contact.DELETE("/submission/:id", authMW, staffOnly, contactHandler.Delete)
	}

	settings := api.Group("/settings")
	{
		settings.GET("", settingsHandler.Get)
		settings.PUT("", authMW, adminOnly, settingsHandler.Update)
	}
}
