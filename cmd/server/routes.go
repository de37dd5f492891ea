package main

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/portfolio/internal/httpapi"
	"github.com/MarkoPoloResearchLab/portfolio/internal/storage"
)

const (
	apiRoutePrefix        = "/api"
	corsOriginWildcard    = "*"
	corsHeaderContentType = "Content-Type"
	httpMethodGet         = "GET"
	httpMethodOptions     = "OPTIONS"
	corsPreflightMaxAge   = 12 * time.Hour
)

var (
	corsAllowedMethods = []string{httpMethodGet, httpMethodOptions}
	corsAllowedHeaders = []string{corsHeaderContentType}
	corsExposedHeaders = []string{corsHeaderContentType}
)

func registerPageRoutes(
	router *gin.Engine,
	pageHandlers *httpapi.PageHandlers,
	feedbackHandlers *httpapi.FeedbackHandlers,
	sitemapHandlers *httpapi.SitemapHandlers,
	healthHandlers *httpapi.HealthHandlers,
) {
	router.GET(httpapi.HomePath, pageHandlers.RenderHome)
	router.GET(httpapi.HomeAliasPath, pageHandlers.RenderHome)
	router.GET(httpapi.AboutPath, pageHandlers.RenderAbout)
	router.GET(httpapi.CertificatesPath, pageHandlers.RenderCertificates)
	router.GET(httpapi.TestimonialsPath, pageHandlers.RenderTestimonials)
	router.GET(httpapi.FeedbackPath, pageHandlers.RenderFeedbackForm)
	router.POST(httpapi.FeedbackPath, feedbackHandlers.SubmitFeedback)
	router.GET(httpapi.SentPath, pageHandlers.RenderSent)
	router.GET(httpapi.FailPath, pageHandlers.RenderFail)
	router.GET(httpapi.SitemapRoutePath, sitemapHandlers.RenderSitemap)
	router.GET(httpapi.HealthPath, healthHandlers.Health)
}

func registerAdminRoutes(
	router *gin.Engine,
	sessionManager *httpapi.SessionManager,
	authenticator httpapi.Authenticator,
	adminHandlers *httpapi.AdminHandlers,
) {
	router.GET(httpapi.AdminLoginPath, adminHandlers.RenderLogin)
	router.POST(httpapi.AdminLoginPath, adminHandlers.Login)
	router.GET(httpapi.AdminLogoutPath, adminHandlers.Logout)
	router.GET(httpapi.AdminDashboardPath, httpapi.RequireAdminWeb(sessionManager, authenticator, httpapi.FlashLoginRequired), adminHandlers.RenderDashboard)
	router.GET(httpapi.AdminDeletePath, adminHandlers.DeleteMessage)
	router.GET(httpapi.AdminMarkReadPath, adminHandlers.MarkMessageRead)
}

// registerAPIRoutes mounts the JSON endpoints under /api with wildcard CORS. A nil guard
// leaves them public.
func registerAPIRoutes(router *gin.Engine, unreadHandlers *httpapi.UnreadHandlers, guard gin.HandlerFunc) {
	apiGroup := router.Group(apiRoutePrefix)
	apiGroup.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOriginWildcard},
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: false,
		MaxAge:           corsPreflightMaxAge,
	}))
	if guard != nil {
		apiGroup.Use(guard)
	}
	unreadCountRoute := strings.TrimPrefix(httpapi.UnreadCountPath, apiRoutePrefix)
	apiGroup.OPTIONS(unreadCountRoute, func(*gin.Context) {})
	apiGroup.GET(unreadCountRoute, unreadHandlers.UnreadCount)
}

func databasePinger(database *gorm.DB) httpapi.DatabasePinger {
	return func(ctx context.Context) error {
		return storage.Ping(ctx, database)
	}
}
