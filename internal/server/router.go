package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/starbound-health/navigator-backend/internal/handlers"
	"github.com/starbound-health/navigator-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	UserHandler     *handlers.UserHandler
	SSEHandler      *handlers.SSEHandler
	IngestHandler   *handlers.IngestHandler
	ProfileHandler  *handlers.ProfileHandler
	FollowUpHandler *handlers.FollowUpHandler
	PatternHandler  *handlers.PatternHandler
	CatalogHandler  *handlers.CatalogHandler
	HabitHandler    *handlers.HabitHandler
	NudgeHandler    *handlers.NudgeHandler
	ChatHandler     *handlers.ChatThreadHandler
	FeedbackHandler *handlers.FeedbackHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.Stream)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.PATCH("/user", cfg.UserHandler.UpdateName)
	// Ingestion
	protected.POST("/events", cfg.IngestHandler.Submit)
	protected.POST("/events/answers", cfg.IngestHandler.SubmitAnswers)
	protected.GET("/events/:eventID/snapshot", cfg.ProfileHandler.Snapshot)
	// Profile
	protected.GET("/profile", cfg.ProfileHandler.Get)
	protected.POST("/profile/rebuild", cfg.ProfileHandler.Rebuild)
	protected.GET("/profile/factors", cfg.ProfileHandler.FactorAudit)
	// Follow-ups
	protected.GET("/followups", cfg.FollowUpHandler.Status)
	protected.POST("/followups/:followUpID/resolve", cfg.FollowUpHandler.Resolve)
	// Insights
	protected.GET("/insights", cfg.PatternHandler.List)
	protected.POST("/insights/recompute", cfg.PatternHandler.Recompute)
	protected.POST("/insights/:insightID/dismiss", cfg.PatternHandler.Dismiss)
	protected.POST("/insights/:insightID/bookmark", cfg.PatternHandler.Bookmark)
	// Resource catalog
	protected.GET("/resources", cfg.CatalogHandler.List)
	// Habits
	protected.POST("/habits", cfg.HabitHandler.Create)
	protected.GET("/habits", cfg.HabitHandler.List)
	protected.POST("/habits/:habitID/checkin", cfg.HabitHandler.Checkin)
	protected.POST("/habits/:habitID/archive", cfg.HabitHandler.Archive)
	// Nudges
	protected.GET("/nudges", cfg.NudgeHandler.List)
	protected.POST("/nudges/:nudgeID/seen", cfg.NudgeHandler.MarkSeen)
	protected.POST("/nudges/:nudgeID/acted", cfg.NudgeHandler.MarkActed)
	// Chat threads
	protected.POST("/threads", cfg.ChatHandler.Create)
	protected.GET("/threads", cfg.ChatHandler.List)
	protected.PATCH("/threads/:threadID", cfg.ChatHandler.Rename)
	protected.DELETE("/threads/:threadID", cfg.ChatHandler.Delete)
	// Feedback
	protected.POST("/feedback", cfg.FeedbackHandler.Submit)
	protected.GET("/feedback", cfg.FeedbackHandler.List)

	return router
}
