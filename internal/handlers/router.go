package handlers

import (
	"open-factcheck/internal/auth"
	"open-factcheck/internal/events"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/ranking"
	"open-factcheck/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	DB           *gorm.DB
	Log          *logger.Logger
	Verifier     *auth.JWTVerifier
	Users        *services.UserService
	Claims       *services.ClaimService
	Verification *services.VerificationService
	Engagement   *services.EngagementService
	Ranking      *ranking.Service
	Hub          *events.Hub
	Workers      WorkerStatus
	CORSOrigins  string
}

// NewRouter wires every route onto a new gin engine
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(d.Log))
	r.Use(Metrics())
	r.Use(CORS(d.CORSOrigins))

	authMW := NewAuthMiddleware(d.Verifier, d.Users, d.Log)
	claimHandler := NewClaimHandler(d.Claims, d.Verification, d.Engagement, d.Log)
	rankingHandler := NewRankingHandler(d.Ranking, d.Log)
	healthHandler := NewHealthHandler(d.DB, d.Workers)

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if d.Hub != nil {
		r.GET("/ws/events", NewEventsHandler(d.Hub, d.Log).Stream)
	}

	api := r.Group("/api")
	{
		api.GET("/claims", claimHandler.List)
		api.GET("/claims/:id", claimHandler.Get)
		api.GET("/claims/:id/comments", claimHandler.ListComments)
		api.POST("/claims/:id/share", claimHandler.Share)
		api.GET("/trending", rankingHandler.Trending)
		api.GET("/leaderboard", rankingHandler.Leaderboard)

		authed := api.Group("")
		authed.Use(authMW.RequireAuth())
		{
			authed.POST("/claims", claimHandler.Submit)
			authed.DELETE("/claims/:id", claimHandler.Delete)
			authed.POST("/claims/:id/verify", claimHandler.Verify)
			authed.POST("/claims/:id/comments", claimHandler.AddComment)
			authed.POST("/claims/:id/like", claimHandler.Like)
			authed.POST("/claims/:id/bookmark", claimHandler.Bookmark)
			authed.PUT("/admin/claims/:id/trending", rankingHandler.SetTrending)
		}
	}

	return r
}
