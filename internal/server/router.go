package server

import (
	"net/http"

	challengecontroller "flagforge/internal/challenge/controller"
	leaderboardcontroller "flagforge/internal/leaderboard/controller"
	scoringcontroller "flagforge/internal/scoring/controller"
	"flagforge/internal/server/middleware"
	usercontroller "flagforge/internal/user/controller"
	userrepo "flagforge/internal/user/repository"
	userservice "flagforge/internal/user/service"

	"github.com/gin-gonic/gin"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Auth        *usercontroller.AuthController
	Challenges  *challengecontroller.ChallengeController
	Submissions *scoringcontroller.SubmissionController
	Leaderboard *leaderboardcontroller.LeaderboardController
	Tokens      *userservice.TokenManager
	CORS        middleware.CORSConfig
}

// NewRouter builds the gin engine with all routes attached.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.RequestLogger())

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	authRequired := middleware.Auth(cfg.Tokens)
	adminOnly := middleware.RequireRole(string(userrepo.UserRoleAdmin))

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", cfg.Auth.Signup)
			auth.POST("/signin", cfg.Auth.Signin)
		}
		api.GET("/users/me", authRequired, cfg.Auth.Me)

		challenges := api.Group("/challenges", authRequired)
		{
			challenges.GET("", cfg.Challenges.List)
			challenges.GET("/:id", cfg.Challenges.Get)
			challenges.POST("", adminOnly, cfg.Challenges.Create)
			challenges.PUT("/:id", adminOnly, cfg.Challenges.Update)
			challenges.DELETE("/:id", adminOnly, cfg.Challenges.Delete)
			challenges.POST("/:id/submit", cfg.Submissions.Submit)
		}

		submissions := api.Group("/submissions", authRequired)
		{
			submissions.GET("", cfg.Submissions.List)
			submissions.GET("/solved", cfg.Submissions.ListSolved)
		}

		leaderboard := api.Group("/leaderboard", authRequired)
		{
			leaderboard.GET("", cfg.Leaderboard.Board)
			leaderboard.GET("/me", cfg.Leaderboard.Me)
		}
	}

	return router
}
