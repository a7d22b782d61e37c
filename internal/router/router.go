package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/handler"
	"github.com/algobucks/platform/internal/middleware"
	"github.com/algobucks/platform/internal/response"
	"github.com/algobucks/platform/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	ContestPortal *handler.ContestPortalHandler
	Contest       *handler.ContestHandler
	Problem       *handler.ProblemHandler
	Submission    *handler.SubmissionHandler
	Clarification *handler.ClarificationHandler
	UserMgmt      *handler.UserManagementHandler
	AdminUser     *handler.AdminUserHandler
	Dashboard     *handler.DashboardHandler
	Setting       *handler.SettingHandler
	Media         *handler.MediaHandler
	Monitor       *handler.MonitorHandler
	System        *handler.SystemHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	// AccessLog runs after it so each request line carries the request ID.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.AccessLog(log))

	// Apply brotli middleware globally. Uploaded media is skipped: it is
	// image data, already compressed.
	brotliConfig := middleware.DefaultBrotliConfig
	brotliConfig.SkipPrefixes = []string{"/uploads"}
	router.Use(middleware.BrotliWithConfig(brotliConfig))

	// Uploaded media is stored under UUID filenames and never rewritten,
	// so clients may cache it indefinitely.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.ImmutableCacheControl())
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for judge-backed endpoints (10 requests per minute per
	// IP+user). Run/submit fan out to the external judge, so they get a
	// tighter budget than the rest of the API.
	submitLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	public := router.Group("/api/v1")
	{
		public.GET("/time", handlers.System.GetServerTime)
		public.GET("/contests", handlers.ContestPortal.ListContests)
		public.GET("/contests/:contest_id", handlers.ContestPortal.GetContest)
		public.GET("/contests/:contest_id/problems", handlers.ContestPortal.GetContestProblems)
		// 10s matches the standings cache TTL.
		public.GET("/contests/:contest_id/leaderboard", middleware.CacheControl(10), handlers.ContestPortal.GetLeaderboard)
		public.GET("/problems", handlers.Problem.ListProblems)
		public.GET("/problems/:problem_id", handlers.Problem.GetProblem)

		// Beacon endpoint: navigator.sendBeacon cannot set headers, so the
		// token rides in the body and the handler validates it itself.
		public.POST("/contests/:contest_id/autosubmit", handlers.Submission.AutoSubmitBeacon)

		public.GET("/public/settings", handlers.Setting.GetPublicSettings)
	}

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.UserLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireUserJWT(authService), handlers.Auth.UserLogout)
		auth.GET("/me", middleware.RequireUserJWT(authService), handlers.Auth.GetUserProfile)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. Contestant Group (JWT + Single Device) ─────────────────────
	user := router.Group("/api/v1")
	user.Use(
		middleware.RequireUserJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		user.GET("/lobby", handlers.ContestPortal.GetLobby)

		user.POST("/contests/:contest_id/register", handlers.ContestPortal.RegisterForContest)
		user.POST("/contests/:contest_id/unregister", handlers.ContestPortal.UnregisterFromContest)
		user.POST("/contests/:contest_id/join", handlers.ContestPortal.JoinContest)
		user.GET("/contests/:contest_id/session", handlers.ContestPortal.GetSessionState)
		user.PATCH("/contests/:contest_id/session", handlers.ContestPortal.AdvancePhase)
		user.POST("/contests/:contest_id/feedback", handlers.ContestPortal.SubmitFeedback)
		user.GET("/contests/:contest_id/results", handlers.ContestPortal.GetResults)
		user.GET("/contests/:contest_id/clarifications", handlers.ContestPortal.ListClarifications)
		user.POST("/contests/:contest_id/clarifications", handlers.ContestPortal.CreateClarification)

		user.POST("/submissions/run", submitLimiter.Middleware(), handlers.Submission.RunCode)
		user.POST("/submissions/dry-run", submitLimiter.Middleware(), handlers.Submission.DryRunCode)
		user.POST("/contests/:contest_id/submissions", submitLimiter.Middleware(), handlers.Submission.SubmitCode)
		user.GET("/contests/:contest_id/submissions", handlers.Submission.GetHistory)
	}

	// ─── 3. WebSocket Group (Contestant WS Auth) ───────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireUserWSAuth(authService))
	{
		ws.GET("/contests/:id/stream", handlers.WS.ContestStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Media upload
		adminAPI.POST("/media/upload", handlers.Media.UploadMedia)

		// Contest management
		adminAPI.GET("/contests", handlers.Contest.ListContests)
		adminAPI.POST("/contests", handlers.Contest.CreateContest)
		adminAPI.GET("/contests/:contest_id", handlers.Contest.GetContest)
		adminAPI.PUT("/contests/:contest_id", handlers.Contest.UpdateContest)
		adminAPI.POST("/contests/:contest_id/publish", handlers.Contest.PublishContest)
		adminAPI.POST("/contests/:contest_id/archive", handlers.Contest.ArchiveContest)
		adminAPI.POST("/contests/:contest_id/refresh-cache", handlers.Contest.RefreshContestCache)
		adminAPI.POST("/contests/:contest_id/problems", handlers.Contest.AttachProblem)
		adminAPI.DELETE("/contests/:contest_id/problems/:problem_id", handlers.Contest.DetachProblem)
		adminAPI.PUT("/contests/:contest_id/problems/order", handlers.Contest.ReorderProblems)
		adminAPI.GET("/contests/:contest_id/results", handlers.Contest.GetContestResults)
		adminAPI.GET("/contests/:contest_id/monitor", handlers.Monitor.MonitorContestSSE)

		// Clarifications
		adminAPI.GET("/contests/:contest_id/clarifications", handlers.Clarification.ListClarifications)
		adminAPI.POST("/contests/:contest_id/clarifications/broadcast", handlers.Clarification.BroadcastClarification)
		adminAPI.POST("/clarifications/:clarification_id/answer", handlers.Clarification.AnswerClarification)

		// Problem catalog (reads are public, writes are admin-only)
		adminAPI.POST("/problems", handlers.Problem.CreateProblem)
		adminAPI.PUT("/problems/:problem_id", handlers.Problem.UpdateProblem)
		adminAPI.DELETE("/problems/:problem_id", handlers.Problem.DeleteProblem)

		// Contestant management
		adminAPI.GET("/users", handlers.UserMgmt.ListUsers)
		adminAPI.POST("/users", handlers.UserMgmt.CreateUser)
		adminAPI.PUT("/users/:id", handlers.UserMgmt.UpdateUser)
		adminAPI.DELETE("/users/:id", handlers.UserMgmt.DeleteUser)
		adminAPI.POST("/users/:id/reset-session", handlers.UserMgmt.ResetUserSession)
		adminAPI.POST("/users/:id/codecoins", handlers.UserMgmt.GrantCodecoins)

		// Admin account management
		adminAPI.GET("/admins", handlers.AdminUser.ListAdmins)
		adminAPI.POST("/admins", handlers.AdminUser.CreateAdmin)
		adminAPI.PUT("/admins/:id", handlers.AdminUser.UpdateAdmin)
		adminAPI.DELETE("/admins/:id", handlers.AdminUser.DeleteAdmin)

		// Dashboard
		adminAPI.GET("/dashboard", handlers.Dashboard.GetDashboardData)

		// System Monitoring
		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)

		// App Settings Routes
		settingsGroup := adminAPI.Group("/settings")
		{
			settingsGroup.GET("", handlers.Setting.GetAllSettings)
			settingsGroup.PUT("", handlers.Setting.UpdateSettings)
		}
	}

	return router
}
