package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/access"
	"github.com/shepherd-church/shepherd/internal/api/handlers"
	"github.com/shepherd-church/shepherd/internal/api/middleware"
	"github.com/shepherd-church/shepherd/internal/auth"
	"github.com/shepherd-church/shepherd/internal/config"
	"github.com/shepherd-church/shepherd/internal/logstream"
	"github.com/shepherd-church/shepherd/internal/queue"
	"github.com/shepherd-church/shepherd/internal/service"
	"github.com/shepherd-church/shepherd/internal/web"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Module names as they appear in the permission table.
const (
	moduleDashboard  = "dashboard"
	moduleMembers    = "members"
	moduleAttendance = "attendance"
	moduleDonations  = "donations"
	moduleEvents     = "events"
	moduleForum      = "forum"
	moduleProfile    = "profile"
	moduleReports    = "reports"
	moduleUsers      = "users"
	moduleAuditLogs  = "audit-logs"
)

// NewRouter creates and configures the Gin router. broker carries live report
// progress and is nil when this process runs no worker.
func NewRouter(cfg *config.Config, db *gorm.DB, q queue.Queue, evaluator *access.Evaluator, broker *logstream.Broker) *gin.Engine {
	// Set Gin mode
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())

	authenticator := auth.NewBasicAuthenticator(db, cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	cookieMaxAge := int(cfg.Auth.TokenDuration.Seconds())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", handlers.HealthCheck)
		public.GET("/version", handlers.GetVersion)
		public.GET("/info", handlers.NewInfoHandler(db).GetInfo)
		public.POST("/auth/login", handlers.Login(authenticator, db, cookieMaxAge))
		public.POST("/auth/logout", handlers.Logout)
	}

	// Services
	memberSvc := service.NewMemberService(db)
	eventSvc := service.NewEventService(db)
	attendanceSvc := service.NewAttendanceService(db, memberSvc)
	donationSvc := service.NewDonationService(db)

	// Handlers
	accessHandler := handlers.NewAccessHandler(evaluator)
	dashboardHandler := handlers.NewDashboardHandler(service.NewDashboardService(db))
	memberHandler := handlers.NewMemberHandler(memberSvc)
	eventHandler := handlers.NewEventHandler(eventSvc, db)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceSvc)
	donationHandler := handlers.NewDonationHandler(donationSvc, db)
	forumHandler := handlers.NewForumHandler(service.NewForumService(db))
	profileHandler := handlers.NewProfileHandler(service.NewProfileService(db))
	reportHandler := handlers.NewReportHandler(service.NewReportService(db, q), broker)
	userHandler := handlers.NewUserHandler(service.NewUserService(db))

	can := func(module string, action access.Action) gin.HandlerFunc {
		return middleware.RequireModule(evaluator, module, action)
	}

	// Protected routes (require authentication)
	protected := router.Group("/api/v1")
	protected.Use(authenticator.Middleware())
	{
		protected.GET("/auth/me", handlers.GetCurrentUser(authenticator, evaluator))

		// Access endpoints
		protected.GET("/access/check", accessHandler.Check)
		protected.GET("/access/paths", accessHandler.Paths)

		// Dashboard
		protected.GET("/dashboard/stats", can(moduleDashboard, access.ActionView), dashboardHandler.GetStats)

		// Member endpoints
		members := protected.Group("/members")
		{
			members.GET("", can(moduleMembers, access.ActionView), memberHandler.ListMembers)
			members.POST("", can(moduleMembers, access.ActionCreate), memberHandler.CreateMember)
			members.GET("/:id", can(moduleMembers, access.ActionView), memberHandler.GetMember)
			members.PUT("/:id", can(moduleMembers, access.ActionEdit), memberHandler.UpdateMember)
			members.POST("/:id/deactivate", can(moduleMembers, access.ActionEdit), memberHandler.DeactivateMember)
			members.DELETE("/:id", can(moduleMembers, access.ActionDelete), memberHandler.DeleteMember)
			members.GET("/:id/attendance-history", can(moduleMembers, access.ActionView), memberHandler.AttendanceHistory)
			members.GET("/:id/qrcode", can(moduleMembers, access.ActionView), memberHandler.QRCode)
		}

		// Event endpoints
		events := protected.Group("/events")
		{
			events.GET("", can(moduleEvents, access.ActionView), eventHandler.ListEvents)
			events.POST("", can(moduleEvents, access.ActionCreate), eventHandler.CreateEvent)
			events.GET("/calendar.ics", can(moduleEvents, access.ActionView), eventHandler.Calendar)
			events.GET("/:id", can(moduleEvents, access.ActionView), eventHandler.GetEvent)
			events.PUT("/:id", can(moduleEvents, access.ActionEdit), eventHandler.UpdateEvent)
			events.DELETE("/:id", can(moduleEvents, access.ActionDelete), eventHandler.DeleteEvent)
		}

		// Attendance endpoints
		attendance := protected.Group("/attendance")
		{
			attendance.GET("", can(moduleAttendance, access.ActionView), attendanceHandler.ListAttendance)
			attendance.POST("", can(moduleAttendance, access.ActionCreate), attendanceHandler.RecordAttendance)
			attendance.POST("/qr", can(moduleAttendance, access.ActionCreate), attendanceHandler.RecordQRAttendance)
			attendance.DELETE("/:id", can(moduleAttendance, access.ActionDelete), attendanceHandler.DeleteAttendance)
		}

		// Donation endpoints
		donations := protected.Group("/donations")
		{
			donations.GET("", can(moduleDonations, access.ActionView), donationHandler.ListDonations)
			donations.POST("", can(moduleDonations, access.ActionCreate), donationHandler.CreateDonation)
			donations.GET("/breakdown", can(moduleDonations, access.ActionView), donationHandler.Breakdown)
			donations.GET("/export", can(moduleDonations, access.ActionView), donationHandler.ExportDonations)
			donations.PUT("/:id", can(moduleDonations, access.ActionEdit), donationHandler.UpdateDonation)
			donations.DELETE("/:id", can(moduleDonations, access.ActionDelete), donationHandler.DeleteDonation)
		}

		// Forum endpoints. Unlike every other module, edit and delete here are
		// not limited to elevated roles: any forum user reaches them and
		// ForumService lets authors change their own posts and comments while
		// admins may remove anyone's.
		forum := protected.Group("/forum", can(moduleForum, access.ActionView))
		{
			forum.GET("/posts", forumHandler.ListPosts)
			forum.POST("/posts", can(moduleForum, access.ActionCreate), forumHandler.CreatePost)
			forum.GET("/posts/:id", forumHandler.GetPost)
			forum.PUT("/posts/:id", forumHandler.UpdatePost)
			forum.DELETE("/posts/:id", forumHandler.DeletePost)
			forum.POST("/posts/:id/comments", can(moduleForum, access.ActionCreate), forumHandler.AddComment)
			forum.DELETE("/comments/:id", forumHandler.DeleteComment)
		}

		// Profile
		protected.GET("/profile", can(moduleProfile, access.ActionView), profileHandler.GetProfile)

		// Report endpoints
		reports := protected.Group("/reports")
		{
			reports.GET("", can(moduleReports, access.ActionView), reportHandler.ListReports)
			reports.POST("", can(moduleReports, access.ActionCreate), reportHandler.RequestReport)
			reports.GET("/:id", can(moduleReports, access.ActionView), reportHandler.GetReport)
			reports.GET("/:id/download", can(moduleReports, access.ActionView), reportHandler.DownloadReport)
			reports.GET("/:id/progress", can(moduleReports, access.ActionView), reportHandler.StreamProgress)
		}

		// User administration
		users := protected.Group("/users")
		{
			users.GET("", can(moduleUsers, access.ActionView), userHandler.ListUsers)
			users.POST("", can(moduleUsers, access.ActionCreate), userHandler.CreateUser)
			users.PUT("/:id/role", can(moduleUsers, access.ActionEdit), userHandler.UpdateUserRole)
			users.DELETE("/:id", can(moduleUsers, access.ActionDelete), userHandler.DeleteUser)
		}

		protected.GET("/audit-logs", can(moduleAuditLogs, access.ActionView), userHandler.ListAuditLogs)
	}

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Front-end pages
	spa := web.NewSPA(cfg.Server.StaticDir)
	pages := router.Group("/", authenticator.Identify(), middleware.GuardPages(evaluator))
	for _, path := range evaluator.Paths() {
		pages.GET(path, spa.Index)
		pages.GET(path+"/*rest", spa.Index)
	}
	router.GET(middleware.LoginPath, spa.Index)
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, evaluator.Fallback())
	})
	router.NoRoute(spa.Asset)

	slog.Info("API router initialized", "mode", cfg.Server.Mode, "pages", len(evaluator.Paths()))
	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		slog.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"ip", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
