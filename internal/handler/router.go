package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/middleware"
	"github.com/eduport/center-api/internal/models"
	"github.com/eduport/center-api/internal/service"
	"github.com/eduport/center-api/pkg/config"
	"github.com/eduport/center-api/pkg/logger"
	corsmiddleware "github.com/eduport/center-api/pkg/middleware/cors"
	reqidmiddleware "github.com/eduport/center-api/pkg/middleware/requestid"
)

// Handlers bundles every endpoint group the router mounts.
type Handlers struct {
	Auth         *AuthHandler
	Centers      *CenterHandler
	Sessions     *SessionHandler
	Classes      *ClassHandler
	Subjects     *SubjectHandler
	Students     *StudentHandler
	Attendance   *AttendanceHandler
	Marks        *MarkHandler
	Payments     *PaymentHandler
	Results      *ResultHandler
	FeeStructure *FeeStructureHandler
	Timetables   *TimetableHandler
	Certificates *CertificateHandler
	Health       *HealthHandler
	Metrics      *MetricsHandler
}

// NewRouter wires middleware and routes into a gin engine.
func NewRouter(cfg *config.Config, logr *zap.Logger, auth *service.AuthService, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Metrics.Scrape)

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", middleware.JWT(auth), h.Auth.Logout)
		authGroup.GET("/me", middleware.JWT(auth), h.Auth.Me)
	}

	protected := v1.Group("")
	protected.Use(middleware.JWT(auth))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleCenter)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	centers := protected.Group("/centers")
	{
		centers.GET("", h.Centers.List)
		centers.GET("/:id", h.Centers.Get)
		centers.POST("", adminOnly, h.Centers.Create)
		centers.PUT("/:id", adminOnly, h.Centers.Update)
		centers.PUT("/:id/status", adminOnly, h.Centers.UpdateStatus)
		centers.PATCH("/:id/status", adminOnly, h.Centers.UpdateStatus)
		centers.DELETE("/:id", adminOnly, h.Centers.Delete)
	}

	sessions := protected.Group("/sessions")
	{
		sessions.GET("", h.Sessions.List)
		sessions.GET("/:id", h.Sessions.Get)
		sessions.POST("", staff, h.Sessions.Create)
		sessions.PUT("/:id", staff, h.Sessions.Update)
		sessions.DELETE("/:id", staff, h.Sessions.Delete)
	}

	classes := protected.Group("/classes")
	{
		classes.GET("", h.Classes.List)
		classes.GET("/:id", h.Classes.Get)
		classes.POST("", staff, h.Classes.Create)
		classes.PUT("/:id", staff, h.Classes.Update)
		classes.DELETE("/:id", staff, h.Classes.Delete)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", h.Subjects.List)
		subjects.GET("/:id", h.Subjects.Get)
		subjects.POST("", staff, h.Subjects.Create)
		subjects.PUT("/:id", staff, h.Subjects.Update)
		subjects.DELETE("/:id", staff, h.Subjects.Delete)
	}

	students := protected.Group("/students")
	{
		students.GET("", h.Students.List)
		students.GET("/:id", h.Students.Get)
		students.GET("/:id/profile", h.Students.Profile)
		students.POST("", staff, h.Students.Create)
		students.PUT("/:id", staff, h.Students.Update)
		students.DELETE("/:id", staff, h.Students.Delete)
	}

	attendance := protected.Group("/attendances")
	{
		attendance.GET("", h.Attendance.List)
		attendance.GET("/:id", h.Attendance.Get)
		attendance.POST("", staff, h.Attendance.Create)
		attendance.POST("/bulk", staff, h.Attendance.Bulk)
		attendance.PUT("/:id", staff, h.Attendance.Update)
		attendance.DELETE("/:id", staff, h.Attendance.Delete)
		attendance.GET("/student/:id/summary", h.Attendance.StudentSummary)
		attendance.GET("/class/:id/summary", h.Attendance.ClassSummary)
	}

	marks := protected.Group("/marks")
	{
		marks.GET("", h.Marks.List)
		marks.GET("/:id", h.Marks.Get)
		marks.GET("/student/:id", h.Marks.ListByStudent)
		marks.GET("/subject/:id", h.Marks.ListBySubject)
		marks.POST("", staff, h.Marks.Create)
		marks.POST("/bulk", staff, h.Marks.Bulk)
		marks.PUT("/:id", staff, h.Marks.Update)
		marks.DELETE("/:id", staff, h.Marks.Delete)
	}

	payments := protected.Group("/payments")
	{
		payments.GET("", h.Payments.List)
		payments.GET("/:id", h.Payments.Get)
		payments.GET("/student/:id", h.Payments.StudentSummary)
		payments.POST("", staff, h.Payments.Create)
		payments.PUT("/:id", staff, h.Payments.Update)
		payments.DELETE("/:id", staff, h.Payments.Delete)
	}

	results := protected.Group("/results")
	{
		results.GET("", h.Results.List)
		results.POST("/publish", staff, h.Results.Publish)
		results.GET("/student/:id", h.Results.StudentResult)
		results.GET("/:session_id/:class_id", h.Results.Status)
		results.DELETE("/:session_id/:class_id", staff, h.Results.Unpublish)
	}

	fees := protected.Group("/fee-structures")
	{
		fees.GET("", h.FeeStructure.List)
		fees.GET("/:id", h.FeeStructure.Get)
		fees.POST("", staff, h.FeeStructure.Create)
		fees.PUT("/:id", staff, h.FeeStructure.Update)
		fees.DELETE("/:id", staff, h.FeeStructure.Delete)
	}

	timetables := protected.Group("/timetables")
	{
		timetables.GET("", h.Timetables.List)
		timetables.GET("/:id", h.Timetables.Get)
		timetables.GET("/download/:id", h.Timetables.Download)
		timetables.POST("", staff, h.Timetables.Upload)
		timetables.DELETE("/:id", staff, h.Timetables.Delete)
	}

	certificates := protected.Group("/certificates")
	{
		certificates.GET("", h.Certificates.List)
		certificates.GET("/:id", h.Certificates.Get)
		certificates.GET("/download/:id", h.Certificates.Download)
		certificates.POST("", staff, h.Certificates.Create)
		certificates.DELETE("/:id", staff, h.Certificates.Delete)
	}

	return r
}
