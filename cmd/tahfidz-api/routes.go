package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/middleware"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/pkg/config"
	"github.com/noah-isme/tahfidz-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tahfidz-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tahfidz-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, deps *dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", deps.health.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin)
	api := r.Group(cfg.APIPrefix, middleware.JWT(deps.tokens))

	rosterGroup := api.Group("/roster")
	rosterGroup.GET("/pages", deps.roster.ListPages)
	rosterGroup.GET("/pages/:page", deps.roster.GetPage)

	hafalan := api.Group("/hafalan", staff)
	hafalan.POST("/verses", deps.hafalan.MarkVerses)
	hafalan.GET("", deps.hafalan.List)
	hafalan.GET("/:id", deps.hafalan.Get)
	hafalan.PATCH("/:id/notes", deps.hafalan.UpdateNotes)
	hafalan.PUT("/:id/teacher", deps.hafalan.ReassignTeacher)
	hafalan.GET("/:id/history", deps.hafalan.History)
	hafalan.GET("/:id/rechecks", deps.rechecks.List)
	hafalan.GET("/:id/rechecks/scope", deps.rechecks.Scope)
	hafalan.POST("/:id/rechecks", deps.rechecks.Submit)

	api.GET("/students/:studentId/progress",
		middleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin), "SELF"),
		deps.hafalan.StudentProgress)

	partials := api.Group("/partials", staff)
	partials.POST("", deps.partials.Create)
	partials.GET("", deps.partials.List)
	partials.GET("/:id", deps.partials.Get)
	partials.PATCH("/:id", deps.partials.Update)
	partials.POST("/:id/complete", deps.partials.Complete)
	partials.POST("/:id/cancel", deps.partials.Cancel)

	return r
}
