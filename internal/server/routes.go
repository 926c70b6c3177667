package server

import (
	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/chrono/internal/config"
	"github.com/xpanvictor/chrono/internal/handlers"
	"github.com/xpanvictor/chrono/pkg/Logger"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	TaskHandler *handlers.TaskHandler
	Logger      *Logger.Logger
	Configs     *config.Settings
}

func NewServerDependencies(
	taskHandler *handlers.TaskHandler,
	logger *Logger.Logger,
	cfg *config.Settings,
) Dependencies {
	return Dependencies{
		TaskHandler: taskHandler,
		Logger:      logger,
		Configs:     cfg,
	}
}

func InitializeRoutes(cfg *config.Settings, r *gin.Engine, dep Dependencies) {
	r.Use(handlers.CORSMiddleware())
	r.Use(handlers.RequestLoggerMiddleware(dep.Logger))
	r.Use(handlers.ErrorHandlerMiddleware(dep.Logger))

	r.GET("/", func(ctx *gin.Context) { ctx.JSON(200, gin.H{"message": "Server healthy"}) })
	r.GET("/health", func(ctx *gin.Context) { ctx.JSON(200, gin.H{"status": "ok"}) })

	api := r.Group("/api/v1")
	api.Use(handlers.IdentityMiddleware())

	tasks := api.Group("/tasks")
	{
		tasks.POST("", dep.TaskHandler.CreateTask)
		tasks.GET("", dep.TaskHandler.ListTasks)
		tasks.POST("/next-run", dep.TaskHandler.CalculateNextRun)
		tasks.GET("/:id", dep.TaskHandler.GetTask)
		tasks.PUT("/:id", dep.TaskHandler.UpdateTask)
		tasks.DELETE("/:id", dep.TaskHandler.DeleteTask)
		tasks.POST("/:id/pause", dep.TaskHandler.PauseTask)
		tasks.POST("/:id/resume", dep.TaskHandler.ResumeTask)
		tasks.POST("/:id/cancel", dep.TaskHandler.CancelTask)
	}

	api.POST("/reminders", dep.TaskHandler.CreateReminder)
}
