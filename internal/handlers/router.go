package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/municipal-tracker/internal/auth"
	"github.com/yukikurage/municipal-tracker/internal/middleware"
	"github.com/yukikurage/municipal-tracker/internal/services"
	"go.uber.org/zap"
)

// RouterDeps holds everything the HTTP layer is built from.
type RouterDeps struct {
	Logger         *zap.Logger
	Issuer         *auth.Issuer
	Auth           *services.AuthService
	Tasks          *services.TaskService
	Files          *services.FileService
	Activities     *services.ActivityService
	Dashboard      *services.DashboardService
	Location       *time.Location
	AllowedOrigins []string
	Now            func() time.Time
}

// NewRouter wires middleware and routes onto a fresh gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(deps.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = deps.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))

	authHandler := NewAuthHandler(deps.Auth, deps.Issuer)
	taskHandler := NewTaskHandler(deps.Tasks, deps.Auth, deps.Location)
	fileHandler := NewFileHandler(deps.Files, deps.Tasks, deps.Location)
	activityHandler := NewActivityHandler(deps.Activities, deps.Location)
	dashboardHandler := NewDashboardHandler(deps.Dashboard, deps.Location, deps.Now)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Municipal tracker API is running",
		})
	})

	requireAuth := middleware.RequireAuth(deps.Issuer)
	loadTask := middleware.LoadTask(deps.Tasks)
	loadFile := middleware.LoadFile(deps.Files)

	api := r.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("/login", authHandler.Login)
			users.POST("", authHandler.CreateUser)
			users.GET("", requireAuth, authHandler.ListUsers)
			users.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", loadTask, taskHandler.GetTask)
			tasks.PUT("/:id", loadTask, taskHandler.UpdateTask)
			tasks.DELETE("/:id", loadTask, taskHandler.DeleteTask)
			tasks.POST("/:id/status", loadTask, taskHandler.ChangeStatus)
			tasks.GET("/:id/history", loadTask, taskHandler.History)
		}

		files := api.Group("/files")
		files.Use(requireAuth)
		{
			files.GET("", fileHandler.ListFiles)
			files.POST("", fileHandler.CreateFile)
			files.GET("/:id", loadFile, fileHandler.GetFile)
			files.PUT("/:id", loadFile, fileHandler.UpdateFile)
			files.DELETE("/:id", loadFile, fileHandler.DeleteFile)
			files.GET("/:id/tasks", loadFile, fileHandler.ListTasks)
		}

		activities := api.Group("/other-activities")
		activities.Use(requireAuth)
		{
			activities.GET("", activityHandler.ListActivities)
			activities.POST("", activityHandler.CreateActivity)
			activities.GET("/:id", activityHandler.GetActivity)
			activities.PUT("/:id", activityHandler.UpdateActivity)
			activities.DELETE("/:id", activityHandler.DeleteActivity)
		}

		api.GET("/dashboard/stats", requireAuth, dashboardHandler.Stats)
		api.GET("/reports/daily", requireAuth, dashboardHandler.DailyReport)
	}

	return r
}
