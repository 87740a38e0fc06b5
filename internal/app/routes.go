package app

import (
	"context"
	"net/http"
	"time"

	"Taskflow/internal/auth"
	"Taskflow/internal/config"
	"Taskflow/internal/handlers"
	"Taskflow/internal/repo"
	"Taskflow/internal/service"

	_ "Taskflow/docs"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Redis *redis.Client
	Users repo.UserRepo
	Tasks *service.TaskService
}

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, deps Deps) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg, deps.Tasks))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")

	sessionTTL := cfg.Redis.SessionTTL.Duration()
	sessionStore := auth.NewStore(deps.Redis, sessionTTL)
	userSvc := service.NewUserService(deps.Users)
	authHandler := handlers.NewAuthHandler(sessionStore, userSvc, int(sessionStore.TTL().Seconds()))
	registerAuthRoutes(api, authHandler)

	protected := api.Group("", auth.RequireSession(sessionStore))
	protected.GET("/auth/me", authHandler.Me)
	registerTaskRoutes(protected, handlers.NewTaskHandler(deps.Tasks))
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Taskflow API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config, tasks *service.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := tasks.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ok": false, "env": cfg.App.Env, "store": cfg.Store.Driver, "error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "env": cfg.App.Env, "store": cfg.Store.Driver})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	api.GET("/tasks", h.List)
	api.POST("/tasks", h.Create)
	api.GET("/tasks/:id", h.GetByID)
	api.POST("/tasks/:id/toggle", h.Toggle)
	api.POST("/tasks/:id/archive", h.Archive)
	api.POST("/tasks/:id/comments", h.AddComment)
	api.GET("/history", h.History)
	api.DELETE("/history/:id", h.DeleteHistory)
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)
	api.POST("/auth/logout", h.Logout)
}
