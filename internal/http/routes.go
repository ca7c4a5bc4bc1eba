package http

import (
	"todo_webapp/internal/http/handlers"
	"todo_webapp/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the engine with the middleware chain and all routes.
func NewRouter(h *handlers.Handler, health *handlers.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(h.AllowedOrigin))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	RegisterRoutes(r, h, health)
	return r
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler) {
	// Health checks
	if health != nil {
		r.GET("/health", health.Health)
		r.GET("/healthz", health.Liveness)
		r.GET("/readyz", health.Readiness)
	}

	api := r.Group("/api")

	// Public: registration and login never pass through the auth middleware
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)

	// Live events authenticate inside the handler (token may arrive as a query param)
	api.GET("/events", h.Events)

	protected := api.Group("")
	protected.Use(middleware.Auth(h.Tokens, h.Users))
	{
		protected.GET("/me", h.Me)
		protected.DELETE("/me", h.DeleteMe)
		protected.GET("/me/activity", h.Activity)

		protected.GET("/todos", h.ListTodos)
		protected.POST("/todos", h.CreateTodo)
		protected.PUT("/todos/:id", h.UpdateTodo)
		protected.DELETE("/todos/:id", h.DeleteTodo)
	}
}
