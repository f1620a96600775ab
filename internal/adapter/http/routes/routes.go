package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"todolist/internal/adapter/http/handler"
	"todolist/internal/adapter/http/helper"
	"todolist/internal/adapter/http/middleware"
	"todolist/internal/core/port"
	"todolist/internal/core/telemetry"
	"todolist/pkg/config"
	"todolist/pkg/logger"
)

type HandlersConfig struct {
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	TodoHandler *handler.TodoHandler
	Tokens      port.TokenIssuer
	Health      func(c *gin.Context) error
}

func SetupRouterWithConfig(handlers HandlersConfig, metrics *telemetry.AppMetrics, log *logger.LokiLogger, cfg *config.AppConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(config.NewHTTPSEnforcer(cfg, log.Zap()).HTTPSMiddleware())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(middleware.CurrentMiddleware())
	router.Use(middleware.LoggingMiddleware(log))

	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}

	limit := func(c *gin.Context) { c.Next() }

	if cfg.RateLimitEnabled {
		limit = config.NewRateLimiter(log.Zap(), metrics, cfg.RateLimitConfigs).RateLimitMiddleware()
	}

	setupRoutes(router, handlers, limit)

	return router
}

// SetupRouterForTests mounts every route without rate limiting, HTTPS
// redirects or telemetry.
func SetupRouterForTests(handlers HandlersConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CurrentMiddleware())

	setupRoutes(router, handlers, func(c *gin.Context) { c.Next() })

	return router
}

func setupRoutes(router *gin.Engine, handlers HandlersConfig, limit gin.HandlerFunc) {
	router.GET("/health", health(handlers.Health))

	router.NoRoute(func(c *gin.Context) {
		helper.SendFailure(c, notFound)
	})

	api := router.Group("/api")
	auth := middleware.JwtMiddleware(handlers.Tokens)

	if handlers.AuthHandler != nil {
		public := api.Group("/users", limit)
		{
			public.POST("/register", handlers.AuthHandler.Register)
			public.POST("/verify-email", handlers.AuthHandler.VerifyEmail)
			public.POST("/resend-verification", handlers.AuthHandler.ResendVerification)
			public.POST("/login", handlers.AuthHandler.Login)
			public.POST("/refresh-token", handlers.AuthHandler.RefreshToken)
			public.POST("/generate-reset-otp", handlers.AuthHandler.GenerateResetOtp)
			public.PATCH("/reset-password", handlers.AuthHandler.ResetPassword)
		}

		protected := api.Group("/users", auth, limit)
		{
			protected.POST("/logout", handlers.AuthHandler.Logout)
			protected.PATCH("/change-password", handlers.AuthHandler.ChangePassword)
			protected.PATCH("/change-email", handlers.AuthHandler.ChangeEmail)
		}
	}

	if handlers.UserHandler != nil {
		protected := api.Group("/users", auth, limit)
		{
			protected.GET("/getUserProfile", handlers.UserHandler.GetUserProfile)
			protected.GET("/isUserLoggedIn", handlers.UserHandler.IsUserLoggedIn)
			protected.PATCH("/change-profile-picture", handlers.UserHandler.ChangeProfilePicture)
			protected.DELETE("/delete-account", handlers.UserHandler.DeleteAccount)
		}
	}

	if handlers.TodoHandler != nil {
		todos := api.Group("/todos", auth, limit)
		{
			todos.POST("/create-todo", handlers.TodoHandler.CreateTodo)
			todos.GET("/get-todos", handlers.TodoHandler.GetTodos)
			todos.GET("/get-todo/:todoId", handlers.TodoHandler.GetTodo)
			todos.PATCH("/update-todo/:todoId", handlers.TodoHandler.UpdateTodo)
			todos.DELETE("/delete-todo/:todoId", handlers.TodoHandler.DeleteTodo)
			todos.POST("/create-subTodo/:todoId", handlers.TodoHandler.CreateSubTodo)
			todos.PATCH("/sub-todo/update-todoStatus/:todoId", handlers.TodoHandler.UpdateTodoStatus)
			todos.PATCH("/sub-todo/update-subTodo/:todoId/subTodos/:subTodoId", handlers.TodoHandler.UpdateSubTodo)
			todos.DELETE("/sub-todo/delete-subTodo/:todoId/subTodos/:subTodoId", handlers.TodoHandler.DeleteSubTodo)
		}
	}
}

// WithCORS allows credentialed requests from the configured origins, given
// as a comma-separated list.
func WithCORS(next http.Handler, origins string) http.Handler {
	allowed := make([]string, 0)

	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed = append(allowed, origin)
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})(next)
}
