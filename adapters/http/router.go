package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/khoahotran/profile-portal/pkg/auth"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

type RouterConfig struct {
	ServiceName    string
	FrontendURL    string
	AuthHandler    *AuthHandler
	ProfileHandler *ProfileHandler
	JWTService     *auth.JWTService
	Logger         logger.Logger
	// LocalUploadDir is served under /uploads when set.
	LocalUploadDir string
	// HealthCheck reports dependency health; nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	RegisterValidators()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestID(),
		otelgin.Middleware(cfg.ServiceName),
		RequestLogger(cfg.Logger),
		CORS(cfg.FrontendURL),
		ErrorMiddleware(cfg.Logger),
	)

	if cfg.LocalUploadDir != "" {
		router.Static("/uploads", cfg.LocalUploadDir)
	}

	authMiddleware := AuthMiddleware(cfg.JWTService, cfg.Logger)

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler(cfg.HealthCheck))

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", cfg.AuthHandler.Register)
			authGroup.POST("/login", cfg.AuthHandler.Login)
			authGroup.POST("/reset-by-email/request", cfg.AuthHandler.RequestPasswordReset)
			authGroup.PUT("/reset-by-email", cfg.AuthHandler.ResetPassword)
			authGroup.GET("/me", authMiddleware, cfg.AuthHandler.Me)
		}

		profile := api.Group("/profile")
		profile.Use(authMiddleware)
		{
			profile.GET("", cfg.ProfileHandler.GetProfile)
			profile.PUT("", cfg.ProfileHandler.UpdateProfile)
			profile.DELETE("", cfg.ProfileHandler.DeleteProfile)
			profile.POST("/generate-bio", cfg.ProfileHandler.GenerateBio)
		}
	}

	return router
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	}
}
