package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/auth"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

const (
	GinContextKeyUserID    = "userID"
	GinContextKeyRequestID = "requestID"
	HeaderRequestID        = "X-Request-ID"
)

func AuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWith(c, apperror.NewAppError(apperror.ErrUnauthorized, "Authorization header is required", "missing Authorization header", nil))
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			abortWith(c, apperror.NewAppError(apperror.ErrUnauthorized, "Invalid token format", "expected a Bearer token", nil))
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Rejected token", zap.Error(err), zap.String("path", c.FullPath()))
			abortWith(c, apperror.NewAppError(apperror.ErrUnauthorized, "Invalid or expired token", "token validation failed", nil))
			return
		}

		c.Set(GinContextKeyUserID, claims.UserID)
		c.Next()
	}
}

func GetUserIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(GinContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

func abortWith(c *gin.Context, appErr *apperror.AppError) {
	c.AbortWithStatusJSON(apperror.ToHTTPStatus(appErr), appErr.ToJSON())
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
// Internal causes are logged, never returned.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unhandled error", err)
		}
		status := apperror.ToHTTPStatus(err)

		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err,
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString(GinContextKeyRequestID)),
			)
		}
		c.JSON(status, appErr.ToJSON())
	}
}

// RequestID accepts a caller supplied X-Request-ID or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = xid.New().String()
		}
		c.Set(GinContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", c.GetString(GinContextKeyRequestID)),
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
		}
		if userID, ok := GetUserIDFromGinContext(c); ok {
			fields = append(fields, zap.String("user_id", userID.String()))
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", nil, fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func CORS(frontendURL string) gin.HandlerFunc {
	origins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	for _, o := range strings.Split(frontendURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", HeaderRequestID},
		ExposeHeaders:    []string{HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
