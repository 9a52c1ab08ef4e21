package router

import (
	"net/http"
	"strings"
	"time"

	"casting-studio/backend/internal/api"
	"casting-studio/backend/pkg/config"
	apperrors "casting-studio/backend/pkg/errors"
	"casting-studio/backend/pkg/health"
	"casting-studio/backend/pkg/jwt"
	"casting-studio/backend/pkg/logger"
	"casting-studio/backend/pkg/middleware"
	"casting-studio/backend/pkg/redis"
	"casting-studio/backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Dependencies carries everything the HTTP surface needs
type Dependencies struct {
	Config     *config.Config
	Log        *logger.Logger
	Handler    *api.GenerationHandler
	JWTService *jwt.Service
	Redis      *redis.Client
	Health     *health.Checker
	Metrics    http.Handler
	// OpenAPISchema is the path to the request-validation schema.
	// Empty or unloadable schemas disable validation rather than fail startup.
	OpenAPISchema string
}

// New builds the gin engine with the full middleware chain and all routes
func New(deps Dependencies) *gin.Engine {
	if deps.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if len(deps.Config.Security.TrustedProxies) > 0 {
		if err := r.SetTrustedProxies(deps.Config.Security.TrustedProxies); err != nil {
			deps.Log.Warn("failed to set trusted proxies", "error", err)
		}
	}

	r.Use(logger.Middleware(deps.Log))
	r.Use(apperrors.RecoveryWithLogger())
	r.Use(apperrors.ErrorHandler())
	r.Use(corsMiddleware(deps.Config.Security.AllowedOrigins))

	// Validation must be attached before any route is registered: gin
	// snapshots a route's handler chain at registration time, so a
	// middleware added later never runs for existing routes.
	if deps.OpenAPISchema != "" {
		if v, err := validator.NewOpenAPIValidator(deps.OpenAPISchema); err != nil {
			deps.Log.Warn("OpenAPI schema not loaded, skipping request validation",
				"path", deps.OpenAPISchema, "error", err)
		} else {
			r.Use(v.Middleware())
		}
	}

	rateLimiter := middleware.NewRateLimiter(deps.Log, middleware.RateLimiterOptions{
		Limit:          rate.Limit(deps.Config.Security.RateLimit),
		Burst:          deps.Config.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})

	if deps.Health != nil {
		r.GET("/api/v1/health", gin.WrapF(deps.Health.HTTPHandler()))
	}
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	generate := deps.Handler.Generate
	generateAdvanced := deps.Handler.GenerateAdvanced

	// A typed nil pointer would defeat the middleware's nil check
	var idempotencyStore api.IdempotencyStore
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
	}
	idempotency := api.Idempotency(idempotencyStore, deps.Config.Features.IdempotencyTTL, deps.Log)

	v1 := r.Group("/api/v1/characters")
	v1.Use(middleware.OptionalAuth(deps.JWTService, deps.Log))
	v1.Use(rateLimiter.Middleware())
	{
		v1.POST("/generate", idempotency, generate)
		v1.POST("/generate-advanced", idempotency, generateAdvanced)
		v1.POST("/generate-batch", idempotency, deps.Handler.GenerateShots)
		v1.POST("/list", deps.Handler.ListCharacters)
	}

	// Legacy paths kept for clients still calling the old function URLs
	legacy := r.Group("/functions/v1")
	legacy.Use(middleware.OptionalAuth(deps.JWTService, deps.Log))
	legacy.Use(rateLimiter.Middleware())
	{
		legacy.POST("/generate-character", generate)
		legacy.POST("/generate-character-advanced", generateAdvanced)
		legacy.POST("/get-characters", deps.Handler.ListCharacters)
	}

	return r
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case originAllowed(origin, allowedOrigins):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, origin) {
			return true
		}
	}
	return false
}
