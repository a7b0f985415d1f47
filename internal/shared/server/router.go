package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"audit-backend/internal/audits"
	"audit-backend/internal/shared/config"
	"audit-backend/internal/shared/metrics"
	"audit-backend/internal/shared/server/middleware"
	"audit-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config       config.Config
	AuditHandler *audits.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: "DEFAULT",
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/audits/:id" {
					return "POLLING"
				}
				return "DEFAULT"
			},
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: 2, Burst: 10},
				"POLLING": {Rate: 10, Burst: 30},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.AuditHandler != nil {
		deps.AuditHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
