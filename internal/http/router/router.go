package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apphttp "minimusiker_backend/internal/http"
	"minimusiker_backend/internal/http/middleware"
	"minimusiker_backend/platform/httpkit"
)

// New builds the gin engine with shared middleware, role namespaces and
// every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))
	if app.Metrics != nil {
		engine.Use(middleware.RequestMetrics(app.Metrics))
		engine.GET("/metrics", gin.WrapH(app.Metrics.Handler()))
	}

	engine.GET("/health", func(c *gin.Context) {
		if app.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := app.Health.Ping(ctx); err != nil {
				httpkit.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
				return
			}
		}
		httpkit.OK(c, gin.H{"status": "ok"})
	})

	limiter := httpkit.NewIPRateLimiter(rate.Limit(20), 40, app.Logger)
	api := engine.Group("/api")
	api.Use(limiter.RateLimit())

	cfg := app.Config
	ctx := &apphttp.RouterContext{
		Engine:   engine,
		API:      api,
		Admin:    api.Group("/admin", httpkit.AuthRequired(cfg, httpkit.RoleAdmin)),
		Teacher:  api.Group("/teacher", httpkit.AuthRequired(cfg, httpkit.RoleTeacher)),
		Parent:   api.Group("/parent", httpkit.AuthRequired(cfg, httpkit.RoleParent)),
		Staff:    api.Group("/staff", httpkit.AuthRequired(cfg, httpkit.RoleStaff)),
		Engineer: api.Group("/engineer", httpkit.AuthRequired(cfg, httpkit.RoleEngineer)),
		Webhooks: api.Group("/webhooks"),
		Config:   cfg,
	}

	for _, m := range app.Modules {
		m.RegisterRoutes(ctx)
		app.Logger.Info("module registered", "module", m.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = cfg.GetCORSOrigins()
	}
	return c
}
