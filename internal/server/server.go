// Package server assembles the gin engine from the configured services.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/corpsite/corpsite-api/handlers"
	"github.com/corpsite/corpsite-api/internal/config"
	"github.com/corpsite/corpsite-api/internal/enquiries"
	invhandler "github.com/corpsite/corpsite-api/internal/investor/handler"
	invservice "github.com/corpsite/corpsite-api/internal/investor/service"
	"github.com/corpsite/corpsite-api/internal/mail"
	"github.com/corpsite/corpsite-api/internal/pages"
	"github.com/corpsite/corpsite-api/internal/sessions"
	"github.com/corpsite/corpsite-api/internal/storage"
	"github.com/corpsite/corpsite-api/internal/users"
	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/corpsite/corpsite-api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// Deps are the collaborators the HTTP layer needs. Redis, Mongo, SSO and
// Mailer are optional.
type Deps struct {
	Config    *config.Config
	Redis     *redis.Client
	Mongo     *mongo.Client
	Users     *users.Service
	Sessions  *sessions.Service
	Access    middleware.Verifier
	SSO       middleware.Verifier
	Investors invservice.Service
	Pages     *pages.Service
	Store     storage.Store
	Archive   enquiries.Archive
	Mailer    mail.Mailer
}

// New builds the engine with every route mounted.
func New(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigin))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readiness(d))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	handlers.NewAuthHandler(cfg, d.Users, d.Sessions, d.Access, d.SSO).Register(r, limiter(d, "auth")...)
	invhandler.RegisterInvestorRoutes(r, d.Investors, d.Access)
	handlers.RegisterPageRoutes(r, d.Pages, d.Access)

	handlers.RegisterUploadRoutes(r, storage.NewUploader(d.Store, cfg.Storage.MaxUploadSize), cfg.Storage.MaxUploadSize, d.Access)
	if _, ok := d.Store.(*storage.LocalStore); ok {
		handlers.RegisterStoredFiles(r, d.Store)
	}

	handlers.NewContactHandler(d.Archive, d.Mailer).Register(r, limiter(d, "contact")...)
	handlers.NewDownloadProxy(cfg.Proxy).Register(r, limiter(d, "download")...)
	return r
}

// limiter returns the rate-limit middleware for scope, or nothing when disabled.
func limiter(d Deps, scope string) []gin.HandlerFunc {
	rl := d.Config.RateLimit
	if !rl.Enabled {
		return nil
	}
	if rl.UseRedis && d.Redis != nil {
		win := time.Duration(rl.WindowSeconds) * time.Second
		return []gin.HandlerFunc{middleware.RedisRateLimitMiddleware(d.Redis, scope, rl.RPS, rl.Burst, win)}
	}
	return []gin.HandlerFunc{middleware.RateLimitMiddleware(scope, rl.RPS, rl.Burst)}
}

// readiness reports 200 only when the configured dependencies answer.
func readiness(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ready := true
		deps := map[string]bool{
			"sessions": d.Sessions != nil,
			"users":    d.Users != nil,
			"storage":  d.Store != nil,
			"mail":     d.Mailer != nil,
		}
		if d.Sessions == nil || d.Users == nil || d.Store == nil {
			ready = false
		}
		if d.Config.MongoDB.URI != "" {
			deps["mongo"] = d.Mongo != nil && d.Mongo.Ping(ctx, nil) == nil
			ready = ready && deps["mongo"]
		}
		if d.Config.Redis.Host != "" {
			deps["redis"] = d.Redis != nil && d.Redis.Ping(ctx).Err() == nil
			ready = ready && deps["redis"]
		}
		if d.Config.KeycloakIssuer() != "" {
			deps["oidc"] = d.SSO != nil
			ready = ready && deps["oidc"]
		}
		uptime := time.Since(startTime).Round(time.Second).String()
		if !ready {
			logger.Warnf("readiness check failed: %v", deps)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	}
}
