package cmd

import (
	"context"
	"fmt"

	"github.com/corpsite/corpsite-api/internal/config"
	"github.com/corpsite/corpsite-api/internal/database"
	"github.com/corpsite/corpsite-api/internal/enquiries"
	invservice "github.com/corpsite/corpsite-api/internal/investor/service"
	"github.com/corpsite/corpsite-api/internal/mail"
	"github.com/corpsite/corpsite-api/internal/oidc"
	"github.com/corpsite/corpsite-api/internal/pages"
	"github.com/corpsite/corpsite-api/internal/server"
	"github.com/corpsite/corpsite-api/internal/sessions"
	"github.com/corpsite/corpsite-api/internal/storage"
	"github.com/corpsite/corpsite-api/internal/tokens"
	"github.com/corpsite/corpsite-api/internal/users"
	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const mongoAttempts = 5

// app holds the wired services and whatever needs closing afterwards.
type app struct {
	cfg  *config.Config
	deps server.Deps
}

// openApp loads the configuration and connects the stores. MongoDB and Redis
// are optional; without them the in-memory implementations are used.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v storage=%s", cfg.KeycloakIssuer() != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Storage.Driver)

	a := &app{cfg: cfg}
	d := &a.deps
	d.Config = cfg

	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = client.Close()
		} else {
			d.Redis = client
			sessions.SetBlacklistClient(client)
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoAttempts)
		if err != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", mongoAttempts, err)
		} else {
			d.Mongo = client
		}
	}

	if d.Mongo != nil {
		db := d.Mongo.Database(cfg.MongoDB.Database)
		d.Users = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
		d.Investors = invservice.NewMongoService(db.Collection("investor_documents"))
		d.Pages = pages.NewService(pages.NewMongoRepository(db.Collection("pages")))
		d.Archive = enquiries.NewMongoArchive(db.Collection("enquiries"))
	} else {
		logger.Warn("MongoDB unavailable: content is kept in memory and lost on restart")
		d.Users = users.NewService(users.NewMemoryUserRepository())
		d.Investors = invservice.NewMemoryService()
		d.Pages = pages.NewService(pages.NewMemoryRepository())
		d.Archive = enquiries.NewMemoryArchive()
	}

	// Redis sessions first, then Mongo, then memory
	switch {
	case d.Redis != nil:
		d.Sessions = sessions.NewService(sessions.NewRedisRepository(d.Redis, ""))
	case d.Mongo != nil:
		d.Sessions = sessions.NewService(sessions.NewMongoRepository(d.Mongo.Database(cfg.MongoDB.Database).Collection("sessions")))
	default:
		d.Sessions = sessions.NewService(sessions.NewMemoryRepository())
	}

	store, err := storage.FromConfig(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("storage: %w", err)
	}
	d.Store = store

	d.Access = tokens.NewVerifier(cfg.JWT.Secret)
	if issuer := cfg.KeycloakIssuer(); issuer != "" {
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			d.SSO = ver
		}
	}

	// a nil *SMTPMailer must not become a non-nil interface
	if m := mail.NewSMTPMailer(cfg.SMTP); m != nil {
		d.Mailer = m
	}

	logger.Debugf("services: mongo=%v redis=%v sso=%v mail=%v", d.Mongo != nil, d.Redis != nil, d.SSO != nil, d.Mailer != nil)
	return a, nil
}

// Close disconnects MongoDB and Redis.
func (a *app) Close(ctx context.Context) {
	if a.deps.Mongo != nil {
		if err := a.deps.Mongo.Disconnect(ctx); err != nil {
			logger.Warnf("mongo disconnect: %v", err)
		}
	}
	if a.deps.Redis != nil {
		sessions.SetBlacklistClient(nil)
		_ = a.deps.Redis.Close()
	}
}
