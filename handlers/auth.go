package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/corpsite/corpsite-api/internal/config"
	"github.com/corpsite/corpsite-api/internal/models"
	"github.com/corpsite/corpsite-api/internal/oidc"
	"github.com/corpsite/corpsite-api/internal/sessions"
	"github.com/corpsite/corpsite-api/internal/tokens"
	"github.com/corpsite/corpsite-api/internal/users"
	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/corpsite/corpsite-api/pkg/middleware"
	"github.com/gin-gonic/gin"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// LoginRequest covers both login modes: local password accounts and Keycloak SSO,
// where the frontend has already obtained an id_token.
type LoginRequest struct {
	Mode     string `json:"mode" binding:"required,oneof=password oidc"`
	Username string `json:"username"`
	Password string `json:"password"`
	IDToken  string `json:"id_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	access      middleware.Verifier
	sso         middleware.Verifier // nil when Keycloak is not configured
}

// NewAuthHandler wires the handler. access verifies our own access tokens;
// sso verifies Keycloak id_tokens and may be nil.
func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, access, sso middleware.Verifier) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, access: access, sso: sso}
}

// Register mounts /auth/* behind mw (rate limiting) and /api/v1/me.
func (h *AuthHandler) Register(rg gin.IRouter, mw ...gin.HandlerFunc) {
	a := rg.Group("/auth", mw...)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
	rg.GET("/api/v1/me", middleware.AuthMiddleware(h.access), h.Me)
}

func (h *AuthHandler) accessTTL() time.Duration {
	if h.cfg.JWT.AccessTokenTTL > 0 {
		return h.cfg.JWT.AccessTokenTTL
	}
	return defaultAccessTTL
}

func (h *AuthHandler) refreshTTL() time.Duration {
	if h.cfg.JWT.RefreshTokenTTL > 0 {
		return h.cfg.JWT.RefreshTokenTTL
	}
	return defaultRefreshTTL
}

// Login authenticates and returns an access/refresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	var u *models.User
	var err error
	switch req.Mode {
	case "password":
		u, err = h.usersSvc.Authenticate(ctx, req.Username, req.Password)
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
			return
		}
	case "oidc":
		if h.sso == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "SSO not configured"})
			return
		}
		if req.IDToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id_token required for oidc mode"})
			return
		}
		claims, verr := oidc.VerifyClaims(ctx, h.sso, req.IDToken)
		if verr != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token", "details": verr.Error()})
			return
		}
		u, err = h.usersSvc.UpsertFromClaims(ctx, claims)
		if errors.Is(err, users.ErrNoRole) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		if err == nil && u == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token", "details": "no subject"})
			return
		}
	}
	if err != nil {
		logger.Errorf("login (%s): %v", req.Mode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	refresh, err := h.sessionsSvc.CreateSession(ctx, u.ID, c.Request.UserAgent(), h.refreshTTL())
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.accessTTL())
	if err != nil {
		logger.Errorf("failed to create access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	logger.Infof("login: user=%s role=%s mode=%s", u.Username, u.Role, req.Mode)
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "refreshToken": refresh, "user": u, "expiresIn": int(h.accessTTL().Seconds())})
}

// Refresh rotates the refresh token and issues a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	next, sess, err := h.sessionsSvc.Rotate(ctx, req.RefreshToken, h.refreshTTL())
	if err != nil {
		logger.Errorf("refresh rotation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	u, err := h.usersSvc.GetByID(ctx, sess.Sub)
	if err != nil || u == nil {
		// the account is gone; do not leave the rotated session behind
		_ = h.sessionsSvc.DeleteRefresh(ctx, next)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.accessTTL())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "refreshToken": next, "expiresIn": int(h.accessTTL().Seconds())})
}

// Logout invalidates the refresh token and blacklists the presented access
// token for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if auth := c.GetHeader("Authorization"); auth != "" {
		var at string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &at); n == 1 {
			if err := h.blacklist(c, at); err != nil {
				logger.Errorf("blacklist access token: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
				return
			}
		}
	}
	if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// blacklist ignores tokens that do not verify; they are useless anyway.
func (h *AuthHandler) blacklist(c *gin.Context, raw string) error {
	tok, err := h.access.Verify(c.Request.Context(), raw)
	if err != nil {
		return nil
	}
	exp, err := tokens.ExpiresAt(tok)
	if err != nil {
		return nil
	}
	if ttl := time.Until(exp); ttl > 0 {
		return sessions.BlacklistAccessToken(c.Request.Context(), raw, ttl)
	}
	return nil
}

// Me returns the account behind the access token.
func (h *AuthHandler) Me(c *gin.Context) {
	sub, _ := middleware.Claims(c)["sub"].(string)
	u, err := h.usersSvc.GetByID(c.Request.Context(), sub)
	if err != nil {
		logger.Errorf("me: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
