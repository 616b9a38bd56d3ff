package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/corpsite/corpsite-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidRole        = errors.New("unknown role")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrNoRole             = errors.New("identity carries no CMS role")
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	cost int
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, cost: bcrypt.DefaultCost}
}

// Create adds a local account with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, username, email, name, role, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{Username: username, Email: email, Name: name, Role: role, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap administrator when no user exists yet.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, username, email, "Administrator", models.RoleAdmin, password); err != nil {
		return false, err
	}
	return true, nil
}

// UpsertFromClaims creates or updates an SSO user using OIDC claims map.
// Returns (nil, nil) when the claims have no subject.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	username, _ := claims["preferred_username"].(string)
	if sub == "" {
		return nil, nil
	}
	role := models.RoleFromClaims(claims)
	if role == "" {
		return nil, ErrNoRole
	}
	if username == "" {
		username = email
	}
	if username == "" {
		username = "sso:" + sub
	}
	u := &models.User{
		Sub:      sub,
		Username: username,
		Email:    email,
		Name:     name,
		Role:     role,
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}
