// Package auth backs the admin login: bcrypt credential checks and cookie
// sessions guarding the management API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"arbor/internal/domain"
)

var (
	// ErrInvalidCredentials is returned when username/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	sessionName    = "arbor_admin"
	sessionUserKey = "username"
	// ContextUserKey carries the logged-in admin's username through gin.
	ContextUserKey = "admin_user"
)

type userRepo interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Service authenticates admin users and manages their sessions.
type Service struct {
	users userRepo
	store *sessions.CookieStore
}

// New builds the service. An empty sessionKey falls back to a generated
// ephemeral key; sessions then reset on every restart.
func New(users userRepo, sessionKey string, logger *log.Logger) (*Service, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	key := []byte(sessionKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("generate session key")
		}
		logger.Printf("auth: SESSION_KEY not set, using an ephemeral key; sessions reset on restart")
	} else if len(key) < 32 {
		return nil, errors.New("session key must be at least 32 characters long")
	}
	store := sessions.NewCookieStore(key)
	store.Options.HttpOnly = true
	store.Options.Path = "/"
	store.Options.SameSite = http.SameSiteLaxMode
	return &Service{users: users, store: store}, nil
}

// Login verifies the credentials and writes the session cookie.
func (s *Service) Login(c *gin.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	session, _ := s.store.Get(c.Request, sessionName)
	session.Values[sessionUserKey] = user.Username
	session.Options.Secure = c.Request.URL.Scheme == "https" || c.Request.Header.Get("X-Forwarded-Proto") == "https"
	if err := session.Save(c.Request, c.Writer); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return user, nil
}

// Logout drops the session.
func (s *Service) Logout(c *gin.Context) error {
	session, _ := s.store.Get(c.Request, sessionName)
	delete(session.Values, sessionUserKey)
	session.Options.MaxAge = -1
	return session.Save(c.Request, c.Writer)
}

// Username returns the logged-in admin, or "" for requests without a valid
// session.
func (s *Service) Username(r *http.Request) string {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	username, _ := session.Values[sessionUserKey].(string)
	return username
}

// Middleware rejects requests without an admin session.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := s.Username(c.Request)
		if username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		c.Set(ContextUserKey, username)
		c.Next()
	}
}

// HashPassword returns the bcrypt hash stored for admin users.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
