package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgauth "github.com/bucketcart/storefront-gateway/pkg/auth"
	"github.com/bucketcart/storefront-gateway/pkg/auth/session"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	"github.com/bucketcart/storefront-gateway/pkg/config"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

type credentialClient interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.User, error)
	Register(ctx context.Context, reg backend.Registration) (*backend.User, error)
}

type sessionWriter interface {
	Create(ctx context.Context, accessID, backendToken string) error
	Revoke(ctx context.Context, accessID string) error
}

// Session is the authenticated result handed to the browser. AccessToken is
// the gateway's own JWT; the backend token stays server-side.
type Session struct {
	AccessToken string        `json:"accessToken"`
	User        *backend.User `json:"user"`
}

// Service proxies authentication to the backend and owns the gateway session.
type Service interface {
	Login(ctx context.Context, creds backend.Credentials) (*Session, error)
	Register(ctx context.Context, reg backend.Registration) (*Session, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	client       credentialClient
	sessions     sessionWriter
	jwtCfg       config.JWTConfig
	loginTimeout time.Duration
	logg         *logger.Logger
	now          func() time.Time
}

// NewService wires the auth dependencies.
func NewService(client credentialClient, sessions sessionWriter, jwtCfg config.JWTConfig, loginTimeout time.Duration, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session writer required")
	}
	if loginTimeout <= 0 {
		return nil, fmt.Errorf("login timeout must be positive")
	}
	return &service{
		client:       client,
		sessions:     sessions,
		jwtCfg:       jwtCfg,
		loginTimeout: loginTimeout,
		logg:         logg,
		now:          time.Now,
	}, nil
}

// Login authenticates against the backend under a hard deadline. A backend
// that hangs past the deadline surfaces as a timeout, not a generic failure,
// so the storefront can say so.
func (s *service) Login(ctx context.Context, creds backend.Credentials) (*Session, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	loginCtx, cancel := context.WithTimeout(ctx, s.loginTimeout)
	defer cancel()

	user, err := s.client.Login(loginCtx, creds)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, user)
}

func (s *service) Register(ctx context.Context, reg backend.Registration) (*Session, error) {
	if strings.TrimSpace(reg.Email) == "" || reg.Password == "" || strings.TrimSpace(reg.Username) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username, email and password are required")
	}

	user, err := s.client.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, user)
}

// Logout revokes the session. Logging out twice is harmless.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) establish(ctx context.Context, user *backend.User) (*Session, error) {
	if user == nil || strings.TrimSpace(user.Token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeAuth, "backend returned no session token")
	}

	accessID := session.NewAccessID()
	signed, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
		JTI:     accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if err := s.sessions.Create(ctx, accessID, user.Token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store session")
	}

	// The backend token never reaches the browser.
	sanitized := *user
	sanitized.Token = ""

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID), "session established")
	}
	return &Session{AccessToken: signed, User: &sanitized}, nil
}
