package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	pkgauth "github.com/bucketcart/storefront-gateway/pkg/auth"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	"github.com/bucketcart/storefront-gateway/pkg/config"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
)

type stubCredClient struct {
	user  *backend.User
	err   error
	delay time.Duration
}

func (s *stubCredClient) Login(ctx context.Context, creds backend.Credentials) (*backend.User, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, ctx.Err(), "request timed out")
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *stubCredClient) Register(ctx context.Context, reg backend.Registration) (*backend.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubSessions struct {
	mu      sync.Mutex
	created map[string]string
	revoked []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{created: make(map[string]string)}
}

func (s *stubSessions) Create(ctx context.Context, accessID, backendToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created[accessID] = backendToken
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.created, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "bucketcart",
		ExpirationMinutes: 30,
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	t.Parallel()
	client := &stubCredClient{user: &backend.User{ID: "u1", Username: "asha", IsAdmin: true, Token: "backend-token"}}
	sessions := newStubSessions()
	svc, err := NewService(client, sessions, testJWTConfig(), 5*time.Second, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Login(context.Background(), backend.Credentials{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.User.Token != "" {
		t.Fatal("backend token leaked to the browser")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "u1" || !claims.IsAdmin {
		t.Fatalf("claims not propagated: %+v", claims)
	}

	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	if sessions.created[claims.ID] != "backend-token" {
		t.Fatalf("backend token not stored under jti %q", claims.ID)
	}
}

func TestLoginTimesOutDistinctly(t *testing.T) {
	t.Parallel()
	client := &stubCredClient{
		user:  &backend.User{ID: "u1", Token: "t"},
		delay: 2 * time.Second,
	}
	svc, err := NewService(client, newStubSessions(), testJWTConfig(), 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	start := time.Now()
	_, err = svc.Login(context.Background(), backend.Credentials{Email: "a@b.c", Password: "pw"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("login did not honor its deadline")
	}
}

func TestLoginRejectsBlankCredentials(t *testing.T) {
	t.Parallel()
	svc, err := NewService(&stubCredClient{}, newStubSessions(), testJWTConfig(), time.Second, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Login(context.Background(), backend.Credentials{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginRejectsMissingBackendToken(t *testing.T) {
	t.Parallel()
	client := &stubCredClient{user: &backend.User{ID: "u1"}}
	svc, err := NewService(client, newStubSessions(), testJWTConfig(), time.Second, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Login(context.Background(), backend.Credentials{Email: "a@b.c", Password: "pw"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()
	sessions := newStubSessions()
	svc, err := NewService(&stubCredClient{}, sessions, testJWTConfig(), time.Second, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("second logout must be harmless: %v", err)
	}
	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	if len(sessions.revoked) != 2 {
		t.Fatalf("expected revoke calls, got %d", len(sessions.revoked))
	}
}
