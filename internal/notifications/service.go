package notifications

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

// Level classifies a notification for the storefront toast area.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient per-user message. Notifications live only for
// the process lifetime, like the toasts they replace.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Sound     string    `json:"sound,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

// Notifier is the write-side surface injected into other services.
// AdminFeed is the shared audience for back-office alerts.
const AdminFeed = "admin"

type Notifier interface {
	Notify(ctx context.Context, userID string, level Level, message string)
	NotifyWithSound(ctx context.Context, userID string, level Level, message, sound string)
}

// Service adds the read side used by the notifications endpoints.
type Service interface {
	Notifier
	List(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

const perUserCap = 50

type service struct {
	mu    sync.Mutex
	byUID map[string][]Notification
	logg  *logger.Logger
}

// NewService builds an in-memory notification feed.
func NewService(logg *logger.Logger) Service {
	return &service{
		byUID: make(map[string][]Notification),
		logg:  logg,
	}
}

func (s *service) Notify(ctx context.Context, userID string, level Level, message string) {
	s.NotifyWithSound(ctx, userID, level, message, "")
}

// NotifyWithSound attaches an audio cue name the storefront plays once.
func (s *service) NotifyWithSound(ctx context.Context, userID string, level Level, message, sound string) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(message) == "" {
		return
	}

	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		Sound:     sound,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	queue := append(s.byUID[userID], n)
	if len(queue) > perUserCap {
		queue = queue[len(queue)-perUserCap:]
	}
	s.byUID[userID] = queue
	s.mu.Unlock()

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"notification_level": string(level),
			"user_id":            userID,
		})
		s.logg.Info(ctx, message)
	}
}

func (s *service) List(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, 0, len(s.byUID[userID]))
	for _, n := range s.byUID[userID] {
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	queue := s.byUID[userID]
	for i := range queue {
		if !queue[i].Read {
			queue[i].Read = true
			changed++
		}
	}
	return changed, nil
}
