package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"loan-approval-service/internal/cache"
	"loan-approval-service/internal/config"
	"loan-approval-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var ErrNoSession = errors.New("no active session")

// Session is the server-side record of a logged-in user.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Claims is the payload of the session cookie. It only carries the id of
// the server-side record.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager issues, resolves and destroys sessions.
type Manager struct {
	store      cache.Store
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

func NewManager(store cache.Store, cfg config.SessionConfig) *Manager {
	return &Manager{
		store:      store,
		secret:     []byte(cfg.Secret),
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		now:        time.Now,
	}
}

func key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create stores a new session for the user and returns it with the signed
// cookie token.
func (m *Manager) Create(ctx context.Context, user *entity.User) (*Session, string, error) {
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: m.now().UTC(),
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, "", err
	}
	if err := m.store.Set(ctx, key(s.ID), string(data), m.ttl); err != nil {
		return nil, "", fmt.Errorf("store session: %w", err)
	}

	token, err := m.sign(s)
	if err != nil {
		_ = m.store.Delete(ctx, key(s.ID))
		return nil, "", err
	}
	return s, token, nil
}

func (m *Manager) sign(s *Session) (string, error) {
	now := m.now()
	claims := &Claims{
		SessionID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(s.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Get loads a stored session. Missing or expired records return ErrNoSession.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	data, err := m.store.Get(ctx, key(id))
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// Destroy removes the stored session. Unknown ids are not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	return m.store.Delete(ctx, key(id))
}

// Cookie wraps a session token for the response.
func (m *Manager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie clears the session cookie in the browser.
func (m *Manager) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}
