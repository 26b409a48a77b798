package session

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"loan-approval-service/internal/entity"
)

const (
	tokenContextKey   = "session_token"
	sessionContextKey = "session"
)

// Middleware resolves the session cookie on every request. Requests without
// a valid cookie or stored record continue anonymously.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		SigningKey:  m.secret,
		TokenLookup: "cookie:" + m.cookieName,
		ContextKey:  tokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return nil
		},
		ContinueOnIgnoredError: true,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(func(c echo.Context) error {
			m.attach(c)
			return next(c)
		})
	}
}

func (m *Manager) attach(c echo.Context) {
	token, ok := c.Get(tokenContextKey).(*jwt.Token)
	if !ok || token == nil {
		return
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return
	}
	s, err := m.Get(c.Request().Context(), claims.SessionID)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logger.Error().Err(err).Msgf("Error loading session %s", claims.SessionID)
		}
		return
	}
	c.Set(sessionContextKey, s)
}

// RequireLogin redirects to /login unless the request carries a session.
func RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := FromContext(c); !ok {
			return c.Redirect(http.StatusFound, "/login")
		}
		return next(c)
	}
}

// FromContext returns the session attached by Middleware.
func FromContext(c echo.Context) (*Session, bool) {
	s, ok := c.Get(sessionContextKey).(*Session)
	return s, ok && s != nil
}

// Login starts a session for the user and sets the cookie.
func (m *Manager) Login(c echo.Context, user *entity.User) (*Session, error) {
	s, token, err := m.Create(c.Request().Context(), user)
	if err != nil {
		return nil, err
	}
	c.SetCookie(m.Cookie(token))
	c.Set(sessionContextKey, s)
	return s, nil
}

// Logout destroys the current session, if any, and clears the cookie.
func (m *Manager) Logout(c echo.Context) error {
	c.SetCookie(m.ExpiredCookie())
	s, ok := FromContext(c)
	if !ok {
		return nil
	}
	c.Set(sessionContextKey, nil)
	return m.Destroy(c.Request().Context(), s.ID)
}
