package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"loan-approval-service/internal/config"
	"loan-approval-service/internal/service"
	"loan-approval-service/internal/session"
	"loan-approval-service/web"
)

// Deps is everything the router needs.
type Deps struct {
	Users     *service.UserService
	Loans     *service.LoanService
	Sessions  *session.Manager
	RateLimit config.RateLimitConfig
}

// NewServer builds the echo instance with middleware and every route.
func NewServer(d Deps) (*echo.Echo, error) {
	renderer, err := NewRenderer(web.Templates)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(d.Sessions.Middleware())

	users := NewUserHandler(d.Users, d.Sessions)
	loans := NewLoanHandler(d.Loans)
	limit := authLimiter(d.RateLimit)

	e.GET("/", users.Index)
	e.GET("/signup", users.SignupForm)
	e.POST("/signup", users.Signup, limit)
	e.GET("/login", users.LoginForm)
	e.POST("/login", users.Login, limit)
	e.GET("/logout", users.Logout)
	e.GET("/about", About)
	e.GET("/contact", Contact)
	e.GET("/healthz", Health)

	auth := session.RequireLogin
	e.GET("/home", loans.Home, auth)
	e.GET("/profile", users.Profile, auth)
	e.GET("/loan_history", loans.History, auth)
	e.GET("/apply_loan", loans.ApplyForm, auth)
	e.POST("/apply_loan", loans.Apply, auth)
	e.GET("/personal_ai", PersonalAI, auth)

	return e, nil
}

// authLimiter throttles credential submissions per client. A non-positive
// rate disables it.
func authLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Rate <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.Rate),
				Burst:     cfg.Burst,
				ExpiresIn: cfg.ExpiresIn,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.String(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.String(http.StatusTooManyRequests, "Too many attempts, please try again later.")
		},
	})
}
