package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"loan-approval-service/internal/service"
	"loan-approval-service/internal/session"
)

type UserHandler struct {
	userService *service.UserService
	sessions    *session.Manager
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(userService *service.UserService, sessions *session.Manager) *UserHandler {
	return &UserHandler{userService: userService, sessions: sessions}
}

// Index shows the landing page, or sends signed-in users home --> /
func (h *UserHandler) Index(c echo.Context) error {
	if _, ok := session.FromContext(c); ok {
		return c.Redirect(http.StatusFound, "/home")
	}
	return render(c, http.StatusOK, "index", PageData{})
}

// SignupForm --> GET /signup
func (h *UserHandler) SignupForm(c echo.Context) error {
	return render(c, http.StatusOK, "signup", PageData{})
}

// Signup creates a new user --> POST /signup
func (h *UserHandler) Signup(c echo.Context) error {
	name, email := c.FormValue("name"), c.FormValue("email")

	_, err := h.userService.Signup(c.Request().Context(), name, email, c.FormValue("password"))
	switch {
	case err == nil:
		addFlash(c, "success", "Signup successful! Please login.")
		return c.Redirect(http.StatusFound, "/login")
	case errors.Is(err, service.ErrEmailExists):
		return render(c, http.StatusOK, "signup", PageData{
			Flashes: []Flash{{Category: "danger", Message: "Email already exists!"}},
			Form:    map[string]string{"name": name, "email": email},
		})
	case errors.Is(err, service.ErrMissingFields):
		return render(c, http.StatusBadRequest, "signup", PageData{
			Flashes: []Flash{{Category: "danger", Message: "All fields are required!"}},
			Form:    map[string]string{"name": name, "email": email},
		})
	case errors.Is(err, service.ErrFieldTooLong):
		return render(c, http.StatusBadRequest, "signup", PageData{
			Flashes: []Flash{{Category: "danger", Message: "Name or email is too long!"}},
		})
	case errors.Is(err, service.ErrPasswordTooLong):
		return render(c, http.StatusBadRequest, "signup", PageData{
			Flashes: []Flash{{Category: "danger", Message: "Password must be at most 72 bytes!"}},
			Form:    map[string]string{"name": name, "email": email},
		})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
}

// LoginForm --> GET /login
func (h *UserHandler) LoginForm(c echo.Context) error {
	return render(c, http.StatusOK, "login", PageData{})
}

// Login starts a session --> POST /login
func (h *UserHandler) Login(c echo.Context) error {
	user, err := h.userService.Login(c.Request().Context(), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			addFlash(c, "danger", "Invalid email or password!")
			return c.Redirect(http.StatusFound, "/login")
		}
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	if _, err := h.sessions.Login(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return c.Redirect(http.StatusFound, "/home")
}

// Logout ends the session --> /logout
func (h *UserHandler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c); err != nil {
		logger.Warn().Err(err).Msg("Error destroying session")
	}
	return c.Redirect(http.StatusFound, "/login")
}

// Profile --> /profile
func (h *UserHandler) Profile(c echo.Context) error {
	return render(c, http.StatusOK, "profile", PageData{})
}
