package api

import (
	"github.com/labstack/echo/v4"

	"loan-approval-service/internal/entity"
	"loan-approval-service/internal/session"
)

// PageData is what every template receives.
type PageData struct {
	Session       *session.Session
	Flashes       []Flash
	Stats         entity.LoanStats
	Loans         []*entity.Loan
	Prediction    string
	SubmissionKey string
	Form          map[string]string
}

// render fills in the session and pending flashes, then renders the page.
func render(c echo.Context, code int, name string, data PageData) error {
	if s, ok := session.FromContext(c); ok {
		data.Session = s
	}
	data.Flashes = append(popFlashes(c), data.Flashes...)
	return c.Render(code, name, data)
}

func About(c echo.Context) error {
	return render(c, 200, "about", PageData{})
}

func Contact(c echo.Context) error {
	return render(c, 200, "contact", PageData{})
}

// PersonalAI is a placeholder page for signed-in users.
func PersonalAI(c echo.Context) error {
	return render(c, 200, "personal_ai", PageData{})
}
