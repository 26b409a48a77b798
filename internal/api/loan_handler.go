package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"loan-approval-service/internal/entity"
	"loan-approval-service/internal/service"
	"loan-approval-service/internal/session"
)

type LoanHandler struct {
	loanService *service.LoanService
}

func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// Home shows the dashboard with the user's decision counts --> /home
func (h *LoanHandler) Home(c echo.Context) error {
	s, _ := session.FromContext(c)
	stats, err := h.loanService.Stats(c.Request().Context(), s.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return render(c, http.StatusOK, "home", PageData{Stats: stats})
}

// History lists the user's applications --> /loan_history
func (h *LoanHandler) History(c echo.Context) error {
	ctx := c.Request().Context()
	s, _ := session.FromContext(c)

	loans, err := h.loanService.History(ctx, s.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	stats, err := h.loanService.Stats(ctx, s.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return render(c, http.StatusOK, "loan_history", PageData{Loans: loans, Stats: stats})
}

// ApplyForm renders the application form with a fresh submission key --> GET /apply_loan
func (h *LoanHandler) ApplyForm(c echo.Context) error {
	return render(c, http.StatusOK, "apply_loan", PageData{SubmissionKey: uuid.NewString()})
}

// Apply predicts and stores an application --> POST /apply_loan
func (h *LoanHandler) Apply(c echo.Context) error {
	s, _ := session.FromContext(c)
	app := entity.ParseLoanApplication(c.FormValue)

	loan, err := h.loanService.Apply(c.Request().Context(), s.UserID, app, c.FormValue("submission_key"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateSubmission):
			return render(c, http.StatusConflict, "apply_loan", PageData{
				Flashes:       []Flash{{Category: "warning", Message: "This application was already submitted."}},
				SubmissionKey: uuid.NewString(),
			})
		case errors.Is(err, entity.ErrFieldTooLong):
			return render(c, http.StatusBadRequest, "apply_loan", PageData{
				Flashes:       []Flash{{Category: "danger", Message: "One of the fields is too long."}},
				SubmissionKey: uuid.NewString(),
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	return render(c, http.StatusOK, "apply_loan", PageData{
		Prediction:    entity.StatusText(loan.LoanStatus),
		SubmissionKey: uuid.NewString(),
	})
}
