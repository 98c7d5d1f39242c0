package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"microloans-api/internal/domain/approval"
	"microloans-api/internal/domain/borrower"
	"microloans-api/internal/domain/loan"
	borrowerUC "microloans-api/internal/usecase/borrower"
	loanUC "microloans-api/internal/usecase/loan"
)

const msgStorageUnavailable = "storage unavailable"

var errorCodes = []struct {
	err  error
	code int
}{
	{loan.ErrNotFound, http.StatusNotFound},
	{borrower.ErrNotFound, http.StatusNotFound},
	{approval.ErrNotFound, http.StatusNotFound},
	{loan.ErrPendingLoanExists, http.StatusConflict},
	{loan.ErrAlreadyApproved, http.StatusConflict},
	{loan.ErrInvalidTransition, http.StatusConflict},
	{loanUC.ErrInvalidInput, http.StatusUnprocessableEntity},
	{borrowerUC.ErrInvalidInput, http.StatusUnprocessableEntity},
	{loanUC.ErrInvalidStatus, http.StatusBadRequest},
}

// writeError maps use case errors onto HTTP codes. Anything unknown came
// from the store; it is handed to the error handler as a 503 so it gets logged.
func writeError(c echo.Context, err error) error {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return c.JSON(m.code, ErrorResponse{Error: err.Error()})
		}
	}
	return echo.NewHTTPError(http.StatusServiceUnavailable, msgStorageUnavailable).SetInternal(err)
}

// NewHTTPErrorHandler renders every error Echo surfaces (404, 405, timeouts,
// recovered panics) as an ErrorResponse.
func NewHTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, ErrorResponse{Error: msg})
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}
