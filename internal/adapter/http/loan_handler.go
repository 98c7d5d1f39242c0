package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"microloans-api/internal/usecase/loan"
)

type LoanHandler struct {
	uc   *loan.Usecase
	page Pagination
}

func NewLoanHandler(uc *loan.Usecase, page Pagination) *LoanHandler {
	return &LoanHandler{uc: uc, page: page}
}

func (h *LoanHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/api/loans", Handler: h.ListLoans},
		{Method: http.MethodPost, Path: "/api/loans", Handler: h.CreateLoan},
		{Method: http.MethodGet, Path: "/api/loans/:loan_id", Handler: h.GetLoan},
	}
}

type createLoanReq struct {
	BorrowerID string  `json:"borrower_id" validate:"required,hex32"`
	Amount     float64 `json:"amount"      validate:"required,gt=0,dec2"`
	Rate       float64 `json:"rate"        validate:"gte=0,lte=1,dec4"`
	ROI        float64 `json:"roi"         validate:"gte=0,lte=1,dec4"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	limit, offset, err := h.page.page(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	out, err := h.uc.List(c.Request().Context(), loan.ListInput{
		Limit:      limit,
		Offset:     offset,
		Status:     c.QueryParam("status"),
		BorrowerID: c.QueryParam("borrower_id"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
