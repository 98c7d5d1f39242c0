package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"microloans-api/internal/usecase/approval"
)

type ApprovalHandler struct{ uc *approval.Usecase }

func NewApprovalHandler(uc *approval.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

func (h *ApprovalHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/api/loans/:loan_id/approve", Handler: h.ApproveLoan},
		{Method: http.MethodGet, Path: "/api/loans/:loan_id/approval", Handler: h.GetApproval},
		{Method: http.MethodGet, Path: "/api/approvals/:approval_id", Handler: h.GetApprovalByID},
	}
}

type approveLoanReq struct {
	PhotoURL            string `json:"photo_url"             validate:"required,url"`
	ValidatorEmployeeID string `json:"validator_employee_id" validate:"required,hex32"`
	// canonical date `YYYY-MM-DD` (schema column is DATE)
	ApprovalDate string `json:"approval_date"         validate:"required,datetime=2006-01-02"`
}

func (h *ApprovalHandler) ApproveLoan(c echo.Context) error {
	var req approveLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	// already checked by the datetime tag
	date, _ := time.Parse(time.DateOnly, req.ApprovalDate)

	dto, err := h.uc.Approve(c.Request().Context(), approval.ApproveInput{
		LoanID:              c.Param("loan_id"),
		PhotoURL:            req.PhotoURL,
		ValidatorEmployeeID: req.ValidatorEmployeeID,
		ApprovalDate:        date,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) GetApproval(c echo.Context) error {
	dto, err := h.uc.GetByLoanID(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) GetApprovalByID(c echo.Context) error {
	dto, err := h.uc.GetByApprovalID(c.Request().Context(), c.Param("approval_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
