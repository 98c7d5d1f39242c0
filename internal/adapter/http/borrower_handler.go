package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"microloans-api/internal/usecase/borrower"
)

type BorrowerHandler struct {
	uc   *borrower.Usecase
	page Pagination
}

func NewBorrowerHandler(uc *borrower.Usecase, page Pagination) *BorrowerHandler {
	return &BorrowerHandler{uc: uc, page: page}
}

func (h *BorrowerHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/api/borrowers", Handler: h.ListBorrowers},
		{Method: http.MethodPost, Path: "/api/borrowers", Handler: h.CreateBorrower},
		{Method: http.MethodGet, Path: "/api/borrowers/:borrower_id", Handler: h.GetBorrower},
	}
}

type createBorrowerReq struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Region   string `json:"region"    validate:"max=64"`
}

func (h *BorrowerHandler) CreateBorrower(c echo.Context) error {
	var req createBorrowerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Create(c.Request().Context(), borrower.CreateBorrowerInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *BorrowerHandler) GetBorrower(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("borrower_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *BorrowerHandler) ListBorrowers(c echo.Context) error {
	limit, offset, err := h.page.page(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	out, err := h.uc.List(c.Request().Context(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
