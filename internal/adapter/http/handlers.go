package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the health and index routes.
type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/health", Handler: h.Health},
		{Method: http.MethodGet, Path: "/", Handler: h.Index},
	}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type indexResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

func (h *Handler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, indexResponse{
		Message: "Welcome to Branch Loans API",
		Endpoints: map[string]string{
			"health":    "/health",
			"loans":     "/api/loans",
			"stats":     "/api/stats",
			"borrowers": "/api/borrowers",
		},
	})
}
