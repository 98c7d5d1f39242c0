package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"microloans-api/internal/usecase/stats"
)

type StatsHandler struct{ uc *stats.Usecase }

func NewStatsHandler(uc *stats.Usecase) *StatsHandler { return &StatsHandler{uc: uc} }

func (h *StatsHandler) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/api/stats", Handler: h.GetStats}}
}

func (h *StatsHandler) GetStats(c echo.Context) error {
	out, err := h.uc.Summary(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
