package http

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Pagination bounds list endpoints.
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

var (
	errInvalidLimit  = errors.New("limit must be a positive integer")
	errInvalidOffset = errors.New("offset must be a non-negative integer")
)

// page reads ?limit and ?offset. A limit above MaxLimit is clamped.
func (p Pagination) page(c echo.Context) (limit, offset int, err error) {
	limit = p.DefaultLimit
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return 0, 0, errInvalidLimit
		}
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errInvalidOffset
		}
	}
	return limit, offset, nil
}
