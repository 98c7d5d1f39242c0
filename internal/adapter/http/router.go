package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Route binds one method and path to a handler.
type Route struct {
	Method     string
	Path       string
	Handler    echo.HandlerFunc
	Middleware []echo.MiddlewareFunc
}

// Blueprint is a group of routes mounted together.
type Blueprint interface {
	Routes() []Route
}

// Mount registers every blueprint's routes on e. writeMW is appended to the
// per-route middleware of non-GET routes.
func Mount(e *echo.Echo, writeMW []echo.MiddlewareFunc, blueprints ...Blueprint) {
	for _, bp := range blueprints {
		for _, r := range bp.Routes() {
			mw := r.Middleware
			if r.Method != http.MethodGet {
				mw = append(append([]echo.MiddlewareFunc{}, mw...), writeMW...)
			}
			e.Add(r.Method, r.Path, r.Handler, mw...)
		}
	}
}
