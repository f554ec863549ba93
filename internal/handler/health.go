package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness probes.  It deliberately touches neither the
// database nor Redis: the scheduler keeps serving cached reads when a
// backend is down, so the process being up is the only thing reported.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
