package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/midnightlabs/midnight/internal/core/ports"
)

type GateHandler struct {
	gate ports.GateService
}

func NewGateHandler(gate ports.GateService) *GateHandler {
	return &GateHandler{gate: gate}
}

// Decide returns the route decision for the current session. path
// defaults to "/".
//
// @Summary      Decide whether a route may render
// @Tags         gate
// @Produce      json
// @Param        path  query     string  false  "Route to check, e.g. /app/goals"
// @Success      200   {object}  domain.RouteDecision
// @Router       /api/gate [get]
func (h *GateHandler) Decide(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		path = "/"
	}
	return c.JSON(http.StatusOK, h.gate.Decide(path))
}
