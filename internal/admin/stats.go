package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gigledger/internal/marketplace"
)

// GET /admin/stats
func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.ledger.Stats(c.Request().Context())
	if err != nil {
		return marketplace.RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, stats)
}
