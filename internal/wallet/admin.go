package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminUserTransactions returns the movements of any user. Mounted under the owner-only group.
func (h *Handler) AdminUserTransactions(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}
	return h.listTransactions(c, userID)
}
