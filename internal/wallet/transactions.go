package wallet

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const defaultTransactionLimit = 50

// Transactions returns the authenticated user's balance movements, newest first
func (h *Handler) Transactions(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized or invalid user"})
	}
	return h.listTransactions(c, uid)
}

func (h *Handler) listTransactions(c echo.Context, userID string) error {
	limit := defaultTransactionLimit
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}

	txs, err := h.store.Transactions(c.Request().Context(), userID, limit)
	if err != nil {
		h.log.Error("transactions lookup failed", "user_id", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	if txs == nil {
		txs = []Entry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}
