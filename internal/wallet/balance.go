package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gigledger/internal/logger"
)

type Handler struct {
	store Store
	log   *logger.Logger
}

func NewHandler(store Store, baseLog *logger.Logger) *Handler {
	return &Handler{store: store, log: baseLog.With("handler", "wallet")}
}

// Balance returns the authenticated user's wallet balance
func (h *Handler) Balance(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	balance, err := h.store.Balance(c.Request().Context(), userID)
	if err != nil {
		h.log.Error("balance lookup failed", "user_id", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch wallet balance"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user_id": userID,
		"balance": balance,
	})
}
