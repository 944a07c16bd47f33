package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Me returns the currently authenticated account
func (h *Handler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	acc, err := h.accounts.AccountByID(c.Request().Context(), userID)
	if errors.Is(err, ErrAccountNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	return c.JSON(http.StatusOK, acc)
}
