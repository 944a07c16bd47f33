package wallet

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Withdraw debits the caller's wallet immediately. Funds held in escrow are not part
// of the wallet balance and cannot be withdrawn.
func (h *Handler) Withdraw(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized or invalid user"})
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be greater than zero"})
	}

	entry := NewEntry(uid, -req.Amount, KindWithdrawal, "")
	balance, err := h.store.Apply(c.Request().Context(), entry)
	if errors.Is(err, ErrInsufficientBalance) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient balance"})
	}
	if err != nil {
		h.log.Error("withdrawal failed", "user_id", uid, "amount", req.Amount, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not process withdrawal"})
	}
	h.log.Info("wallet withdrawal", "user_id", uid, "amount", req.Amount, "entry_id", entry.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "withdrawal successful",
		"entry_id": entry.ID,
		"balance":  balance,
	})
}
