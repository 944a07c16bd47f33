package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MaxTopup caps a single mock payment.
const MaxTopup int64 = 1_000_000_000_000

type TopupRequest struct {
	Amount int64 `json:"amount"`
}

type TopupResponse struct {
	EntryID string `json:"entry_id"`
	Balance int64  `json:"balance"`
	Message string `json:"message"`
}

// Topup credits the caller's wallet. Payment capture is mocked: the credit is immediate.
func (h *Handler) Topup(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(TopupRequest)
	if err := c.Bind(req); err != nil || req.Amount <= 0 || req.Amount > MaxTopup {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	entry := NewEntry(userID, req.Amount, KindTopup, "")
	balance, err := h.store.Apply(c.Request().Context(), entry)
	if err != nil {
		h.log.Error("topup failed", "user_id", userID, "amount", req.Amount, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not credit wallet"})
	}
	h.log.Info("wallet topped up", "user_id", userID, "amount", req.Amount, "entry_id", entry.ID)

	return c.JSON(http.StatusOK, TopupResponse{
		EntryID: entry.ID,
		Balance: balance,
		Message: "Topup credited",
	})
}
