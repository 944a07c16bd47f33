package alerts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gigledger/internal/logger"
)

type Handler struct {
	store Store
	log   *logger.Logger
}

func NewHandler(store Store, baseLog *logger.Logger) *Handler {
	return &Handler{store: store, log: baseLog.With("handler", "notifications")}
}

// ListNotifications returns current user's notifications, newest first
func (h *Handler) ListNotifications(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	limit := 50
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}
	unreadOnly := c.QueryParam("unread") == "true"

	items, err := h.store.ListNotifications(c.Request().Context(), userID, unreadOnly, limit)
	if err != nil {
		h.log.Error("list notifications failed", "user_id", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load notifications"})
	}
	if items == nil {
		items = []Notification{}
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": items})
}

// MarkNotificationRead marks specific notification as read
func (h *Handler) MarkNotificationRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	nid := c.Param("id")
	if nid == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing notification id"})
	}

	err := h.store.MarkRead(c.Request().Context(), userID, nid)
	if errors.Is(err, ErrNotificationNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found or already read"})
	}
	if err != nil {
		h.log.Error("mark notification failed", "user_id", userID, "id", nid, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}
