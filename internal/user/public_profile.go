package user

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// GET /users/:id/profile
func (h *Handler) GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	ctx := c.Request().Context()
	p, err := h.store.Profile(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
	}
	if err != nil {
		h.log.Error("profile lookup failed", "user_id", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}

	rating, err := h.ratings.UserRating(ctx, userID)
	if err != nil {
		h.log.Error("rating lookup failed", "user_id", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch rating"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"profile": p,
		"rating":  rating,
	})
}
