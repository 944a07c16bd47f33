package user

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
)

// RatingSource exposes the reputation shown on public profiles.
type RatingSource interface {
	UserRating(ctx context.Context, user string) (marketplace.Rating, error)
}

type Handler struct {
	store   Store
	ratings RatingSource
	log     *logger.Logger
}

func NewHandler(store Store, ratings RatingSource, baseLog *logger.Logger) *Handler {
	return &Handler{store: store, ratings: ratings, log: baseLog.With("handler", "user")}
}

type UpdateProfileRequest struct {
	Name       string `json:"name"`
	Bio        string `json:"bio"`
	Contact    string `json:"contact"`
	HourlyRate int64  `json:"hourly_rate"`
}

// PUT /users/me/profile
func (h *Handler) UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	p := Profile{
		UserID:     userID,
		Name:       strings.TrimSpace(req.Name),
		Bio:        strings.TrimSpace(req.Bio),
		Contact:    strings.TrimSpace(req.Contact),
		HourlyRate: req.HourlyRate,
	}
	if err := validateProfile(p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.store.SaveProfile(c.Request().Context(), p); err != nil {
		h.log.Error("save profile failed", "user_id", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated successfully"})
}

type UpdateSkillsRequest struct {
	Skills []string `json:"skills"`
}

// PUT /users/me/skills
func (h *Handler) UpdateSkills(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}

	var req UpdateSkillsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	skills, err := normalizeSkills(req.Skills)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.store.SaveSkills(c.Request().Context(), userID, skills); err != nil {
		h.log.Error("save skills failed", "user_id", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update skills"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "skills updated successfully", "skills": skills})
}
