package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/gigledger/internal/logger"
)

const minPasswordLen = 6

type Handler struct {
	accounts AccountStore
	secret   []byte
	ttl      time.Duration
	log      *logger.Logger
}

func NewHandler(accounts AccountStore, secret string, ttl time.Duration, baseLog *logger.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		secret:   []byte(secret),
		ttl:      ttl,
		log:      baseLog.With("handler", "auth"),
	}
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// ===== Signup =====
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || !strings.Contains(req.Email, "@") || len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, valid email and a password of at least 6 characters are required"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	acc := Account{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         RoleMember,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.accounts.CreateAccount(c.Request().Context(), acc); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		h.log.Error("create account failed", "email", req.Email, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create account"})
	}

	signed, err := IssueToken(h.secret, acc.ID, acc.Role, h.ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	h.log.Info("account created", "user_id", acc.ID)

	return c.JSON(http.StatusCreated, TokenResponse{Token: signed, UserID: acc.ID})
}
