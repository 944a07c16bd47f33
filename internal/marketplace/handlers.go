package marketplace

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gigledger/internal/logger"
)

// Handler exposes the Service over HTTP. Routes are registered in cmd/api.
type Handler struct {
	svc *Service
	log *logger.Logger
}

func NewHandler(svc *Service, baseLog *logger.Logger) *Handler {
	return &Handler{svc: svc, log: baseLog.With("handler", "marketplace")}
}

// HTTPStatus maps a rejection code to its response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeJobNotFound, CodeBidNotFound, CodeDisputeNotFound:
		return http.StatusNotFound
	case CodeInvalidStatus, CodeAlreadyInitialized:
		return http.StatusConflict
	case CodeInsufficientFunds:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadRequest
	}
}

// RespondError writes a rejection as {"error", "code", "message"}; anything else is a 500.
func RespondError(c echo.Context, log *logger.Logger, err error) error {
	var mErr *Error
	if !errors.As(err, &mErr) {
		log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(HTTPStatus(mErr.Code), echo.Map{
		"error":   mErr.Code.String(),
		"code":    uint32(mErr.Code),
		"message": mErr.Message,
	})
}

func callerID(c echo.Context) (string, bool) {
	id, ok := c.Get("user_id").(string)
	return id, ok && id != ""
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// ParseID reads a positive numeric path parameter.
func ParseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, reject(CodeInvalidInput, "parse-"+name, "invalid %s %q", name, c.Param(name))
	}
	return id, nil
}

func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}

// GET /owner
func (h *Handler) Owner(c echo.Context) error {
	owner, err := h.svc.Owner(c.Request().Context())
	if err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"owner": owner, "initialized": owner != ""})
}

// GET /users/:id/rating
func (h *Handler) UserRating(c echo.Context) error {
	r, err := h.svc.UserRating(c.Request().Context(), c.Param("id"))
	if err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, r)
}

type RateJobRequest struct {
	Score int `json:"score"`
}

// POST /jobs/:id/rate
func (h *Handler) RateJob(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	var req RateJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.svc.RateJob(c.Request().Context(), id, caller, req.Score); err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "rating recorded"})
}
