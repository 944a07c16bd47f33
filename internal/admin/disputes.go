package admin

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gigledger/internal/marketplace"
)

// GET /admin/disputes?status=open&job_id=&limit=&offset=
func (h *Handler) ListDisputes(c echo.Context) error {
	f := marketplace.DisputeFilter{Status: marketplace.DisputeStatus(c.QueryParam("status"))}
	switch f.Status {
	case "", marketplace.DisputeOpen, marketplace.DisputeResolved:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be open or resolved"})
	}
	if raw := c.QueryParam("job_id"); raw != "" {
		jobID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job_id"})
		}
		f.JobID = jobID
	}
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	f.Offset, _ = strconv.Atoi(c.QueryParam("offset"))

	items, err := h.ledger.ListDisputes(c.Request().Context(), f)
	if err != nil {
		return marketplace.RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"disputes": items})
}

type ResolveDisputeRequest struct {
	FreelancerAmount *int64 `json:"freelancer_amount"`
}

// POST /admin/disputes/:id/resolve
func (h *Handler) ResolveDispute(c echo.Context) error {
	ownerID, ok := c.Get("user_id").(string)
	if !ok || ownerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := marketplace.ParseID(c, "id")
	if err != nil {
		return marketplace.RespondError(c, h.log, err)
	}
	var req ResolveDisputeRequest
	if err := c.Bind(&req); err != nil || req.FreelancerAmount == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload: freelancer_amount required"})
	}

	if err := h.ledger.ResolveDispute(c.Request().Context(), id, *req.FreelancerAmount, ownerID); err != nil {
		return marketplace.RespondError(c, h.log, err)
	}
	h.log.Info("dispute resolved via admin", "dispute_id", id, "owner", ownerID, "freelancer_amount", *req.FreelancerAmount)
	return c.JSON(http.StatusOK, echo.Map{"message": "dispute resolved"})
}
