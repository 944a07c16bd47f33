package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type PostJobRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Budget      int64  `json:"budget"`
	Deadline    uint64 `json:"deadline"`
}

// POST /jobs
func (h *Handler) PostJob(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return unauthenticated(c)
	}
	var req PostJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	id, err := h.svc.PostJob(c.Request().Context(), caller, NewJob{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"job_id": id})
}

// GET /jobs?status=open&client=...&limit=&offset=
func (h *Handler) ListJobs(c echo.Context) error {
	f := JobFilter{
		Client: c.QueryParam("client"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	if raw := c.QueryParam("status"); raw != "" {
		status, ok := ParseJobStatus(raw)
		if !ok {
			return RespondError(c, h.log, reject(CodeInvalidInput, "list-jobs", "unknown status %q", raw))
		}
		f.Status = status
	}
	jobs, err := h.svc.ListJobs(c.Request().Context(), f)
	if err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"jobs": jobs})
}

// GET /jobs/:id
func (h *Handler) GetJob(c echo.Context) error {
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	job, found, err := h.svc.GetJob(c.Request().Context(), id)
	if err != nil {
		return RespondError(c, h.log, err)
	}
	if !found {
		return RespondError(c, h.log, reject(CodeJobNotFound, "get-job", "job %d not found", id))
	}
	return c.JSON(http.StatusOK, job)
}

// POST /jobs/:id/cancel
func (h *Handler) CancelJob(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	if err := h.svc.CancelJob(c.Request().Context(), id, caller); err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "job cancelled"})
}

type SubmitBidRequest struct {
	Amount   int64  `json:"amount"`
	Proposal string `json:"proposal"`
}

// POST /jobs/:id/bids
func (h *Handler) SubmitBid(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	var req SubmitBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.svc.SubmitBid(c.Request().Context(), id, caller, req.Amount, req.Proposal); err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "bid submitted"})
}

// GET /jobs/:id/bids
func (h *Handler) ListBids(c echo.Context) error {
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	bids, err := h.svc.ListBids(c.Request().Context(), id)
	if err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bids": bids})
}

// GET /jobs/:id/bids/:freelancer
func (h *Handler) GetBid(c echo.Context) error {
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	freelancer := c.Param("freelancer")
	bid, found, err := h.svc.GetBid(c.Request().Context(), id, freelancer)
	if err != nil {
		return RespondError(c, h.log, err)
	}
	if !found {
		return RespondError(c, h.log, reject(CodeBidNotFound, "get-bid", "no bid from %q on job %d", freelancer, id))
	}
	return c.JSON(http.StatusOK, bid)
}

type AcceptBidRequest struct {
	Freelancer string `json:"freelancer"`
}

// POST /jobs/:id/accept
func (h *Handler) AcceptBid(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	var req AcceptBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.svc.AcceptBid(c.Request().Context(), id, req.Freelancer, caller); err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "bid accepted"})
}

// POST /jobs/:id/complete
func (h *Handler) CompleteJob(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	if err := h.svc.CompleteJob(c.Request().Context(), id, caller); err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "job completed, escrow released"})
}

// GET /jobs/:id/escrow
func (h *Handler) EscrowBalance(c echo.Context) error {
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	balance, err := h.svc.EscrowBalance(c.Request().Context(), id)
	if err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"job_id": id, "balance": balance})
}

type OpenDisputeRequest struct {
	Reason string `json:"reason"`
}

// POST /jobs/:id/disputes
func (h *Handler) OpenDispute(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	var req OpenDisputeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	disputeID, err := h.svc.OpenDispute(c.Request().Context(), id, caller, req.Reason)
	if err != nil {
		return RespondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"dispute_id": disputeID})
}

// GET /disputes/:id
func (h *Handler) GetDispute(c echo.Context) error {
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, h.log, err)
	}
	d, found, err := h.svc.GetDispute(c.Request().Context(), id)
	if err != nil {
		return RespondError(c, h.log, err)
	}
	if !found {
		return RespondError(c, h.log, reject(CodeDisputeNotFound, "get-dispute", "dispute %d not found", id))
	}
	return c.JSON(http.StatusOK, d)
}
