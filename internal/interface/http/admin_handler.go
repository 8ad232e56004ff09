package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/invest-payout-engine/internal/application"
	"github.com/oksasatya/invest-payout-engine/pkg/response"
	"github.com/oksasatya/invest-payout-engine/pkg/validation"
)

// AdminHandler serves the administrative control surface. Role checks happen
// in middleware; every operation goes through the lifecycle engine.
type AdminHandler struct {
	Svc    *application.InvestmentService
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.InvestmentService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *AdminHandler) audit(c *gin.Context, action, investmentID string) {
	if h.Logger == nil {
		return
	}
	h.Logger.WithFields(logrus.Fields{
		"admin_id":      c.GetString("userID"),
		"action":        action,
		"investment_id": investmentID,
		"ip":            c.GetString("real_ip"),
		"request_id":    c.GetString("request_id"),
	}).Info("admin action")
}

func (h *AdminHandler) ListInvestments(c *gin.Context) {
	invs, err := h.Svc.ListAllInvestments(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, invs, "investments", map[string]any{"count": len(invs)})
}

// SearchInvestments GET /api/admin/investments/search?q=&size=
func (h *AdminHandler) SearchInvestments(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	res, err := h.Svc.SearchInvestments(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, res, "search results", map[string]any{"count": len(res)})
}

func (h *AdminHandler) ListAccounts(c *gin.Context) {
	accts, err := h.Svc.ListAllAccounts(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, accts, "accounts", map[string]any{"count": len(accts)})
}

func (h *AdminHandler) ProcessPayout(c *gin.Context) {
	id := c.Param("id")
	res, err := h.Svc.ProcessMonthlyPayout(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.audit(c, "payout", id)
	response.Success(c, http.StatusOK, res, "payout processed", nil)
}

func (h *AdminHandler) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	id := c.Param("id")
	inv, err := h.Svc.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.audit(c, "status:"+req.Status, id)
	response.Success(c, http.StatusOK, inv, "status updated", nil)
}

func (h *AdminHandler) ExportStatement(c *gin.Context) {
	id := c.Param("id")
	url, err := h.Svc.ExportStatement(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.audit(c, "statement", id)
	response.Success(c, http.StatusOK, gin.H{"url": url}, "statement exported", nil)
}

func (h *AdminHandler) SweepPayouts(c *gin.Context) {
	rep, err := h.Svc.SweepDuePayouts(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.audit(c, "sweep", "")
	response.Success(c, http.StatusOK, rep, "sweep finished", nil)
}

func (h *AdminHandler) Reconcile(c *gin.Context) {
	rep, err := h.Svc.Reconcile(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.audit(c, "reconcile", "")
	response.Success(c, http.StatusOK, rep, "ledger reconciled", nil)
}
