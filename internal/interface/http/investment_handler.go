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

type InvestmentHandler struct {
	Svc    *application.InvestmentService
	Logger *logrus.Logger
}

func NewInvestmentHandler(svc *application.InvestmentService, logger *logrus.Logger) *InvestmentHandler {
	return &InvestmentHandler{Svc: svc, Logger: logger}
}

type createInvestmentRequest struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	PlanType string `json:"plan_type" binding:"omitempty,max=32"`
}

// Quote GET /api/plans/quote?amount=
func (h *InvestmentHandler) Quote(c *gin.Context) {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid amount", map[string]string{"amount": "must be an integer"})
		return
	}
	q, err := h.Svc.QuoteReturns(amount)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, q, "quote", map[string]any{"minimum_investment": h.Svc.MinInvestment})
}

func (h *InvestmentHandler) Create(c *gin.Context) {
	var req createInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	inv, err := h.Svc.CreateInvestment(c.Request.Context(), c.GetString("userID"), req.Amount, req.PlanType)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, inv, "investment created", nil)
}

func (h *InvestmentHandler) ListOwn(c *gin.Context) {
	invs, err := h.Svc.ListOwnInvestments(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, invs, "investments", map[string]any{"count": len(invs)})
}

func (h *InvestmentHandler) Dashboard(c *gin.Context) {
	d, err := h.Svc.GetDashboard(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, d, "dashboard", nil)
}
