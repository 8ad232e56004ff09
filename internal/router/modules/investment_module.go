package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/invest-payout-engine/internal/container"
	handlers "github.com/oksasatya/invest-payout-engine/internal/interface/http"
	"github.com/oksasatya/invest-payout-engine/internal/interface/middleware"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

// InvestmentModule wires the investor routes.
// Public: GET /api/plans/quote
// Protected: POST/GET /api/investments, GET /api/dashboard
type InvestmentModule struct {
	Handler  *handlers.InvestmentHandler
	Accounts middleware.AccountResolver
	JWT      *helpers.JWTManager
}

func NewInvestmentModule(h *handlers.InvestmentHandler, accounts middleware.AccountResolver, jwt *helpers.JWTManager) *InvestmentModule {
	return &InvestmentModule{Handler: h, Accounts: accounts, JWT: jwt}
}

func (m *InvestmentModule) Register(rg *gin.RouterGroup) {
	rg.GET("/plans/quote", middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIPAndPath(), nil), m.Handler.Quote)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Accounts, m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/investments", m.Handler.Create)
		auth.GET("/investments", m.Handler.ListOwn)
		auth.GET("/dashboard", m.Handler.Dashboard)
	}
}

func (m *InvestmentModule) Name() string { return "investment" }
