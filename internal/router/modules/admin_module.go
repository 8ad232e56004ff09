package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/invest-payout-engine/internal/interface/http"
	"github.com/oksasatya/invest-payout-engine/internal/interface/middleware"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

// AdminModule wires the administrative routes under /api/admin.
type AdminModule struct {
	Handler  *handlers.AdminHandler
	Accounts middleware.AccountResolver
	JWT      *helpers.JWTManager
}

func NewAdminModule(h *handlers.AdminHandler, accounts middleware.AccountResolver, jwt *helpers.JWTManager) *AdminModule {
	return &AdminModule{Handler: h, Accounts: accounts, JWT: jwt}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(m.Accounts, m.JWT), middleware.RequireAdmin())
	{
		admin.GET("/investments", m.Handler.ListInvestments)
		admin.GET("/investments/search", m.Handler.SearchInvestments)
		admin.POST("/investments/:id/payout", m.Handler.ProcessPayout)
		admin.PUT("/investments/:id/status", m.Handler.SetStatus)
		admin.POST("/investments/:id/statement", m.Handler.ExportStatement)
		admin.GET("/accounts", m.Handler.ListAccounts)
		admin.POST("/payouts/sweep", m.Handler.SweepPayouts)
		admin.POST("/reconcile", m.Handler.Reconcile)
	}
}

func (m *AdminModule) Name() string { return "admin" }
