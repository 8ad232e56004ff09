package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/invest-payout-engine/internal/container"
	handlers "github.com/oksasatya/invest-payout-engine/internal/interface/http"
	"github.com/oksasatya/invest-payout-engine/internal/interface/middleware"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

// AccountModule wires signup, login and profile routes.
// Public: POST /api/signup, POST /api/login, POST /api/refresh
// Protected: POST /api/logout, GET /api/profile
type AccountModule struct {
	Handler  *handlers.AccountHandler
	Accounts middleware.AccountResolver
	JWT      *helpers.JWTManager
}

func NewAccountModule(h *handlers.AccountHandler, accounts middleware.AccountResolver, jwt *helpers.JWTManager) *AccountModule {
	return &AccountModule{Handler: h, Accounts: accounts, JWT: jwt}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Accounts, m.JWT))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
	}
}

func (m *AccountModule) Name() string { return "account" }
