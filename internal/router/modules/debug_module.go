package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/invest-payout-engine/internal/container"
	"github.com/oksasatya/invest-payout-engine/internal/interface/middleware"
)

type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// expvar counters (payouts processed, contracts completed, ...), rate-limited
	// per IP with private networks exempt
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}

func (m *DebugModule) Name() string { return "debug" }
