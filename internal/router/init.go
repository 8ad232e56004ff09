package router

import (
	"context"

	"github.com/oksasatya/invest-payout-engine/internal/container"
	handlers "github.com/oksasatya/invest-payout-engine/internal/interface/http"
	"github.com/oksasatya/invest-payout-engine/internal/router/modules"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

func healthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{}
	if p := container.GetPGPool(); p != nil {
		checks["postgres"] = func(ctx context.Context) error { return p.Ping(ctx) }
	}
	if r := container.GetRedis(); r != nil {
		checks["redis"] = func(ctx context.Context) error { return r.Ping(ctx).Err() }
	}
	if es := container.GetES(); es != nil {
		checks["elasticsearch"] = func(ctx context.Context) error { return helpers.PingES(ctx, es) }
	}
	return checks
}

// InitModules initializes all application modules and registers them with the router registry.
// container.Bootstrap must have run first.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	accounts := container.GetAccountService()
	investments := container.GetInvestmentService()

	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(healthChecks())))
	r.Add(modules.NewAccountModule(
		handlers.NewAccountHandler(accounts, logger, cfg.CookieDomain, cfg.CookieSecure),
		accounts,
		container.GetJWT(),
	))
	r.Add(modules.NewInvestmentModule(
		handlers.NewInvestmentHandler(investments, logger),
		accounts,
		container.GetJWT(),
	))
	r.Add(modules.NewAdminModule(
		handlers.NewAdminHandler(investments, logger),
		accounts,
		container.GetJWT(),
	))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
