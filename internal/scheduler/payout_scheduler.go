// Package scheduler pays due investments on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/invest-payout-engine/internal/application"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

const (
	sweepTimeout    = 5 * time.Minute
	defaultInterval = time.Hour
)

// Sweeper is satisfied by application.InvestmentService.
type Sweeper interface {
	SweepDuePayouts(ctx context.Context) (application.SweepReport, error)
}

// RunPayoutScheduler sweeps once immediately and then on every tick until ctx
// is cancelled. Each sweep pays only investments whose next payment date has
// passed, so a missed tick is caught up by the next one.
func RunPayoutScheduler(ctx context.Context, sweeper Sweeper, interval time.Duration, log *logrus.Logger) {
	if interval <= 0 {
		log.WithField("interval", interval.String()).Warn("non-positive scheduler interval, using 1h")
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.WithField("interval", interval.String()).Info("payout scheduler started")
	runSweep(ctx, sweeper, log)

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping payout scheduler")
			return
		case <-ticker.C:
			runSweep(ctx, sweeper, log)
		}
	}
}

func runSweep(ctx context.Context, sweeper Sweeper, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	rep, err := sweeper.SweepDuePayouts(ctx)
	if err != nil {
		helpers.LogError(log, "payout sweep aborted", err, logrus.Fields{"paid": rep.Paid})
		return
	}
	if rep.Failed > 0 {
		log.WithField("failed", rep.Failed).Warn("payout sweep finished with failures")
	}
}
