package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// SweepReport counts the outcome of one pass over all investments.
type SweepReport struct {
	Scanned int           `json:"scanned"`
	Due     int           `json:"due"`
	Paid    int           `json:"paid"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Elapsed time.Duration `json:"elapsed"`
}

// SweepDuePayouts pays every active investment whose next payment date has
// passed. Each payout goes through ProcessDuePayout, which re-checks the due
// date under the investment lock, so concurrent sweeps pay a period once.
func (s *InvestmentService) SweepDuePayouts(ctx context.Context) (SweepReport, error) {
	start := time.Now()
	var rep SweepReport

	invs, err := s.Repo.ScanInvestments(ctx)
	if err != nil {
		return rep, wrapInternal("scan investments", err)
	}
	rep.Scanned = len(invs)

	now := s.now()
	for _, inv := range invs {
		if err := ctx.Err(); err != nil {
			rep.Elapsed = time.Since(start)
			return rep, err
		}
		if !s.Schedule.IsDue(inv, now) {
			continue
		}
		rep.Due++
		_, err := s.ProcessDuePayout(ctx, inv.ID)
		switch {
		case err == nil:
			rep.Paid++
		case errors.Is(err, ErrNotDue), errors.Is(err, ErrInvalidState):
			rep.Skipped++
		default:
			rep.Failed++
			s.log().WithError(err).WithField("investment_id", inv.ID).Error("scheduled payout failed")
		}
	}
	rep.Elapsed = time.Since(start)

	s.log().WithFields(logrus.Fields{
		"scanned": rep.Scanned,
		"due":     rep.Due,
		"paid":    rep.Paid,
		"skipped": rep.Skipped,
		"failed":  rep.Failed,
		"elapsed": rep.Elapsed.String(),
	}).Info("payout sweep finished")
	return rep, nil
}
