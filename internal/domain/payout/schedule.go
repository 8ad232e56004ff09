// Package payout holds the pure payout rules: the tier table, the next-due
// computation and the state transition applied on every monthly payout.
// Nothing here performs I/O, so manual and scheduled triggers share it.
package payout

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
)

var (
	ErrNotActive    = errors.New("investment is not active")
	ErrTermComplete = errors.New("investment term already complete")
)

// MonthsPerTier is the length of each rate window.
const MonthsPerTier = 12

// Tier is one 12-month window of a contract with its monthly rate.
type Tier struct {
	Year int
	Rate decimal.Decimal
}

var tiers = [...]Tier{
	{Year: 1, Rate: decimal.RequireFromString("0.03")},
	{Year: 2, Rate: decimal.RequireFromString("0.035")},
	{Year: 3, Rate: decimal.RequireFromString("0.04")},
}

// Tiers returns the rate table in order.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers[:])
	return out
}

// TierFor returns the tier that prices the payout made when monthsCompleted
// months have already been paid. [0,12) is year 1, [12,24) year 2, the rest year 3.
func TierFor(monthsCompleted int) Tier {
	switch {
	case monthsCompleted < MonthsPerTier:
		return tiers[0]
	case monthsCompleted < 2*MonthsPerTier:
		return tiers[1]
	default:
		return tiers[2]
	}
}

// YearAfter is the contract year reported once monthsCompleted payouts exist.
// It equals ceil(monthsCompleted/12) clamped to 1..3.
func YearAfter(monthsCompleted int) int {
	switch {
	case monthsCompleted <= MonthsPerTier:
		return 1
	case monthsCompleted <= 2*MonthsPerTier:
		return 2
	default:
		return 3
	}
}

// Amount computes principal × rate in minor units, rounding half to even.
func Amount(principal int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(principal).Mul(rate).RoundBank(0).IntPart()
}

// Schedule evaluates due dates in a fixed location.
type Schedule struct {
	loc *time.Location
}

// NewSchedule returns a Schedule for loc; a nil loc means UTC.
func NewSchedule(loc *time.Location) *Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return &Schedule{loc: loc}
}

// Location returns the schedule's time zone.
func (s *Schedule) Location() *time.Location { return s.loc }

// FirstDayOfNextMonth returns midnight on the first calendar day of the month
// after now, regardless of which day of the month now falls on.
func (s *Schedule) FirstDayOfNextMonth(now time.Time) time.Time {
	t := now.In(s.loc)
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, s.loc)
}

// IsDue reports whether a payout has become due for inv at now.
func (s *Schedule) IsDue(inv *entity.Investment, now time.Time) bool {
	if inv == nil || !inv.IsActive() || inv.NextPaymentDate == nil {
		return false
	}
	return !now.Before(*inv.NextPaymentDate)
}

// Apply advances inv by one month and returns the record it appended.
// It is the only place that mutates the payout counters.
func (s *Schedule) Apply(inv *entity.Investment, now time.Time) (entity.PayoutRecord, error) {
	if !inv.IsActive() {
		return entity.PayoutRecord{}, ErrNotActive
	}
	if inv.MonthsCompleted >= entity.TermMonths {
		return entity.PayoutRecord{}, ErrTermComplete
	}

	tier := TierFor(inv.MonthsCompleted)
	amount := Amount(inv.Amount, tier.Rate)

	inv.MonthsCompleted++
	inv.CurrentYear = YearAfter(inv.MonthsCompleted)
	inv.TotalReturnsPaid += amount

	rec := entity.PayoutRecord{
		Amount:      amount,
		ProcessedAt: now.UTC(),
		Month:       inv.MonthsCompleted,
		Year:        inv.CurrentYear,
		Rate:        tier.Rate.String(),
	}
	inv.Payouts = append(inv.Payouts, rec)

	if inv.MonthsCompleted >= entity.TermMonths {
		inv.Status = entity.StatusCompleted
		inv.NextPaymentDate = nil
	} else {
		next := s.FirstDayOfNextMonth(now)
		inv.NextPaymentDate = &next
	}
	inv.UpdatedAt = now.UTC()
	return rec, nil
}

// NewInvestment builds a fresh active contract starting at now.
func (s *Schedule) NewInvestment(id, ownerID string, amount int64, planType string, now time.Time) *entity.Investment {
	if planType == "" {
		planType = entity.DefaultPlanType
	}
	start := now.UTC()
	next := s.FirstDayOfNextMonth(now)
	return &entity.Investment{
		ID:               id,
		OwnerID:          ownerID,
		Amount:           amount,
		PlanType:         planType,
		Status:           entity.StatusActive,
		CreatedAt:        start,
		UpdatedAt:        start,
		StartDate:        start,
		EndDate:          start.AddDate(3, 0, 0),
		MonthsCompleted:  0,
		CurrentYear:      1,
		TotalReturnsPaid: 0,
		NextPaymentDate:  &next,
		Payouts:          []entity.PayoutRecord{},
	}
}
