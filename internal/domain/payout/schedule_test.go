package payout

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		months int
		year   int
		rate   string
	}{
		{0, 1, "0.03"},
		{11, 1, "0.03"},
		{12, 2, "0.035"},
		{23, 2, "0.035"},
		{24, 3, "0.04"},
		{35, 3, "0.04"},
	}
	for _, tc := range cases {
		got := TierFor(tc.months)
		if got.Year != tc.year || got.Rate.String() != tc.rate {
			t.Errorf("TierFor(%d) = year %d rate %s, want year %d rate %s", tc.months, got.Year, got.Rate, tc.year, tc.rate)
		}
	}
}

func TestYearAfterMatchesCeil(t *testing.T) {
	for m := 0; m <= entity.TermMonths; m++ {
		want := (m + 11) / 12
		if want < 1 {
			want = 1
		}
		if want > 3 {
			want = 3
		}
		if got := YearAfter(m); got != want {
			t.Fatalf("YearAfter(%d) = %d, want %d", m, got, want)
		}
	}
}

func TestAmountRoundsHalfEven(t *testing.T) {
	cases := []struct {
		principal int64
		rate      string
		want      int64
	}{
		{100000, "0.03", 3000},
		{100000, "0.035", 3500},
		{50001, "0.035", 1750}, // 1750.035
		{50100, "0.035", 1754}, // 1753.5 -> even
		{50300, "0.035", 1760}, // 1760.5 -> even
	}
	for _, tc := range cases {
		tier := Tier{Rate: mustRate(t, tc.rate)}
		if got := Amount(tc.principal, tier.Rate); got != tc.want {
			t.Errorf("Amount(%d, %s) = %d, want %d", tc.principal, tc.rate, got, tc.want)
		}
	}
}

func TestFirstDayOfNextMonth(t *testing.T) {
	s := NewSchedule(time.UTC)
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 12, 15, 8, 0, 0, 0, time.UTC), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := s.FirstDayOfNextMonth(tc.now); !got.Equal(tc.want) {
			t.Errorf("FirstDayOfNextMonth(%s) = %s, want %s", tc.now, got, tc.want)
		}
	}
}

func TestFirstDayOfNextMonthUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	s := NewSchedule(loc)
	// 20:00 UTC on Jan 31 is already Feb 1 in UTC+5:30.
	now := time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC)
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	if got := s.FirstDayOfNextMonth(now); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestApplyFullTerm(t *testing.T) {
	s := NewSchedule(time.UTC)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	inv := s.NewInvestment("inv_1", "acct_1", 100000, "", now)

	if inv.PlanType != entity.DefaultPlanType {
		t.Fatalf("expected default plan type, got %q", inv.PlanType)
	}
	if !inv.EndDate.Equal(inv.StartDate.AddDate(3, 0, 0)) {
		t.Fatalf("end date %s is not start + 3 years", inv.EndDate)
	}

	var prevMonths int
	var prevTotal int64
	for i := 1; i <= entity.TermMonths; i++ {
		rec, err := s.Apply(inv, now.AddDate(0, i, 0))
		if err != nil {
			t.Fatalf("payout %d: %v", i, err)
		}
		if rec.Month != i {
			t.Fatalf("payout %d recorded month %d", i, rec.Month)
		}
		if inv.MonthsCompleted < prevMonths || inv.TotalReturnsPaid < prevTotal {
			t.Fatalf("counters decreased at payout %d", i)
		}
		if len(inv.Payouts) != inv.MonthsCompleted {
			t.Fatalf("history length %d != months %d", len(inv.Payouts), inv.MonthsCompleted)
		}
		prevMonths, prevTotal = inv.MonthsCompleted, inv.TotalReturnsPaid
	}

	if inv.Status != entity.StatusCompleted {
		t.Fatalf("expected completed, got %s", inv.Status)
	}
	if inv.NextPaymentDate != nil {
		t.Fatalf("expected nil next payment date, got %s", inv.NextPaymentDate)
	}
	if inv.TotalReturnsPaid != 126000 {
		t.Fatalf("expected total 126000, got %d", inv.TotalReturnsPaid)
	}
	if _, err := s.Apply(inv, now); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive after completion, got %v", err)
	}
}

func TestApplyTierBoundaries(t *testing.T) {
	s := NewSchedule(time.UTC)
	now := time.Now()
	inv := s.NewInvestment("inv_1", "acct_1", 100000, "standard", now)

	for i := 1; i <= 13; i++ {
		rec, err := s.Apply(inv, now)
		if err != nil {
			t.Fatal(err)
		}
		switch i {
		case 12:
			if rec.Rate != "0.03" || rec.Year != 1 || inv.CurrentYear != 1 {
				t.Fatalf("12th payout: rate %s year %d current %d", rec.Rate, rec.Year, inv.CurrentYear)
			}
		case 13:
			if rec.Rate != "0.035" || rec.Year != 2 || inv.CurrentYear != 2 {
				t.Fatalf("13th payout: rate %s year %d current %d", rec.Rate, rec.Year, inv.CurrentYear)
			}
		}
	}
}

func TestApplyGuardsCorruptCounter(t *testing.T) {
	s := NewSchedule(time.UTC)
	inv := s.NewInvestment("inv_1", "acct_1", 100000, "", time.Now())
	inv.MonthsCompleted = entity.TermMonths
	if _, err := s.Apply(inv, time.Now()); !errors.Is(err, ErrTermComplete) {
		t.Fatalf("expected ErrTermComplete, got %v", err)
	}
}

func TestIsDue(t *testing.T) {
	s := NewSchedule(time.UTC)
	created := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	inv := s.NewInvestment("inv_1", "acct_1", 100000, "", created)

	if s.IsDue(inv, created) {
		t.Fatal("fresh investment should not be due")
	}
	if !s.IsDue(inv, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("investment should be due on the first of next month")
	}
	inv.Status = entity.StatusPaused
	inv.NextPaymentDate = nil
	if s.IsDue(inv, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("paused investment must never be due")
	}
}

func TestProjectMatchesFullTerm(t *testing.T) {
	p := Project(100000)
	if p.TotalReturns != 126000 {
		t.Fatalf("expected 126000, got %d", p.TotalReturns)
	}
	if len(p.Tiers) != 3 || p.Tiers[1].Monthly != 3500 || p.Tiers[2].Yearly != 48000 {
		t.Fatalf("unexpected tiers: %+v", p.Tiers)
	}

	s := NewSchedule(time.UTC)
	inv := s.NewInvestment("inv_1", "acct_1", 77777, "", time.Now())
	for inv.IsActive() {
		if _, err := s.Apply(inv, time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	if got := Project(77777).TotalReturns; got != inv.TotalReturnsPaid {
		t.Fatalf("projection %d != paid %d", got, inv.TotalReturnsPaid)
	}
}

func mustRate(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad rate %q: %v", s, err)
	}
	return d
}
