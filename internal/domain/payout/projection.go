package payout

// TierProjection is the expected income of one contract year.
type TierProjection struct {
	Year    int    `json:"year"`
	Rate    string `json:"rate"`
	Monthly int64  `json:"monthly"`
	Yearly  int64  `json:"yearly"`
}

// Projection is the expected return profile of a principal over the full term.
type Projection struct {
	Principal    int64            `json:"principal"`
	Tiers        []TierProjection `json:"tiers"`
	TotalReturns int64            `json:"total_returns"`
}

// Project prices every tier for principal using the same rounding as Apply,
// so TotalReturns equals what 36 payouts would add up to.
func Project(principal int64) Projection {
	p := Projection{Principal: principal, Tiers: make([]TierProjection, 0, len(tiers))}
	for _, t := range tiers {
		monthly := Amount(principal, t.Rate)
		yearly := monthly * MonthsPerTier
		p.Tiers = append(p.Tiers, TierProjection{
			Year:    t.Year,
			Rate:    t.Rate.String(),
			Monthly: monthly,
			Yearly:  yearly,
		})
		p.TotalReturns += yearly
	}
	return p
}

// CurrentMonthly is the payout the next call would make for an active contract.
func CurrentMonthly(principal int64, monthsCompleted int) int64 {
	return Amount(principal, TierFor(monthsCompleted).Rate)
}
