package templates

import (
	"time"

	"github.com/oksasatya/invest-payout-engine/config"
)

const dateLayout = "02 January 2006"

// Option pattern
type Option func(*EmailData)

// Payout carries the figures of one processed payout.
type Payout struct {
	InvestmentID     string
	Amount           int64
	Month            int
	Year             int
	Rate             string
	TotalReturnsPaid int64
	ProcessedAt      time.Time
	NextPaymentDate  *time.Time
}

// WithPayout fills the payout fields, formatting dates in loc.
func WithPayout(p Payout, loc *time.Location) Option {
	if loc == nil {
		loc = time.UTC
	}
	return func(d *EmailData) {
		d.InvestmentID = p.InvestmentID
		d.Amount = p.Amount
		d.Month = p.Month
		d.Year = p.Year
		d.Rate = p.Rate
		d.TotalReturnsPaid = p.TotalReturnsPaid
		d.ProcessedAtText = p.ProcessedAt.In(loc).Format(dateLayout + ", 15:04 MST")
		if p.NextPaymentDate != nil {
			d.NextPaymentDateText = p.NextPaymentDate.In(loc).Format(dateLayout)
		}
	}
}

// NewBaseEmailData fills common fields from config, then applies options.
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName: cfg.CompanyName,
		AppName:     cfg.AppName,

		SupportURL:   cfg.SupportURL,
		DashboardURL: cfg.DashboardURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// NewPayoutData picks the template for the payout and returns its name and data.
// The final payout of a contract uses the completion template.
func NewPayoutData(cfg *config.Config, name, email string, completed bool, p Payout) (string, map[string]any) {
	typ := PayoutProcessed
	if completed {
		typ = ContractCompleted
	}
	d := NewBaseEmailData(cfg, typ, name, email, WithPayout(p, cfg.PayoutLocation()))
	return typ, ToMap(d)
}
