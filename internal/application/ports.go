package application

import (
	"context"
	"time"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
)

// Locker serialises mutations on one ledger key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func investmentLockKey(id string) string { return "lock:investment:" + id }
func accountLockKey(id string) string    { return "lock:account:" + id }
func emailLockKey(email string) string   { return "lock:account-email:" + email }

// PayoutEvent is published after every successful payout.
type PayoutEvent struct {
	InvestmentID     string     `json:"investment_id"`
	OwnerID          string     `json:"owner_id"`
	OwnerName        string     `json:"owner_name,omitempty"`
	OwnerEmail       string     `json:"owner_email,omitempty"`
	Amount           int64      `json:"amount"`
	Month            int        `json:"month"`
	Year             int        `json:"year"`
	Rate             string     `json:"rate"`
	TotalReturnsPaid int64      `json:"total_returns_paid"`
	Status           string     `json:"status"`
	NextPaymentDate  *time.Time `json:"next_payment_date,omitempty"`
	ProcessedAt      time.Time  `json:"processed_at"`
}

// PayoutNotifier delivers payout events to downstream consumers.
type PayoutNotifier interface {
	NotifyPayout(ctx context.Context, evt PayoutEvent) error
}

// InvestmentIndexer keeps a searchable copy of investments.
type InvestmentIndexer interface {
	IndexInvestment(ctx context.Context, inv *entity.Investment, owner *entity.OwnerInfo) error
	SearchInvestments(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// StatementStore persists a rendered payout statement and returns its location.
type StatementStore interface {
	PutStatement(ctx context.Context, inv *entity.Investment, owner *entity.OwnerInfo) (string, error)
}
