package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

// AccountRepository defines durable access to Account records.
type AccountRepository interface {
	GetAccount(ctx context.Context, id string) (*entity.Account, error)
	PutAccount(ctx context.Context, a *entity.Account) error
	ListAccounts(ctx context.Context) ([]*entity.Account, error)
}

// InvestmentRepository defines durable access to Investment records and the
// global investment index. PutInvestment is conditional on inv.Version: zero
// creates, anything else must match the stored version. On success the new
// version is written back to inv.
type InvestmentRepository interface {
	GetInvestment(ctx context.Context, id string) (*entity.Investment, error)
	PutInvestment(ctx context.Context, inv *entity.Investment) error
	ScanInvestments(ctx context.Context) ([]*entity.Investment, error)

	ListAllInvestmentIDs(ctx context.Context) ([]string, error)
	AppendInvestmentID(ctx context.Context, id string) error
}

// LedgerRepository groups the record kinds the lifecycle engine touches.
// Writes across record kinds are independent; there is no transaction.
type LedgerRepository interface {
	AccountRepository
	InvestmentRepository
}
