package entity

import (
	"time"
)

// Status is the lifecycle state of an Investment.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseStatus accepts only the closed set of lifecycle states.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusActive, StatusPaused, StatusCancelled, StatusCompleted:
		return st, true
	}
	return "", false
}

// TermMonths is the number of monthly payouts in every contract.
const TermMonths = 36

// DefaultPlanType is used when a create request carries no plan tag.
const DefaultPlanType = "standard"

// Investment is one 36-month contract. Amounts are in currency minor units.
//
// Version is maintained by the store for optimistic concurrency and is not
// part of the persisted document.
type Investment struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"owner_id"`
	Amount           int64          `json:"amount"`
	PlanType         string         `json:"plan_type"`
	Status           Status         `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	StartDate        time.Time      `json:"start_date"`
	EndDate          time.Time      `json:"end_date"`
	MonthsCompleted  int            `json:"months_completed"`
	CurrentYear      int            `json:"current_year"`
	TotalReturnsPaid int64          `json:"total_returns_paid"`
	NextPaymentDate  *time.Time     `json:"next_payment_date"`
	Payouts          []PayoutRecord `json:"payouts"`

	Version int64 `json:"-"`
}

// PayoutRecord is one immutable entry of an investment's payout history.
type PayoutRecord struct {
	Amount      int64     `json:"amount"`
	ProcessedAt time.Time `json:"processed_at"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Rate        string    `json:"rate"`
}

// IsActive reports whether the contract still accrues payouts.
func (i *Investment) IsActive() bool {
	return i.Status == StatusActive
}

// CountsTowardPrincipal reports whether the principal is part of the owner's aggregate.
func (i *Investment) CountsTowardPrincipal() bool {
	return i.Status != StatusCancelled
}

// OwnerInfo is the owner projection joined onto admin listings.
type OwnerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// InvestmentWithOwner is an investment joined with its owner's name and email.
// Owner is nil when the owning account no longer resolves.
type InvestmentWithOwner struct {
	Investment
	Owner *OwnerInfo `json:"owner_info"`
}
