package entity

import (
	"time"
)

// Role is the authorization role stored on an Account.
type Role string

const (
	RoleInvestor Role = "investor"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleInvestor || r == RoleAdmin
}

// Account is the aggregate root for investors and administrators.
// TotalInvested is the running principal across non-cancelled investments and
// is repaired by reconciliation when a multi-record write was interrupted.
type Account struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	PasswordHash  string    `json:"password_hash,omitempty"`
	TotalInvested int64     `json:"total_invested"`
	InvestmentIDs []string  `json:"investment_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsAdmin reports whether the account holds the admin role.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// OwnsInvestment reports whether id is already linked to the account.
func (a *Account) OwnsInvestment(id string) bool {
	for _, v := range a.InvestmentIDs {
		if v == id {
			return true
		}
	}
	return false
}
