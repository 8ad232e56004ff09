package application

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
	"github.com/oksasatya/invest-payout-engine/internal/domain/payout"
	repo "github.com/oksasatya/invest-payout-engine/internal/domain/repository"
)

var (
	investmentsCreated = expvar.NewInt("investments_created")
	payoutsProcessed   = expvar.NewInt("payouts_processed")
	payoutMinorUnits   = expvar.NewInt("payout_minor_units_total")
	contractsCompleted = expvar.NewInt("contracts_completed")
)

// InvestmentService is the lifecycle engine: it creates contracts, advances
// them through the payout schedule and applies administrative transitions.
// Every mutation of one investment runs under that investment's lock.
type InvestmentService struct {
	Repo          repo.LedgerRepository
	Locker        Locker
	Schedule      *payout.Schedule
	MinInvestment int64
	Logger        *logrus.Logger

	// Optional collaborators; nil disables them.
	Notifier   PayoutNotifier
	Indexer    InvestmentIndexer
	Statements StatementStore

	Now func() time.Time
}

func NewInvestmentService(ledger repo.LedgerRepository, locker Locker, schedule *payout.Schedule, minInvestment int64, logger *logrus.Logger) *InvestmentService {
	return &InvestmentService{
		Repo:          ledger,
		Locker:        locker,
		Schedule:      schedule,
		MinInvestment: minInvestment,
		Logger:        logger,
		Now:           time.Now,
	}
}

// PayoutResult is what a caller needs to display a processed payout.
type PayoutResult struct {
	InvestmentID    string        `json:"investment_id"`
	Amount          int64         `json:"amount"`
	Month           int           `json:"month"`
	Year            int           `json:"year"`
	Rate            string        `json:"rate"`
	Status          entity.Status `json:"status"`
	NextPaymentDate *time.Time    `json:"next_payment_date"`
}

func (s *InvestmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *InvestmentService) log() *logrus.Entry {
	if s.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logrus.NewEntry(s.Logger)
}

func wrapInternal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return wrapInternal(op, err)
}

// CreateInvestment opens a new contract for ownerID. The investment record is
// written first so that a failure on the account or index update leaves a
// discoverable record that Reconcile can re-link.
func (s *InvestmentService) CreateInvestment(ctx context.Context, ownerID string, amount int64, planType string) (*entity.Investment, error) {
	if amount < s.MinInvestment {
		return nil, ErrInvalidAmount
	}
	if _, err := s.Repo.GetAccount(ctx, ownerID); err != nil {
		return nil, notFoundOr("load owner", err)
	}

	inv := s.Schedule.NewInvestment("inv_"+uuid.NewString(), ownerID, amount, planType, s.now())
	if err := s.Repo.PutInvestment(ctx, inv); err != nil {
		return nil, wrapInternal("persist investment", err)
	}
	fields := logrus.Fields{"investment_id": inv.ID, "owner_id": ownerID, "amount": amount}

	owner, err := s.linkToOwner(ctx, inv)
	if err != nil {
		s.log().WithFields(fields).WithError(err).Error("investment stored but owner update failed")
		return nil, err
	}
	if err := s.Repo.AppendInvestmentID(ctx, inv.ID); err != nil {
		s.log().WithFields(fields).WithError(err).Error("investment stored but index update failed")
		return nil, wrapInternal("append index", err)
	}

	investmentsCreated.Add(1)
	s.log().WithFields(fields).Info("investment created")
	s.index(ctx, inv, ownerInfo(owner))
	return inv, nil
}

func (s *InvestmentService) linkToOwner(ctx context.Context, inv *entity.Investment) (*entity.Account, error) {
	unlock, err := s.Locker.Lock(ctx, accountLockKey(inv.OwnerID))
	if err != nil {
		return nil, wrapInternal("lock owner", err)
	}
	defer unlock()

	acct, err := s.Repo.GetAccount(ctx, inv.OwnerID)
	if err != nil {
		return nil, notFoundOr("reload owner", err)
	}
	if !acct.OwnsInvestment(inv.ID) {
		acct.InvestmentIDs = append(acct.InvestmentIDs, inv.ID)
		acct.TotalInvested += inv.Amount
	}
	acct.UpdatedAt = s.now().UTC()
	if err := s.Repo.PutAccount(ctx, acct); err != nil {
		return nil, wrapInternal("persist owner", err)
	}
	return acct, nil
}

// ProcessMonthlyPayout pays the next month of an active contract. Every call
// advances the counter by one; the only guard is that the contract is active.
func (s *InvestmentService) ProcessMonthlyPayout(ctx context.Context, investmentID string) (*PayoutResult, error) {
	return s.processPayout(ctx, investmentID, false)
}

// ProcessDuePayout pays only when the stored next payment date has passed,
// so repeated scheduler sweeps within one period pay at most once.
func (s *InvestmentService) ProcessDuePayout(ctx context.Context, investmentID string) (*PayoutResult, error) {
	return s.processPayout(ctx, investmentID, true)
}

func (s *InvestmentService) processPayout(ctx context.Context, investmentID string, dueOnly bool) (*PayoutResult, error) {
	unlock, err := s.Locker.Lock(ctx, investmentLockKey(investmentID))
	if err != nil {
		return nil, wrapInternal("lock investment", err)
	}
	defer unlock()

	inv, err := s.Repo.GetInvestment(ctx, investmentID)
	if err != nil {
		return nil, notFoundOr("load investment", err)
	}

	now := s.now()
	if dueOnly && inv.IsActive() && !s.Schedule.IsDue(inv, now) {
		return nil, ErrNotDue
	}
	rec, err := s.Schedule.Apply(inv, now)
	if err != nil {
		if errors.Is(err, payout.ErrNotActive) || errors.Is(err, payout.ErrTermComplete) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
		}
		return nil, wrapInternal("apply payout", err)
	}
	if err := s.Repo.PutInvestment(ctx, inv); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return nil, ErrConcurrentUpdate
		}
		return nil, wrapInternal("persist payout", err)
	}

	payoutsProcessed.Add(1)
	payoutMinorUnits.Add(rec.Amount)
	if inv.Status == entity.StatusCompleted {
		contractsCompleted.Add(1)
	}
	s.log().WithFields(logrus.Fields{
		"investment_id": inv.ID,
		"month":         rec.Month,
		"year":          rec.Year,
		"amount":        rec.Amount,
		"status":        inv.Status,
		"scheduled":     dueOnly,
	}).Info("payout processed")

	owner := s.lookupOwner(ctx, inv.OwnerID)
	s.notify(ctx, inv, rec, owner)
	s.index(ctx, inv, ownerInfo(owner))

	return &PayoutResult{
		InvestmentID:    inv.ID,
		Amount:          rec.Amount,
		Month:           rec.Month,
		Year:            rec.Year,
		Rate:            rec.Rate,
		Status:          inv.Status,
		NextPaymentDate: inv.NextPaymentDate,
	}, nil
}

// SetStatus applies an administrative transition. Only the closed status set
// is accepted and only these moves are legal:
//
//	active    -> paused | cancelled
//	paused    -> active | cancelled
//
// Completed and cancelled are terminal; setting the current status is a no-op.
func (s *InvestmentService) SetStatus(ctx context.Context, investmentID, status string) (*entity.Investment, error) {
	target, ok := entity.ParseStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	unlock, err := s.Locker.Lock(ctx, investmentLockKey(investmentID))
	if err != nil {
		return nil, wrapInternal("lock investment", err)
	}
	defer unlock()

	inv, err := s.Repo.GetInvestment(ctx, investmentID)
	if err != nil {
		return nil, notFoundOr("load investment", err)
	}
	if inv.Status == target {
		return inv, nil
	}

	now := s.now()
	from := inv.Status
	switch {
	case from == entity.StatusActive && target == entity.StatusPaused:
		inv.NextPaymentDate = nil
	case from == entity.StatusPaused && target == entity.StatusActive:
		next := s.Schedule.FirstDayOfNextMonth(now)
		inv.NextPaymentDate = &next
	case (from == entity.StatusActive || from == entity.StatusPaused) && target == entity.StatusCancelled:
		inv.NextPaymentDate = nil
	default:
		return nil, fmt.Errorf("%w: %w: %s -> %s", ErrInvalidState, ErrInvalidTransition, from, target)
	}
	inv.Status = target
	inv.UpdatedAt = now.UTC()

	if err := s.Repo.PutInvestment(ctx, inv); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return nil, ErrConcurrentUpdate
		}
		return nil, wrapInternal("persist status", err)
	}
	s.log().WithFields(logrus.Fields{"investment_id": inv.ID, "from": from, "to": target}).Info("investment status changed")

	if target == entity.StatusCancelled {
		if err := s.adjustPrincipal(ctx, inv.OwnerID, -inv.Amount); err != nil {
			s.log().WithError(err).WithField("investment_id", inv.ID).Error("status stored but owner aggregate update failed")
			return nil, err
		}
	}
	s.index(ctx, inv, ownerInfo(s.lookupOwner(ctx, inv.OwnerID)))
	return inv, nil
}

func (s *InvestmentService) adjustPrincipal(ctx context.Context, ownerID string, delta int64) error {
	unlock, err := s.Locker.Lock(ctx, accountLockKey(ownerID))
	if err != nil {
		return wrapInternal("lock owner", err)
	}
	defer unlock()

	acct, err := s.Repo.GetAccount(ctx, ownerID)
	if err != nil {
		return notFoundOr("load owner", err)
	}
	acct.TotalInvested += delta
	acct.UpdatedAt = s.now().UTC()
	if err := s.Repo.PutAccount(ctx, acct); err != nil {
		return wrapInternal("persist owner", err)
	}
	return nil
}

// GetInvestment returns one investment by id.
func (s *InvestmentService) GetInvestment(ctx context.Context, id string) (*entity.Investment, error) {
	inv, err := s.Repo.GetInvestment(ctx, id)
	if err != nil {
		return nil, notFoundOr("load investment", err)
	}
	return inv, nil
}

// ListOwnInvestments returns the caller's investments in the order they were opened.
// Ids whose record is missing are skipped.
func (s *InvestmentService) ListOwnInvestments(ctx context.Context, ownerID string) ([]*entity.Investment, error) {
	acct, err := s.Repo.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, notFoundOr("load owner", err)
	}
	out := make([]*entity.Investment, 0, len(acct.InvestmentIDs))
	for _, id := range acct.InvestmentIDs {
		inv, err := s.Repo.GetInvestment(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, wrapInternal("load investment", err)
		}
		out = append(out, inv)
	}
	return out, nil
}

// ListAllInvestments walks the global index and joins owner name and email.
func (s *InvestmentService) ListAllInvestments(ctx context.Context) ([]entity.InvestmentWithOwner, error) {
	ids, err := s.Repo.ListAllInvestmentIDs(ctx)
	if err != nil {
		return nil, wrapInternal("list index", err)
	}
	owners := make(map[string]*entity.OwnerInfo)
	out := make([]entity.InvestmentWithOwner, 0, len(ids))
	for _, id := range ids {
		inv, err := s.Repo.GetInvestment(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, wrapInternal("load investment", err)
		}
		info, seen := owners[inv.OwnerID]
		if !seen {
			info = ownerInfo(s.lookupOwner(ctx, inv.OwnerID))
			owners[inv.OwnerID] = info
		}
		out = append(out, entity.InvestmentWithOwner{Investment: *inv, Owner: info})
	}
	return out, nil
}

// ListAllAccounts returns every account with credentials stripped.
func (s *InvestmentService) ListAllAccounts(ctx context.Context) ([]*entity.Account, error) {
	accts, err := s.Repo.ListAccounts(ctx)
	if err != nil {
		return nil, wrapInternal("list accounts", err)
	}
	for _, a := range accts {
		a.PasswordHash = ""
	}
	return accts, nil
}

// QuoteReturns prices a prospective principal over the full term.
func (s *InvestmentService) QuoteReturns(amount int64) (payout.Projection, error) {
	if amount <= 0 {
		return payout.Projection{}, ErrInvalidAmount
	}
	return payout.Project(amount), nil
}

// Dashboard summarises an investor's portfolio.
type Dashboard struct {
	TotalInvested     int64                `json:"total_invested"`
	ActiveInvestments int                  `json:"active_investments"`
	MonthlyIncome     int64                `json:"monthly_income"`
	TotalReturns      int64                `json:"total_returns"`
	Investments       []*entity.Investment `json:"investments"`
}

// GetDashboard aggregates the caller's investments. MonthlyIncome is what the
// next payout of every active contract would pay.
func (s *InvestmentService) GetDashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	acct, err := s.Repo.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, notFoundOr("load owner", err)
	}
	invs, err := s.ListOwnInvestments(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{TotalInvested: acct.TotalInvested, Investments: invs}
	for _, inv := range invs {
		d.TotalReturns += inv.TotalReturnsPaid
		if inv.IsActive() {
			d.ActiveInvestments++
			d.MonthlyIncome += payout.CurrentMonthly(inv.Amount, inv.MonthsCompleted)
		}
	}
	return d, nil
}

// SearchInvestments queries the search index.
func (s *InvestmentService) SearchInvestments(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Indexer == nil {
		return nil, ErrUnavailable
	}
	res, err := s.Indexer.SearchInvestments(ctx, q, size)
	if err != nil {
		return nil, wrapInternal("search investments", err)
	}
	return res, nil
}

// ExportStatement renders the payout history of one investment to the statement store.
func (s *InvestmentService) ExportStatement(ctx context.Context, investmentID string) (string, error) {
	if s.Statements == nil {
		return "", ErrUnavailable
	}
	inv, err := s.Repo.GetInvestment(ctx, investmentID)
	if err != nil {
		return "", notFoundOr("load investment", err)
	}
	url, err := s.Statements.PutStatement(ctx, inv, ownerInfo(s.lookupOwner(ctx, inv.OwnerID)))
	if err != nil {
		return "", wrapInternal("store statement", err)
	}
	s.log().WithFields(logrus.Fields{"investment_id": inv.ID, "url": url}).Info("statement exported")
	return url, nil
}

func (s *InvestmentService) lookupOwner(ctx context.Context, ownerID string) *entity.Account {
	acct, err := s.Repo.GetAccount(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.log().WithError(err).WithField("owner_id", ownerID).Warn("owner lookup failed")
		}
		return nil
	}
	return acct
}

func ownerInfo(a *entity.Account) *entity.OwnerInfo {
	if a == nil {
		return nil
	}
	return &entity.OwnerInfo{Name: a.Name, Email: a.Email}
}

func (s *InvestmentService) notify(ctx context.Context, inv *entity.Investment, rec entity.PayoutRecord, owner *entity.Account) {
	if s.Notifier == nil {
		return
	}
	evt := PayoutEvent{
		InvestmentID:     inv.ID,
		OwnerID:          inv.OwnerID,
		Amount:           rec.Amount,
		Month:            rec.Month,
		Year:             rec.Year,
		Rate:             rec.Rate,
		TotalReturnsPaid: inv.TotalReturnsPaid,
		Status:           string(inv.Status),
		NextPaymentDate:  inv.NextPaymentDate,
		ProcessedAt:      rec.ProcessedAt,
	}
	if owner != nil {
		evt.OwnerName, evt.OwnerEmail = owner.Name, owner.Email
	}
	if err := s.Notifier.NotifyPayout(ctx, evt); err != nil {
		s.log().WithError(err).WithField("investment_id", inv.ID).Warn("payout notification failed")
	}
}

func (s *InvestmentService) index(ctx context.Context, inv *entity.Investment, owner *entity.OwnerInfo) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexInvestment(ctx, inv, owner); err != nil {
		s.log().WithError(err).WithField("investment_id", inv.ID).Warn("investment index failed")
	}
}
