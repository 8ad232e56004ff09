package application

import (
	"context"
	"errors"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
	repo "github.com/oksasatya/invest-payout-engine/internal/domain/repository"
)

// ReconcileReport lists what a reconciliation pass repaired.
type ReconcileReport struct {
	Investments       int      `json:"investments"`
	IndexRepaired     []string `json:"index_repaired"`
	LinksRepaired     []string `json:"links_repaired"`
	AccountsCorrected []string `json:"accounts_corrected"`
	Orphans           []string `json:"orphans"`
}

// Reconcile repairs the derived data that CreateInvestment and SetStatus write
// across several records: the global index, each owner's id list and each
// owner's aggregate principal. Investment records are the source of truth.
func (s *InvestmentService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	invs, err := s.Repo.ScanInvestments(ctx)
	if err != nil {
		return nil, wrapInternal("scan investments", err)
	}
	rep := &ReconcileReport{
		Investments:       len(invs),
		IndexRepaired:     []string{},
		LinksRepaired:     []string{},
		AccountsCorrected: []string{},
		Orphans:           []string{},
	}

	ids, err := s.Repo.ListAllInvestmentIDs(ctx)
	if err != nil {
		return nil, wrapInternal("list index", err)
	}
	indexed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		indexed[id] = struct{}{}
	}

	byOwner := make(map[string][]*entity.Investment)
	for _, inv := range invs {
		if _, ok := indexed[inv.ID]; !ok {
			if err := s.Repo.AppendInvestmentID(ctx, inv.ID); err != nil {
				return nil, wrapInternal("append index", err)
			}
			rep.IndexRepaired = append(rep.IndexRepaired, inv.ID)
		}
		byOwner[inv.OwnerID] = append(byOwner[inv.OwnerID], inv)
	}

	accts, err := s.Repo.ListAccounts(ctx)
	if err != nil {
		return nil, wrapInternal("list accounts", err)
	}
	owners := make([]string, 0, len(byOwner))
	for id := range byOwner {
		owners = append(owners, id)
	}
	for _, a := range accts {
		if _, ok := byOwner[a.ID]; !ok && a.TotalInvested != 0 {
			owners = append(owners, a.ID)
		}
	}
	sort.Strings(owners)

	for _, ownerID := range owners {
		linked, corrected, err := s.reconcileOwner(ctx, ownerID, byOwner[ownerID])
		if errors.Is(err, ErrNotFound) {
			for _, inv := range byOwner[ownerID] {
				rep.Orphans = append(rep.Orphans, inv.ID)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		rep.LinksRepaired = append(rep.LinksRepaired, linked...)
		if corrected {
			rep.AccountsCorrected = append(rep.AccountsCorrected, ownerID)
		}
	}

	s.log().WithFields(logrus.Fields{
		"investments":        rep.Investments,
		"index_repaired":     len(rep.IndexRepaired),
		"links_repaired":     len(rep.LinksRepaired),
		"accounts_corrected": len(rep.AccountsCorrected),
		"orphans":            len(rep.Orphans),
	}).Info("ledger reconciled")
	return rep, nil
}

const reconcileAttempts = 3

// reconcileOwner recomputes one owner's links and aggregate from the current
// investment records. It holds the lock of every investment it counts and then
// the owner lock, the same order SetStatus uses, so no cancel or create can land
// between the read and the write. Ids linked by a create that finished after
// the scan are locked on the next attempt.
func (s *InvestmentService) reconcileOwner(ctx context.Context, ownerID string, scanned []*entity.Investment) ([]string, bool, error) {
	ids := make(map[string]struct{}, len(scanned))
	for _, inv := range scanned {
		ids[inv.ID] = struct{}{}
	}
	for attempt := 0; attempt < reconcileAttempts; attempt++ {
		linked, corrected, extra, err := s.reconcileOwnerLocked(ctx, ownerID, ids)
		if err != nil || len(extra) == 0 {
			return linked, corrected, err
		}
		for _, id := range extra {
			ids[id] = struct{}{}
		}
	}
	return nil, false, ErrConcurrentUpdate
}

// reconcileOwnerLocked returns the linked ids that were not locked instead of
// writing when the account references investments outside ids.
func (s *InvestmentService) reconcileOwnerLocked(ctx context.Context, ownerID string, ids map[string]struct{}) ([]string, bool, []string, error) {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	var unlocks []func()
	defer func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}()
	for _, id := range sorted {
		unlock, err := s.Locker.Lock(ctx, investmentLockKey(id))
		if err != nil {
			return nil, false, nil, wrapInternal("lock investment", err)
		}
		unlocks = append(unlocks, unlock)
	}
	unlock, err := s.Locker.Lock(ctx, accountLockKey(ownerID))
	if err != nil {
		return nil, false, nil, wrapInternal("lock owner", err)
	}
	unlocks = append(unlocks, unlock)

	acct, err := s.Repo.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, false, nil, notFoundOr("load owner", err)
	}
	var extra []string
	for _, id := range acct.InvestmentIDs {
		if _, ok := ids[id]; !ok {
			extra = append(extra, id)
		}
	}
	if len(extra) > 0 {
		return nil, false, extra, nil
	}

	invs := make([]*entity.Investment, 0, len(sorted))
	for _, id := range sorted {
		inv, err := s.Repo.GetInvestment(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, false, nil, wrapInternal("reload investment", err)
		}
		if inv.OwnerID == ownerID {
			invs = append(invs, inv)
		}
	}
	sort.SliceStable(invs, func(i, j int) bool { return invs[i].CreatedAt.Before(invs[j].CreatedAt) })

	var linked []string
	var total int64
	for _, inv := range invs {
		if !acct.OwnsInvestment(inv.ID) {
			acct.InvestmentIDs = append(acct.InvestmentIDs, inv.ID)
			linked = append(linked, inv.ID)
		}
		if inv.CountsTowardPrincipal() {
			total += inv.Amount
		}
	}
	corrected := acct.TotalInvested != total
	if len(linked) == 0 && !corrected {
		return nil, false, nil, nil
	}

	acct.TotalInvested = total
	acct.UpdatedAt = s.now().UTC()
	if err := s.Repo.PutAccount(ctx, acct); err != nil {
		return nil, false, nil, wrapInternal("persist owner", err)
	}
	s.log().WithFields(logrus.Fields{"owner_id": ownerID, "linked": len(linked), "total_invested": total}).Warn("account repaired")
	return linked, corrected, nil, nil
}
