package kvledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
	"github.com/oksasatya/invest-payout-engine/internal/domain/repository"
)

// SchemaVersion is written into every envelope. Bump it with a migration
// path in decode when a record layout changes.
const SchemaVersion = 1

const (
	accountPrefix    = "account:"
	investmentPrefix = "investment:"
	investmentIndex  = "investment-index"
)

const (
	kindAccount    = "account"
	kindInvestment = "investment"
	kindIndex      = "index"
)

var ErrUnsupportedSchema = errors.New("unsupported record schema version")

type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Kind          string          `json:"kind"`
	Data          json.RawMessage `json:"data"`
}

func AccountKey(id string) string    { return accountPrefix + id }
func InvestmentKey(id string) string { return investmentPrefix + id }

// Repository implements repository.LedgerRepository on top of a KV store.
// It holds no business rules and no cache.
type Repository struct {
	kv repository.KVStore
}

func NewRepository(kv repository.KVStore) *Repository {
	return &Repository{kv: kv}
}

func encode(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{SchemaVersion: SchemaVersion, Kind: kind, Data: data})
}

func decode(raw []byte, kind string, dst any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", kind, err)
	}
	if env.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: %s v%d", ErrUnsupportedSchema, kind, env.SchemaVersion)
	}
	if env.Kind != kind {
		return fmt.Errorf("decode: expected kind %q, got %q", kind, env.Kind)
	}
	return json.Unmarshal(env.Data, dst)
}

func (r *Repository) GetAccount(ctx context.Context, id string) (*entity.Account, error) {
	e, err := r.kv.Get(ctx, AccountKey(id))
	if err != nil {
		return nil, err
	}
	a := &entity.Account{}
	if err := decode(e.Value, kindAccount, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Repository) PutAccount(ctx context.Context, a *entity.Account) error {
	b, err := encode(kindAccount, a)
	if err != nil {
		return err
	}
	_, err = r.kv.Set(ctx, AccountKey(a.ID), b)
	return err
}

func (r *Repository) ListAccounts(ctx context.Context) ([]*entity.Account, error) {
	entries, err := r.kv.GetByPrefix(ctx, accountPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Account, 0, len(entries))
	for _, e := range entries {
		a := &entity.Account{}
		if err := decode(e.Value, kindAccount, a); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Key, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Repository) GetInvestment(ctx context.Context, id string) (*entity.Investment, error) {
	e, err := r.kv.Get(ctx, InvestmentKey(id))
	if err != nil {
		return nil, err
	}
	inv := &entity.Investment{}
	if err := decode(e.Value, kindInvestment, inv); err != nil {
		return nil, err
	}
	inv.Version = e.Version
	return inv, nil
}

func (r *Repository) PutInvestment(ctx context.Context, inv *entity.Investment) error {
	b, err := encode(kindInvestment, inv)
	if err != nil {
		return err
	}
	v, err := r.kv.SetIfVersion(ctx, InvestmentKey(inv.ID), b, inv.Version)
	if err != nil {
		return err
	}
	inv.Version = v
	return nil
}

func (r *Repository) ScanInvestments(ctx context.Context) ([]*entity.Investment, error) {
	entries, err := r.kv.GetByPrefix(ctx, investmentPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Investment, 0, len(entries))
	for _, e := range entries {
		inv := &entity.Investment{}
		if err := decode(e.Value, kindInvestment, inv); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Key, err)
		}
		inv.Version = e.Version
		out = append(out, inv)
	}
	return out, nil
}

func (r *Repository) ListAllInvestmentIDs(ctx context.Context) ([]string, error) {
	e, err := r.kv.Get(ctx, investmentIndex)
	if errors.Is(err, repository.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	ids := []string{}
	if err := decode(e.Value, kindIndex, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AppendInvestmentID adds id to the global index. The read-modify-write is
// retried on version conflicts so concurrent appends are not lost.
func (r *Repository) AppendInvestmentID(ctx context.Context, id string) error {
	for {
		ids := []string{}
		var version int64
		e, err := r.kv.Get(ctx, investmentIndex)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return err
		default:
			if err := decode(e.Value, kindIndex, &ids); err != nil {
				return err
			}
			version = e.Version
		}
		for _, existing := range ids {
			if existing == id {
				return nil
			}
		}
		b, err := encode(kindIndex, append(ids, id))
		if err != nil {
			return err
		}
		_, err = r.kv.SetIfVersion(ctx, investmentIndex, b, version)
		if errors.Is(err, repository.ErrVersionConflict) {
			if cErr := ctx.Err(); cErr != nil {
				return cErr
			}
			continue
		}
		return err
	}
}

var _ repository.LedgerRepository = (*Repository)(nil)
