package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
	"github.com/oksasatya/invest-payout-engine/internal/infrastructure/kvledger"
	"github.com/oksasatya/invest-payout-engine/internal/infrastructure/lock"
	"github.com/oksasatya/invest-payout-engine/internal/infrastructure/memory"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

func init() { helpers.PasswordCost = bcrypt.MinCost }

func newAccountService() *AccountService {
	ledger := kvledger.NewRepository(memory.NewKVStore())
	jwt := helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour)
	return NewAccountService(ledger, lock.NewKeyed(), jwt, nil, nil)
}

func TestSignupAndLogin(t *testing.T) {
	s := newAccountService()
	ctx := context.Background()

	a, err := s.Signup(ctx, " Ada ", "Ada@Example.com ", "s3cret-pass")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if a.Role != entity.RoleInvestor || a.Email != "ada@example.com" || a.Name != "Ada" {
		t.Fatalf("unexpected account: %+v", a)
	}
	if a.PasswordHash == "" || a.PasswordHash == "s3cret-pass" {
		t.Fatal("password not hashed")
	}

	if _, err := s.Signup(ctx, "Other", "ada@example.com", "x"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email: expected ErrEmailTaken, got %v", err)
	}

	if _, _, err := s.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := s.Login(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}

	resp, pair, err := s.Login(ctx, "ADA@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.UserID != a.ID || resp.Role != entity.RoleInvestor {
		t.Fatalf("unexpected login response: %+v", resp)
	}
	claims, err := s.JWT.ParseAccessToken(pair.AccessToken)
	if err != nil || claims.UserID != a.ID {
		t.Fatalf("access token does not identify account: %v %+v", err, claims)
	}

	rotated, uid, err := s.Refresh(ctx, pair.RefreshToken)
	if err != nil || uid != a.ID || rotated.AccessToken == "" {
		t.Fatalf("refresh: %v uid=%s", err, uid)
	}
	if _, _, err := s.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("access token used as refresh: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	s := newAccountService()
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Signup(ctx, "Dup", "dup@example.com", "pw"); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("created %d accounts for one email", created)
	}
}

func TestCreateAdminAndProfile(t *testing.T) {
	s := newAccountService()
	ctx := context.Background()

	a, err := s.CreateAdmin(ctx, "Root", "root@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if !a.IsAdmin() {
		t.Fatalf("role = %s", a.Role)
	}
	p, err := s.GetProfile(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.PasswordHash != "" {
		t.Fatal("profile leaks password hash")
	}
	if _, err := s.GetProfile(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !s.SessionValid(ctx, a.ID, "anything") {
		t.Fatal("without redis every session is valid")
	}
	if err := s.Logout(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
}
