package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
	repo "github.com/oksasatya/invest-payout-engine/internal/domain/repository"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

const sessionTTL = 24 * time.Hour

type AccountService struct {
	Repo   repo.AccountRepository
	Locker Locker
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type LoginResponse struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Name   string      `json:"name"`
	Role   entity.Role `json:"role"`
}

func sessionKey(userID string) string {
	return "account:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func NewAccountService(accounts repo.AccountRepository, locker Locker, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *AccountService {
	return &AccountService{
		Repo:   accounts,
		Locker: locker,
		JWT:    jwt,
		Redis:  rdb,
		Logger: logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers an investor account.
func (s *AccountService) Signup(ctx context.Context, name, email, password string) (*entity.Account, error) {
	return s.register(ctx, name, email, password, entity.RoleInvestor)
}

// CreateAdmin registers an administrator. It is reachable from the seed and
// operator commands only, never from the public HTTP surface.
func (s *AccountService) CreateAdmin(ctx context.Context, name, email, password string) (*entity.Account, error) {
	return s.register(ctx, name, email, password, entity.RoleAdmin)
}

func (s *AccountService) register(ctx context.Context, name, email, password string, role entity.Role) (*entity.Account, error) {
	email = normalizeEmail(email)
	unlock, err := s.Locker.Lock(ctx, emailLockKey(email))
	if err != nil {
		return nil, wrapInternal("lock email", err)
	}
	defer unlock()

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, wrapInternal("hash password", err)
	}
	now := time.Now().UTC()
	a := &entity.Account{
		ID:            uuid.NewString(),
		Email:         email,
		Name:          strings.TrimSpace(name),
		Role:          role,
		PasswordHash:  hash,
		InvestmentIDs: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.PutAccount(ctx, a); err != nil {
		return nil, wrapInternal("persist account", err)
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": a.ID, "role": role}).Info("account registered")
	}
	return a, nil
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (*entity.Account, error) {
	accts, err := s.Repo.ListAccounts(ctx)
	if err != nil {
		return nil, wrapInternal("list accounts", err)
	}
	for _, a := range accts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, nil
}

// Authenticate validates email/password and returns the account without issuing tokens.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*entity.Account, error) {
	a, err := s.findByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if a == nil || !helpers.CompareHashAndPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *AccountService) IssueTokens(ctx context.Context, a *entity.Account) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.sign(a.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", a.ID).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    a.ID,
			"email":      a.Email,
			"role":       string(a.Role),
			"sid":        sid,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(a.ID)
		if rErr := helpers.RedisHSetTTL(ctx, s.Redis, key, fields, sessionTTL); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("session write failed")
		}
	}
	return pair, nil
}

func (s *AccountService) sign(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	a, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, a)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &LoginResponse{UserID: a.ID, Email: a.Email, Name: a.Name, Role: a.Role}, pair, nil
}

// Refresh rotates the session id and both tokens.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	a, err := s.Repo.GetAccount(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if !s.SessionValid(ctx, a.ID, claims.SessionID) {
		return TokenPair{}, "", ErrInvalidCredentials
	}

	sid := uuid.NewString()
	pair, err := s.sign(a.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		fields := map[string]any{"sid": sid, "updated_at": nowRFC3339()}
		if rErr := helpers.RedisHSetTTL(ctx, s.Redis, sessionKey(a.ID), fields, sessionTTL); rErr != nil {
			return TokenPair{}, "", wrapInternal("rotate session", rErr)
		}
	}
	return pair, a.ID, nil
}

// SessionValid reports whether sid is the current session of userID.
// Without Redis every signed token is accepted.
func (s *AccountService) SessionValid(ctx context.Context, userID, sid string) bool {
	if s.Redis == nil {
		return true
	}
	current, err := helpers.RedisHGet(ctx, s.Redis, sessionKey(userID), "sid")
	if err != nil || current == "" {
		return false
	}
	return current == sid
}

// Logout drops the server-side session so outstanding tokens stop working.
func (s *AccountService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return helpers.RedisDel(ctx, s.Redis, sessionKey(userID))
}

// GetProfile returns the account with credentials stripped.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*entity.Account, error) {
	a, err := s.Repo.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, wrapInternal("load account", err)
	}
	a.PasswordHash = ""
	return a, nil
}
