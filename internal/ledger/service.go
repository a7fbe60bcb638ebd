package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownAccount    = errors.New("unknown account")
)

// Service is the chip wallet behind buy-in, rebuy and cash-out. Debit
// either moves the full amount or fails with no effect.
type Service interface {
	Close() error
	// Debit removes amount from the account, ErrInsufficientFunds when
	// the balance does not cover it.
	Debit(ctx context.Context, userID string, amount int64) error
	// Credit adds amount to the account, creating it when missing.
	Credit(ctx context.Context, userID string, amount int64) error
	Balance(ctx context.Context, userID string) (int64, error)
}

// NewServiceFromEnv picks a backend by mode: memory, sqlite, postgres.
// Returns the service plus the resolved backend name for logging.
func NewServiceFromEnv(mode, sqlitePath, postgresDSN string) (Service, string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "memory":
		return NewMemoryService(), "memory", nil
	case "local", "sqlite":
		svc, err := NewSQLiteService(sqlitePath)
		if err != nil {
			return nil, "", err
		}
		return svc, "sqlite", nil
	case "postgres":
		svc, err := NewPostgresService(postgresDSN)
		if err != nil {
			return nil, "", err
		}
		return svc, "postgres", nil
	default:
		return nil, "", fmt.Errorf("unknown ledger mode %q", mode)
	}
}

// MemoryService keeps balances in-process. Default for tests and
// single-node development.
type MemoryService struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewMemoryService() *MemoryService {
	return &MemoryService{balances: make(map[string]int64)}
}

func (s *MemoryService) Close() error { return nil }

func (s *MemoryService) Debit(_ context.Context, userID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative debit %d", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, userID)
	}
	if balance < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, balance, amount)
	}
	s.balances[userID] = balance - amount
	return nil
}

func (s *MemoryService) Credit(_ context.Context, userID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative credit %d", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] += amount
	return nil
}

func (s *MemoryService) Balance(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[userID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAccount, userID)
	}
	return balance, nil
}
