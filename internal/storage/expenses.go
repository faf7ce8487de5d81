package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	applog "bill-tracker/internal/log"
	"bill-tracker/internal/models"
)

// DefaultKey is the key the expense collection is stored under.
const DefaultKey = "expenses"

// ExpenseStore persists the whole expense collection as one JSON array.
type ExpenseStore struct {
	kv     KV
	key    string
	logger *applog.Logger
}

// NewExpenseStore creates a store writing to key in kv. An empty key means DefaultKey.
func NewExpenseStore(kv KV, key string, logger *applog.Logger) *ExpenseStore {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = applog.Nop()
	}
	return &ExpenseStore{kv: kv, key: key, logger: logger.WithComponent(applog.ComponentStorage)}
}

// Load reads the stored collection. A missing, unreadable or corrupt blob
// yields an empty collection; the problem is logged and never returned.
func (s *ExpenseStore) Load(ctx context.Context) []models.Expense {
	blob, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return []models.Expense{}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read expenses", "key", s.key, "error", err)
		return []models.Expense{}
	}

	var expenses []models.Expense
	if err := json.Unmarshal(blob, &expenses); err != nil {
		s.logger.WarnContext(ctx, "stored expenses are corrupt, starting empty", "key", s.key, "error", err)
		return []models.Expense{}
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return expenses
}

// Save overwrites the stored collection. On failure the previous blob is
// left in place and the error is logged and returned.
func (s *ExpenseStore) Save(ctx context.Context, expenses []models.Expense) error {
	if expenses == nil {
		expenses = []models.Expense{}
	}
	blob, err := json.Marshal(expenses)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode expenses", "error", err)
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, blob); err != nil {
		s.logger.ErrorContext(ctx, "failed to save expenses", "key", s.key, "count", len(expenses), "error", err)
		return fmt.Errorf("save expenses: %w", err)
	}
	s.logger.DebugContext(ctx, "expenses saved", "key", s.key, "count", len(expenses))
	return nil
}
