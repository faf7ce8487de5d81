// Package ledger holds the in-memory expense collection and mirrors every
// change to a Store.
package ledger

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	applog "bill-tracker/internal/log"
	"bill-tracker/internal/models"
)

// ErrNotFound is returned when an id does not match any expense.
var ErrNotFound = errors.New("expense not found")

var errUnchanged = errors.New("unchanged")

// Store loads and saves the full collection.
type Store interface {
	Load(ctx context.Context) []models.Expense
	Save(ctx context.Context, expenses []models.Expense) error
}

// Listener is notified with a snapshot after every mutation.
type Listener func(expenses []models.Expense)

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used to derive ids.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(logger *applog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// Ledger is the expense repository. The collection keeps insertion order.
type Ledger struct {
	mu        sync.Mutex
	store     Store
	expenses  []models.Expense
	lastID    int64
	now       func() time.Time
	logger    *applog.Logger
	listeners map[int]Listener
	nextSub   int
	saveErr   error
}

// New loads the collection from store once.
func New(ctx context.Context, store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = applog.Nop()
	}
	l.logger = l.logger.WithComponent(applog.ComponentLedger)

	l.expenses = store.Load(ctx)
	for _, e := range l.expenses {
		l.lastID = max(l.lastID, e.ID)
	}
	l.logger.DebugContext(ctx, "expenses loaded", "count", len(l.expenses))
	return l
}

// All returns a copy of the collection in insertion order.
func (l *Ledger) All() []models.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.expenses)
}

// Len returns the number of expenses.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.expenses)
}

// Get returns the expense with the given id.
func (l *Ledger) Get(id int64) (models.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return models.Expense{}, ErrNotFound
	}
	return l.expenses[i], nil
}

// Add appends a new unpaid expense built from d.
func (l *Ledger) Add(ctx context.Context, d models.Draft) models.Expense {
	var e models.Expense
	_ = l.mutate(ctx, func() error {
		e = models.Expense{ID: l.nextID(), Paid: false}
		e.Apply(d)
		l.expenses = append(l.expenses, e)
		l.logger.InfoContext(ctx, "expense added", "id", e.ID, "name", e.Name, "amount", e.Amount.String())
		return nil
	})
	return e
}

// Update replaces the mutable fields of the expense with the given id.
func (l *Ledger) Update(ctx context.Context, id int64, d models.Draft) (models.Expense, error) {
	var e models.Expense
	err := l.mutate(ctx, func() error {
		i := l.indexOf(id)
		if i < 0 {
			return ErrNotFound
		}
		l.expenses[i].Apply(d)
		e = l.expenses[i]
		l.logger.InfoContext(ctx, "expense updated", "id", id)
		return nil
	})
	return e, err
}

// Delete removes the expense with the given id. Unknown ids are ignored.
func (l *Ledger) Delete(ctx context.Context, id int64) {
	_ = l.mutate(ctx, func() error {
		i := l.indexOf(id)
		if i < 0 {
			return errUnchanged
		}
		l.expenses = slices.Delete(l.expenses, i, i+1)
		l.logger.InfoContext(ctx, "expense deleted", "id", id)
		return nil
	})
}

// TogglePaid flips the paid flag of the expense with the given id.
func (l *Ledger) TogglePaid(ctx context.Context, id int64) (models.Expense, error) {
	var e models.Expense
	err := l.mutate(ctx, func() error {
		i := l.indexOf(id)
		if i < 0 {
			return ErrNotFound
		}
		l.expenses[i].Paid = !l.expenses[i].Paid
		e = l.expenses[i]
		l.logger.InfoContext(ctx, "expense paid toggled", "id", id, "paid", e.Paid)
		return nil
	})
	return e, err
}

// Subscribe registers fn for change notifications. Call cancel to stop.
func (l *Ledger) Subscribe(fn Listener) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSub
	l.nextSub++
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

// LastSaveError returns the error of the most recent save, or nil if it
// succeeded. The in-memory collection stays authoritative either way.
func (l *Ledger) LastSaveError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveErr
}

func (l *Ledger) indexOf(id int64) int {
	return slices.IndexFunc(l.expenses, func(e models.Expense) bool { return e.ID == id })
}

// nextID derives an id from the clock, bumping past the last issued one.
func (l *Ledger) nextID() int64 {
	id := l.now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

// mutate runs fn under the lock, then saves and notifies listeners. fn
// returning an error leaves the collection untouched and skips both.
func (l *Ledger) mutate(ctx context.Context, fn func() error) error {
	l.mu.Lock()
	if err := fn(); err != nil {
		l.mu.Unlock()
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}

	snapshot := slices.Clone(l.expenses)
	l.saveErr = l.store.Save(ctx, snapshot)
	if l.saveErr != nil {
		l.logger.WarnContext(ctx, "persisted copy is stale", "error", l.saveErr)
	}
	listeners := make([]Listener, 0, len(l.listeners))
	for _, listener := range l.listeners {
		listeners = append(listeners, listener)
	}
	l.mu.Unlock()

	for _, notify := range listeners {
		notify(slices.Clone(snapshot))
	}
	return nil
}
