// Package ledger applies transactions to client accounts.
//
// Each account and its history of deposits and withdrawals sit behind one
// mutex, so a dispute's history lookup, balance move and state change are a
// single critical section. Transaction ids are tracked in a separate
// run-wide registry. Distinct clients can be applied from different
// goroutines; transactions of one client must be applied in input order by
// the caller.
package ledger

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/cleared-dev/txengine/internal/amount"
	"github.com/cleared-dev/txengine/internal/id"
	"github.com/cleared-dev/txengine/internal/model"
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for per-transaction debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Ledger owns every account of a run and the registry of applied ids.
type Ledger struct {
	mu       sync.RWMutex
	books    map[id.ClientID]*book
	registry *registry
	logger   *zap.Logger
}

// book is an account plus the deposits and withdrawals that can still be
// disputed. mu guards both.
type book struct {
	mu      sync.Mutex
	account *model.Account
	history map[id.TxID]model.Transaction
}

// New creates an empty Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		books:    make(map[id.ClientID]*book),
		registry: newRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply applies one transaction to its client's account, creating the
// account on first reference. A non-nil result is always a *ProcessingError;
// the ledger is unchanged when Apply fails, except for the account creation.
func (l *Ledger) Apply(tx model.Transaction) error {
	b := l.book(tx.Client())

	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	switch t := tx.(type) {
	case *model.Deposit:
		err = l.move(b, t, b.account.Deposit)
	case *model.Withdrawal:
		err = l.move(b, t, b.account.Withdraw)
	case model.Dispute:
		err = l.settle(b, t, model.StateDisputed, b.account.Hold)
	case model.Resolve:
		err = l.settle(b, t, model.StateOkay, b.account.Release)
	case model.Chargeback:
		err = l.settle(b, t, model.StateChargedBack, b.account.Chargeback)
		if err == nil {
			delete(b.history, t.TxID())
		}
	default:
		err = fmt.Errorf("%w: unsupported transaction type %T", ErrInternal, tx)
	}

	if err == nil {
		if verr := b.account.Verify(); verr != nil {
			err = fmt.Errorf("%w: %w", ErrInternal, verr)
		}
	}
	if err != nil {
		l.logger.Debug("transaction rejected", zap.Stringer("tx", tx), zap.Error(err))
		return &ProcessingError{Tx: tx, Err: err}
	}

	l.logger.Debug("transaction applied", zap.Stringer("tx", tx), zap.Stringer("account", b.account))
	return nil
}

// move applies a deposit or withdrawal and records it in history.
func (l *Ledger) move(b *book, m model.Movement, op func(amount.Amount) error) error {
	if !l.registry.reserve(m.TxID()) {
		return ErrDuplicateTransaction
	}
	if err := op(m.Amount()); err != nil {
		l.registry.release(m.TxID())
		return err
	}
	b.history[m.TxID()] = m
	return nil
}

// settle moves the referenced transaction's funds with op and its state to
// next. The transition is checked before any balance changes, so either both
// happen or neither does.
func (l *Ledger) settle(b *book, cmd model.Transaction, next model.State, op func(amount.Amount) error) error {
	if b.account.Locked() {
		return ErrAccountFrozen
	}
	ref, ok := b.history[cmd.TxID()]
	if !ok {
		return ErrTransactionNotFound
	}
	m, ok := ref.(model.Movement)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidReference, ref)
	}
	if !model.CanTransition(m.State(), next) {
		return &model.StateError{Tx: m, HasState: true, From: m.State(), To: next}
	}
	if err := op(m.Amount()); err != nil {
		return err
	}
	if err := model.Transition(m, next); err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return nil
}

func (l *Ledger) book(client id.ClientID) *book {
	l.mu.RLock()
	b, ok := l.books[client]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.books[client]; !ok {
		b = &book{
			account: model.NewAccount(client),
			history: make(map[id.TxID]model.Transaction),
		}
		l.books[client] = b
		l.logger.Debug("account opened", zap.Uint16("client", uint16(client)))
	}
	return b
}

// Snapshot returns a copy of every account ordered by client id.
func (l *Ledger) Snapshot() []model.Account {
	l.mu.RLock()
	books := make([]*book, 0, len(l.books))
	for _, b := range l.books {
		books = append(books, b)
	}
	l.mu.RUnlock()

	accounts := make([]model.Account, 0, len(books))
	for _, b := range books {
		b.mu.Lock()
		accounts = append(accounts, *b.account)
		b.mu.Unlock()
	}
	slices.SortFunc(accounts, func(a, b model.Account) int {
		return cmp.Compare(a.Client, b.Client)
	})
	return accounts
}

// Account returns a copy of one client's account.
func (l *Ledger) Account(client id.ClientID) (model.Account, bool) {
	l.mu.RLock()
	b, ok := l.books[client]
	l.mu.RUnlock()
	if !ok {
		return model.Account{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.account, true
}

// State returns the dispute state of a deposit or withdrawal still held in
// the client's history. Charged-back transactions are no longer held.
func (l *Ledger) State(client id.ClientID, tx id.TxID) (model.State, bool) {
	l.mu.RLock()
	b, ok := l.books[client]
	l.mu.RUnlock()
	if !ok {
		return 0, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.history[tx].(model.Movement)
	if !ok {
		return 0, false
	}
	return m.State(), true
}

// Len returns the number of accounts.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.books)
}

// Registered returns the number of transaction ids consumed so far.
func (l *Ledger) Registered() int {
	return l.registry.len()
}
