package model

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/txengine/internal/amount"
	"github.com/cleared-dev/txengine/internal/id"
)

// Kind names a transaction variant as it appears in input files.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return true
	}
	return false
}

// HasAmount reports whether transactions of this kind carry an amount.
func (k Kind) HasAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// State is the dispute lifecycle of a deposit or withdrawal.
type State int

const (
	StateOkay State = iota
	StateDisputed
	StateChargedBack
)

func (s State) String() string {
	switch s {
	case StateOkay:
		return "okay"
	case StateDisputed:
		return "disputed"
	case StateChargedBack:
		return "charged back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrIllegalStateChange is matched by every *StateError.
var ErrIllegalStateChange = errors.New("illegal state change")

// StateError reports a rejected transition. HasState is false when the
// transaction is a command (dispute, resolve, chargeback) with no state at all.
type StateError struct {
	Tx       Transaction
	HasState bool
	From     State
	To       State
}

func (e *StateError) Error() string {
	if !e.HasState {
		return fmt.Sprintf("%s: %s has no state to move to %s", ErrIllegalStateChange, e.Tx, e.To)
	}
	return fmt.Sprintf("%s: %s: %s -> %s", ErrIllegalStateChange, e.Tx, e.From, e.To)
}

// Is makes errors.Is(err, ErrIllegalStateChange) hold.
func (e *StateError) Is(target error) bool {
	return target == ErrIllegalStateChange
}

// transitions lists every allowed move. ChargedBack is terminal.
var transitions = map[State]map[State]struct{}{
	StateOkay:     {StateDisputed: {}},
	StateDisputed: {StateOkay: {}, StateChargedBack: {}},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	_, ok := transitions[from][to]
	return ok
}

// Transaction is one of *Deposit, *Withdrawal, Dispute, Resolve or Chargeback.
type Transaction interface {
	Kind() Kind
	// TxID is the transaction's own id for deposits and withdrawals, and the
	// referenced id for commands.
	TxID() id.TxID
	Client() id.ClientID
	String() string
	transaction()
}

// Movement is a transaction that moves funds and carries a dispute state.
type Movement interface {
	Transaction
	Amount() amount.Amount
	State() State
}

type stateful interface {
	stateRef() *State
}

// Transition moves tx to the given state, enforcing the dispute lifecycle.
func Transition(tx Transaction, to State) error {
	s, ok := tx.(stateful)
	if !ok {
		return &StateError{Tx: tx, To: to}
	}
	ref := s.stateRef()
	if !CanTransition(*ref, to) {
		return &StateError{Tx: tx, HasState: true, From: *ref, To: to}
	}
	*ref = to
	return nil
}

// movement holds the fields shared by deposits and withdrawals.
type movement struct {
	id     id.TxID
	client id.ClientID
	amount amount.Amount
	state  State
}

func (m *movement) TxID() id.TxID         { return m.id }
func (m *movement) Client() id.ClientID   { return m.client }
func (m *movement) Amount() amount.Amount { return m.amount }
func (m *movement) State() State          { return m.state }
func (m *movement) stateRef() *State      { return &m.state }
func (m *movement) format(k Kind) string {
	return fmt.Sprintf("%s tx %d client %d amount %s (%s)", k, m.id, m.client, m.amount, m.state)
}

// Deposit credits a client's available balance.
type Deposit struct{ movement }

// NewDeposit returns a deposit in StateOkay.
func NewDeposit(tx id.TxID, client id.ClientID, amt amount.Amount) *Deposit {
	return &Deposit{movement{id: tx, client: client, amount: amt}}
}

func (d *Deposit) Kind() Kind     { return KindDeposit }
func (d *Deposit) String() string { return d.format(KindDeposit) }
func (d *Deposit) transaction()   {}

// Withdrawal debits a client's available balance.
type Withdrawal struct{ movement }

// NewWithdrawal returns a withdrawal in StateOkay.
func NewWithdrawal(tx id.TxID, client id.ClientID, amt amount.Amount) *Withdrawal {
	return &Withdrawal{movement{id: tx, client: client, amount: amt}}
}

func (w *Withdrawal) Kind() Kind     { return KindWithdrawal }
func (w *Withdrawal) String() string { return w.format(KindWithdrawal) }
func (w *Withdrawal) transaction()   {}

// command holds the fields shared by dispute, resolve and chargeback.
type command struct {
	ref    id.TxID
	client id.ClientID
}

func (c command) TxID() id.TxID       { return c.ref }
func (c command) Client() id.ClientID { return c.client }
func (c command) format(k Kind) string {
	return fmt.Sprintf("%s of tx %d client %d", k, c.ref, c.client)
}

// Dispute claims that a prior deposit or withdrawal was erroneous.
type Dispute struct{ command }

// NewDispute references transaction ref of client.
func NewDispute(ref id.TxID, client id.ClientID) Dispute {
	return Dispute{command{ref: ref, client: client}}
}

func (d Dispute) Kind() Kind     { return KindDispute }
func (d Dispute) String() string { return d.format(KindDispute) }
func (d Dispute) transaction()   {}

// Resolve withdraws a dispute.
type Resolve struct{ command }

// NewResolve references transaction ref of client.
func NewResolve(ref id.TxID, client id.ClientID) Resolve {
	return Resolve{command{ref: ref, client: client}}
}

func (r Resolve) Kind() Kind     { return KindResolve }
func (r Resolve) String() string { return r.format(KindResolve) }
func (r Resolve) transaction()   {}

// Chargeback upholds a dispute.
type Chargeback struct{ command }

// NewChargeback references transaction ref of client.
func NewChargeback(ref id.TxID, client id.ClientID) Chargeback {
	return Chargeback{command{ref: ref, client: client}}
}

func (c Chargeback) Kind() Kind     { return KindChargeback }
func (c Chargeback) String() string { return c.format(KindChargeback) }
func (c Chargeback) transaction()   {}

// New builds the transaction described by an input record. amt must be set
// exactly when kind.HasAmount().
func New(kind Kind, tx id.TxID, client id.ClientID, amt *amount.Amount) (Transaction, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown transaction type %q", kind)
	}
	if kind.HasAmount() && amt == nil {
		return nil, fmt.Errorf("transaction with type %s must have an amount", kind)
	}
	if !kind.HasAmount() && amt != nil {
		return nil, fmt.Errorf("transaction with type %s cannot have an amount", kind)
	}
	switch kind {
	case KindDeposit:
		return NewDeposit(tx, client, *amt), nil
	case KindWithdrawal:
		return NewWithdrawal(tx, client, *amt), nil
	case KindDispute:
		return NewDispute(tx, client), nil
	case KindResolve:
		return NewResolve(tx, client), nil
	default:
		return NewChargeback(tx, client), nil
	}
}
