package model

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/txengine/internal/amount"
	"github.com/cleared-dev/txengine/internal/id"
)

var (
	// ErrAccountLocked is returned by every mutation on a locked account.
	ErrAccountLocked = errors.New("account locked")
	// ErrInsufficientFunds wraps the *amount.SubtractionError of the failed operation.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvariant reports that total no longer equals available + held, or
	// that a balance went negative.
	ErrInvariant = errors.New("account invariant violated")
)

// Account is a client's balance. Total is kept equal to Available + Held on
// every write; once Locked, every mutation fails.
type Account struct {
	Client    id.ClientID
	available amount.Amount
	held      amount.Amount
	total     amount.Amount
	locked    bool
}

// NewAccount returns an empty, unlocked account.
func NewAccount(client id.ClientID) *Account {
	return &Account{Client: client}
}

// RestoreAccount rebuilds an account from previously reported balances.
func RestoreAccount(client id.ClientID, available, held amount.Amount, locked bool) Account {
	a := Account{Client: client, locked: locked}
	a.set(available, held)
	return a
}

func (a Account) Available() amount.Amount { return a.available }
func (a Account) Held() amount.Amount      { return a.held }
func (a Account) Locked() bool             { return a.locked }

// Total re-derives available + held.
func (a Account) Total() amount.Amount {
	return amount.Add(a.available, a.held)
}

// Verify checks that no balance is negative and that the incrementally
// maintained total matches Total().
func (a Account) Verify() error {
	if a.available.IsNegative() || a.held.IsNegative() || a.total.IsNegative() {
		return fmt.Errorf("%w: client %d has a negative balance: available %s held %s total %s",
			ErrInvariant, a.Client, a.available, a.held, a.total)
	}
	if derived := a.Total(); !a.total.Equal(derived) {
		return fmt.Errorf("%w: client %d total %s != available %s + held %s",
			ErrInvariant, a.Client, a.total, a.available, a.held)
	}
	return nil
}

// Deposit adds amt to available.
func (a *Account) Deposit(amt amount.Amount) error {
	if a.locked {
		return ErrAccountLocked
	}
	a.set(amount.Add(a.available, amt), a.held)
	return nil
}

// Withdraw removes amt from available.
func (a *Account) Withdraw(amt amount.Amount) error {
	if a.locked {
		return ErrAccountLocked
	}
	available, err := amount.CheckedSub(a.available, amt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	a.set(available, a.held)
	return nil
}

// Hold moves amt from available to held. It fails when available has since
// been spent below amt.
func (a *Account) Hold(amt amount.Amount) error {
	if a.locked {
		return ErrAccountLocked
	}
	available, err := amount.CheckedSub(a.available, amt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	a.set(available, amount.Add(a.held, amt))
	return nil
}

// Release moves amt from held back to available.
func (a *Account) Release(amt amount.Amount) error {
	if a.locked {
		return ErrAccountLocked
	}
	held, err := amount.CheckedSub(a.held, amt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	a.set(amount.Add(a.available, amt), held)
	return nil
}

// Chargeback removes amt from held and locks the account, even when held
// ends up at zero.
func (a *Account) Chargeback(amt amount.Amount) error {
	if a.locked {
		return ErrAccountLocked
	}
	held, err := amount.CheckedSub(a.held, amt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	a.set(a.available, held)
	a.locked = true
	return nil
}

func (a *Account) set(available, held amount.Amount) {
	a.available = available
	a.held = held
	a.total = amount.Add(available, held)
}

func (a Account) String() string {
	return fmt.Sprintf("client %d available %s held %s total %s locked %t",
		a.Client, a.available, a.held, a.total, a.locked)
}
