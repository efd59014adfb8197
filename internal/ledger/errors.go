package ledger

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/txengine/internal/model"
)

var (
	// ErrDuplicateTransaction is returned when a deposit or withdrawal reuses an applied id.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")
	// ErrTransactionNotFound is returned when a dispute, resolve or chargeback
	// names an id absent from the client's history.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidReference is returned when the referenced history entry cannot carry an amount.
	ErrInvalidReference = errors.New("invalid transaction reference")
	// ErrInternal marks failures the caller should treat as fatal.
	ErrInternal = errors.New("internal error")

	ErrAccountFrozen      = model.ErrAccountLocked
	ErrInsufficientFunds  = model.ErrInsufficientFunds
	ErrIllegalStateChange = model.ErrIllegalStateChange
)

// ProcessingError ties a failure to the transaction that caused it.
type ProcessingError struct {
	Tx  model.Transaction
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing %s: %v", e.Tx, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
