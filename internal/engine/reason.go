package engine

import (
	"errors"

	"github.com/cleared-dev/txengine/internal/importer"
	"github.com/cleared-dev/txengine/internal/ledger"
)

// Reject reasons. They are stable and used as metric labels.
const (
	ReasonParse             = "parse"
	ReasonDuplicate         = "duplicate"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonFrozen            = "frozen"
	ReasonNotFound          = "not_found"
	ReasonInvalidReference  = "invalid_reference"
	ReasonIllegalState      = "illegal_state"
	ReasonInternal          = "internal"
	ReasonUnknown           = "unknown"
)

// Reason maps an error from the importer or the ledger to a reject reason.
func Reason(err error) string {
	var perr *importer.ParseError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &perr):
		return ReasonParse
	case errors.Is(err, ledger.ErrInternal):
		return ReasonInternal
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return ReasonDuplicate
	case errors.Is(err, ledger.ErrAccountFrozen):
		return ReasonFrozen
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, ledger.ErrTransactionNotFound):
		return ReasonNotFound
	case errors.Is(err, ledger.ErrInvalidReference):
		return ReasonInvalidReference
	case errors.Is(err, ledger.ErrIllegalStateChange):
		return ReasonIllegalState
	default:
		return ReasonUnknown
	}
}
