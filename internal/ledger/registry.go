package ledger

import (
	"sync"

	"github.com/cleared-dev/txengine/internal/id"
)

// registry is the run-wide set of ids applied as deposits or withdrawals.
// An id is reserved before the account is touched and released if the
// account rejects the transaction, so a failed id is never consumed.
type registry struct {
	mu  sync.Mutex
	ids map[id.TxID]struct{}
}

func newRegistry() *registry {
	return &registry{ids: make(map[id.TxID]struct{})}
}

// reserve claims tx and reports whether it was free.
func (r *registry) reserve(tx id.TxID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.ids[tx]; taken {
		return false
	}
	r.ids[tx] = struct{}{}
	return true
}

func (r *registry) release(tx id.TxID) {
	r.mu.Lock()
	delete(r.ids, tx)
	r.mu.Unlock()
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}
