// Package engine drives a stream of transactions through a ledger.
//
// Records are pulled from a Source and applied either in input order on the
// calling goroutine, or sharded by client id across a fixed set of workers.
// Sharding keeps each client's records in input order while distinct clients
// proceed in parallel.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/txengine/internal/importer"
	"github.com/cleared-dev/txengine/internal/ledger"
	"github.com/cleared-dev/txengine/internal/model"
)

// Source yields transactions. Next returns io.EOF at the end of input and a
// *importer.ParseError for a record that could not be parsed; the stream
// continues after a parse error. Any other error ends the run.
type Source interface {
	Next() (model.Transaction, error)
}

// lineSource is implemented by sources that can report the input line of the
// last record returned.
type lineSource interface {
	Line() int
}

// Stages of a failed record.
const (
	StageParse   = "parse"
	StageProcess = "process"
)

// Result describes one record that failed to parse or to apply.
type Result struct {
	Line int
	Tx   model.Transaction // nil when the record failed to parse
	Err  error
}

// Stage reports where the record failed.
func (r Result) Stage() string {
	if r.Tx == nil {
		return StageParse
	}
	return StageProcess
}

// Reason classifies the failure. See Reason.
func (r Result) Reason() string {
	return Reason(r.Err)
}

// Handler is called once for every failed record. Calls never overlap.
// A non-nil return stops the run and is returned by Run.
type Handler func(Result) error

// Option configures Run.
type Option func(*runner)

// WithWorkers shards records across n workers. n below 2 means sequential.
func WithWorkers(n int) Option {
	return func(r *runner) {
		if n > 1 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger used for run-level output.
func WithLogger(logger *zap.Logger) Option {
	return func(r *runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// OnApplied registers a callback for every successfully applied transaction.
// It is serialised with the Handler.
func OnApplied(fn func(model.Transaction)) Option {
	return func(r *runner) {
		r.applied = fn
	}
}

type runner struct {
	src     Source
	ledger  *ledger.Ledger
	handler Handler
	applied func(model.Transaction)
	workers int
	logger  *zap.Logger

	// mu serialises handler and applied callbacks across workers.
	mu sync.Mutex
}

// item is a parsed record on its way to a worker.
type item struct {
	line int
	tx   model.Transaction
}

// Run applies every record of src to l. Failed records are passed to handler
// and do not stop the run unless handler returns an error. Run returns nil
// at the end of input, the first fatal error otherwise: a source read
// failure, an internal ledger error, a handler error or ctx's error.
func Run(ctx context.Context, src Source, l *ledger.Ledger, handler Handler, opts ...Option) error {
	r := &runner{
		src:     src,
		ledger:  l,
		handler: handler,
		workers: 1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = func(Result) error { return nil }
	}

	r.logger.Debug("run started", zap.Int("workers", r.workers))
	if r.workers == 1 {
		return r.sequential(ctx)
	}
	return r.sharded(ctx)
}

func (r *runner) sequential(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		it, err := r.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if it.tx == nil {
			continue
		}
		if err := r.apply(it); err != nil {
			return err
		}
	}
}

func (r *runner) sharded(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	shards := make([]chan item, r.workers)
	for i := range shards {
		shards[i] = make(chan item, 64)
	}

	g.Go(func() error {
		defer func() {
			for _, ch := range shards {
				close(ch)
			}
		}()
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			it, err := r.next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if it.tx == nil {
				continue
			}
			ch := shards[int(it.tx.Client())%len(shards)]
			select {
			case ch <- it:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	for _, ch := range shards {
		g.Go(func() error {
			for it := range ch {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := r.apply(it); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// next reads one record. A parse failure is reported to the handler and
// yields an empty item.
func (r *runner) next() (item, error) {
	tx, err := r.src.Next()
	if err == nil {
		return item{line: r.line(), tx: tx}, nil
	}
	if err == io.EOF {
		return item{}, io.EOF
	}

	var perr *importer.ParseError
	if !errors.As(err, &perr) {
		return item{}, fmt.Errorf("reading records: %w", err)
	}
	if herr := r.report(Result{Line: perr.Line, Err: err}); herr != nil {
		return item{}, herr
	}
	return item{}, nil
}

func (r *runner) apply(it item) error {
	err := r.ledger.Apply(it.tx)
	if err == nil {
		if r.applied != nil {
			r.mu.Lock()
			r.applied(it.tx)
			r.mu.Unlock()
		}
		return nil
	}
	if errors.Is(err, ledger.ErrInternal) {
		r.logger.Error("internal ledger error", zap.Int("line", it.line), zap.Error(err))
		return err
	}
	return r.report(Result{Line: it.line, Tx: it.tx, Err: err})
}

func (r *runner) report(res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handler(res)
}

func (r *runner) line() int {
	if ls, ok := r.src.(lineSource); ok {
		return ls.Line()
	}
	return 0
}
