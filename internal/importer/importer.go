// Package importer reads transaction records from CSV one row at a time.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/txengine/internal/amount"
	"github.com/cleared-dev/txengine/internal/id"
	"github.com/cleared-dev/txengine/internal/model"
)

// Header is the canonical header of a transactions file. Columns are matched
// by name, so any order is accepted; amount may be omitted entirely.
const Header = "type,client,tx,amount"

const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// ParseError reports a row that could not be turned into a transaction.
// It does not stop the stream.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader streams transactions from a CSV source.
type Reader struct {
	cr   *csv.Reader
	cols map[string]int
	line int
}

// NewReader creates a Reader. The header is read on the first call to Next.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &Reader{cr: cr}
}

// Next returns the next transaction. It returns io.EOF at the end of input,
// a *ParseError for a bad row (call Next again to continue), and any other
// error when the input itself cannot be read.
func (r *Reader) Next() (model.Transaction, error) {
	if r.cols == nil {
		if err := r.readHeader(); err != nil {
			return nil, err
		}
	}

	rec, err := r.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			r.line = csvErr.Line
			return nil, &ParseError{Line: csvErr.Line, Err: err}
		}
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	r.line, _ = r.cr.FieldPos(0)
	tx, err := r.unmarshal(rec)
	if err != nil {
		return nil, &ParseError{Line: r.line, Err: err}
	}
	return tx, nil
}

// Line returns the input line of the record last returned by Next.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) readHeader() error {
	rec, err := r.cr.Read()
	if err == io.EOF {
		return io.EOF
	}
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(rec))
	for i, name := range rec {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colType, colClient, colTx} {
		if _, ok := cols[required]; !ok {
			return fmt.Errorf("reading header: missing column %q (want %q)", required, Header)
		}
	}
	r.cols = cols
	return nil
}

func (r *Reader) field(rec []string, name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (r *Reader) unmarshal(rec []string) (model.Transaction, error) {
	kind := model.Kind(strings.ToLower(r.field(rec, colType)))
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown transaction type %q", r.field(rec, colType))
	}

	client, err := id.ParseClientID(r.field(rec, colClient))
	if err != nil {
		return nil, err
	}

	tx, err := id.ParseTxID(r.field(rec, colTx))
	if err != nil {
		return nil, err
	}

	var amt *amount.Amount
	if s := r.field(rec, colAmount); s != "" {
		a, err := amount.Parse(s)
		if err != nil {
			return nil, err
		}
		amt = &a
	}

	return model.New(kind, tx, client, amt)
}
