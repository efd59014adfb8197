// Package rejectlog records transactions that were rejected during a run.
package rejectlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/txengine/internal/engine"
	"github.com/cleared-dev/txengine/internal/importer"
	"github.com/cleared-dev/txengine/internal/ledger"
	"github.com/cleared-dev/txengine/internal/model"
)

// Entry is one row in the reject log. Type, Client and Tx are empty for
// records that failed to parse.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Stage     string
	Line      int
	Type      model.Kind
	Client    string
	Tx        string
	Reason    string
	Detail    string
}

// Header is the CSV header of a reject log.
const Header = "timestamp,run_id,stage,line,type,client,tx,reason,detail"

const (
	numFields    = 9
	colTimestamp = 0
	colRunID     = 1
	colStage     = 2
	colLine      = 3
	colType      = 4
	colClient    = 5
	colTx        = 6
	colReason    = 7
	colDetail    = 8
)

// NewEntry describes a failed record.
func NewEntry(runID string, at time.Time, res engine.Result) Entry {
	e := Entry{
		Timestamp: at.UTC(),
		RunID:     runID,
		Stage:     res.Stage(),
		Line:      res.Line,
		Reason:    res.Reason(),
		Detail:    detail(res.Err),
	}
	if res.Tx != nil {
		e.Type = res.Tx.Kind()
		e.Client = res.Tx.Client().String()
		e.Tx = res.Tx.TxID().String()
	}
	return e
}

// detail drops the wrapper that only repeats the row's own columns.
func detail(err error) string {
	var perr *importer.ParseError
	if errors.As(err, &perr) {
		return perr.Err.Error()
	}
	var pe *ledger.ProcessingError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339Nano)
	row[colRunID] = e.RunID
	row[colStage] = e.Stage
	if e.Line > 0 {
		row[colLine] = strconv.Itoa(e.Line)
	}
	row[colType] = string(e.Type)
	row[colClient] = e.Client
	row[colTx] = e.Tx
	row[colReason] = e.Reason
	row[colDetail] = e.Detail
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339Nano, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var line int
	if record[colLine] != "" {
		line, err = strconv.Atoi(record[colLine])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing line %q: %w", record[colLine], err)
		}
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Stage:     record[colStage],
		Line:      line,
		Type:      model.Kind(record[colType]),
		Client:    record[colClient],
		Tx:        record[colTx],
		Reason:    record[colReason],
		Detail:    record[colDetail],
	}, nil
}

// Writer appends entries to a reject log file.
type Writer struct {
	f  *os.File
	cw *csv.Writer
}

// Open opens path for appending, creating it and its directory if needed.
// A header is written when the file is new or empty.
func Open(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating reject log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening reject log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening reject log: %w", err)
	}

	w := &Writer{f: f, cw: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := w.cw.Write(strings.Split(Header, ",")); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}
	return w, nil
}

// Write buffers one entry. Entries reach the file on Flush or Close.
func (w *Writer) Write(e Entry) error {
	if err := w.cw.Write(MarshalEntry(e)); err != nil {
		return fmt.Errorf("writing reject: %w", err)
	}
	return nil
}

// Flush writes buffered entries to the file.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	ferr := w.Flush()
	cerr := w.f.Close()
	return errors.Join(ferr, cerr)
}

// Append writes entries to path in one go.
func Append(path string, entries []Entry) error {
	w, err := Open(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write(e); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// Read returns all entries from path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening reject log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading reject log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
