// Package accounts writes and reads the account snapshot CSV.
package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/txengine/internal/amount"
	"github.com/cleared-dev/txengine/internal/id"
	"github.com/cleared-dev/txengine/internal/model"
)

// Header is the header row of a snapshot.
const Header = "client,available,held,total,locked"

const (
	numFields    = 5
	colClient    = 0
	colAvailable = 1
	colHeld      = 2
	colTotal     = 3
	colLocked    = 4
)

// ReadAccounts reads a snapshot written by WriteAccounts.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected header %q (want %q)", got, Header)
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes the snapshot, one row per account in the given order.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row. Amounts are rounded to
// four decimal places.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colClient] = acct.Client.String()
	row[colAvailable] = acct.Available().String()
	row[colHeld] = acct.Held().String()
	row[colTotal] = acct.Total().String()
	row[colLocked] = strconv.FormatBool(acct.Locked())
	return row
}

// UnmarshalAccount converts a CSV row to an Account. The total column must
// equal available plus held.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	client, err := id.ParseClientID(strings.TrimSpace(record[colClient]))
	if err != nil {
		return model.Account{}, err
	}

	available, err := amount.Parse(record[colAvailable])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing available %q: %w", record[colAvailable], err)
	}
	held, err := amount.Parse(record[colHeld])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing held %q: %w", record[colHeld], err)
	}
	total, err := amount.Parse(record[colTotal])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing total %q: %w", record[colTotal], err)
	}

	locked, err := strconv.ParseBool(strings.TrimSpace(record[colLocked]))
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing locked %q: %w", record[colLocked], err)
	}

	acct := model.RestoreAccount(client, available, held, locked)
	if !acct.Total().Equal(total) {
		return model.Account{}, fmt.Errorf("client %s: total %s is not available + held (%s)", client, total, acct.Total())
	}
	return acct, nil
}
