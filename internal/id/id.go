package id

import (
	"fmt"
	"strconv"
	"strings"
)

// ClientID identifies a client account.
type ClientID uint16

// TxID identifies a transaction. Ids are unique across all clients.
type TxID uint32

// String returns the decimal form of the client id.
func (c ClientID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// String returns the decimal form of the transaction id.
func (t TxID) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// ParseClientID parses a client id such as "1" or " 42 ".
func ParseClientID(s string) (ClientID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid client id %q: %w", s, err)
	}
	return ClientID(n), nil
}

// ParseTxID parses a transaction id such as "7".
func ParseTxID(s string) (TxID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid transaction id %q: %w", s, err)
	}
	return TxID(n), nil
}
