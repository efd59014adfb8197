package id

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientID(t *testing.T) {
	tests := []struct {
		in   string
		want ClientID
	}{
		{"1", 1},
		{" 42 ", 42},
		{"65535", 65535},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseClientID(tt.in)
		require.NoError(t, err, "ParseClientID(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseClientID_Invalid(t *testing.T) {
	for _, in := range []string{"", "-1", "65536", "1.5", "abc"} {
		_, err := ParseClientID(in)
		require.Error(t, err, "ParseClientID(%q)", in)
		assert.Contains(t, err.Error(), "invalid client id")
	}
}

func TestParseTxID(t *testing.T) {
	got, err := ParseTxID("4294967295")
	require.NoError(t, err)
	assert.Equal(t, TxID(4294967295), got)

	got, err = ParseTxID(" 3")
	require.NoError(t, err)
	assert.Equal(t, TxID(3), got)
}

func TestParseTxID_Invalid(t *testing.T) {
	for _, in := range []string{"", "-3", "x1"} {
		_, err := ParseTxID(in)
		require.Error(t, err, "ParseTxID(%q)", in)
		assert.ErrorIs(t, err, strconv.ErrSyntax, "ParseTxID(%q)", in)
	}

	_, err := ParseTxID("4294967296")
	assert.ErrorIs(t, err, strconv.ErrRange)
}

func TestString(t *testing.T) {
	assert.Equal(t, "7", ClientID(7).String())
	assert.Equal(t, "123456", TxID(123456).String())
}
