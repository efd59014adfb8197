package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txengine/internal/amount"
)

func assertBalances(t *testing.T, a Account, available, held, total string, locked bool) {
	t.Helper()
	assert.Equal(t, available, a.Available().String(), "available")
	assert.Equal(t, held, a.Held().String(), "held")
	assert.Equal(t, total, a.Total().String(), "total")
	assert.Equal(t, locked, a.Locked(), "locked")
	assert.NoError(t, a.Verify())
}

func TestRestoreAccount(t *testing.T) {
	a := RestoreAccount(1, amount.MustParse("100.0"), amount.MustParse("20.0"), false)
	assert.EqualValues(t, 1, a.Client)
	assertBalances(t, a, "100", "20", "120", false)
}

func TestDeposit(t *testing.T) {
	a := NewAccount(1)
	require.NoError(t, a.Deposit(*amt("50.0")))
	assertBalances(t, *a, "50", "0", "50", false)
}

func TestWithdraw(t *testing.T) {
	a := RestoreAccount(1, amount.MustParse("100.0"), amount.Zero, false)
	require.NoError(t, a.Withdraw(*amt("30.0")))
	assertBalances(t, a, "70", "0", "70", false)
}

func TestWithdraw_Insufficient(t *testing.T) {
	a := RestoreAccount(1, amount.MustParse("1"), amount.MustParse("5"), false)
	err := a.Withdraw(*amt("1.0001"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.ErrorIs(t, err, amount.ErrInsufficient)

	var subErr *amount.SubtractionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, "0.0001", subErr.Deficit().String())

	assertBalances(t, a, "1", "5", "6", false)
}

func TestHold(t *testing.T) {
	a := RestoreAccount(1, amount.MustParse("100.0"), amount.Zero, false)
	require.NoError(t, a.Hold(*amt("20.0")))
	assertBalances(t, a, "80", "20", "100", false)
}

func TestHold_InsufficientLeavesBalancesUnchanged(t *testing.T) {
	a := RestoreAccount(1, amount.MustParse("1"), amount.MustParse("2"), false)
	err := a.Hold(*amt("3"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assertBalances(t, a, "1", "2", "3", false)
}

func TestRelease(t *testing.T) {
	a := RestoreAccount(1, amount.MustParse("100.0"), amount.Zero, false)
	require.NoError(t, a.Hold(*amt("20.0")))
	require.NoError(t, a.Release(*amt("20.0")))
	assertBalances(t, a, "100", "0", "100", false)

	err := a.Release(*amt("0.5"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assertBalances(t, a, "100", "0", "100", false)
}

func TestChargeback(t *testing.T) {
	a := RestoreAccount(1, amount.MustParse("100.0"), amount.MustParse("20.0"), false)
	require.NoError(t, a.Chargeback(*amt("20.0")))
	assertBalances(t, a, "100", "0", "100", true)
}

func TestChargeback_Insufficient(t *testing.T) {
	a := RestoreAccount(1, amount.MustParse("100.0"), amount.MustParse("1"), false)
	err := a.Chargeback(*amt("2"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assertBalances(t, a, "100", "1", "101", false)
}

func TestLocked(t *testing.T) {
	a := RestoreAccount(1, amount.MustParse("100.0"), amount.MustParse("20.0"), true)
	ten := *amt("10.0")

	assert.ErrorIs(t, a.Deposit(ten), ErrAccountLocked)
	assert.ErrorIs(t, a.Withdraw(ten), ErrAccountLocked)
	assert.ErrorIs(t, a.Hold(ten), ErrAccountLocked)
	assert.ErrorIs(t, a.Release(ten), ErrAccountLocked)
	assert.ErrorIs(t, a.Chargeback(ten), ErrAccountLocked)

	assertBalances(t, a, "100", "20", "120", true)
}

func TestLocked_CheckedBeforeFunds(t *testing.T) {
	a := RestoreAccount(1, amount.Zero, amount.Zero, true)
	err := a.Withdraw(*amt("1"))
	assert.ErrorIs(t, err, ErrAccountLocked)
	assert.NotErrorIs(t, err, ErrInsufficientFunds)
}

func TestVerify_DetectsDrift(t *testing.T) {
	a := RestoreAccount(1, amount.MustParse("1"), amount.MustParse("1"), false)
	a.total = amount.MustParse("3")

	err := a.Verify()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "total 3 != available 1 + held 1")
}

func TestVerify_DetectsNegativeBalance(t *testing.T) {
	// A SubtractionError built the wrong way round yields a negative amount.
	negative := (&amount.SubtractionError{Minuend: amount.MustParse("2"), Subtrahend: amount.MustParse("1")}).Deficit()
	require.True(t, negative.IsNegative())

	a := RestoreAccount(1, amount.MustParse("2"), amount.Zero, false)
	a.held = negative
	a.total = amount.Add(a.available, a.held)

	err := a.Verify()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "negative balance")
}

func TestAccountString(t *testing.T) {
	a := RestoreAccount(4, amount.MustParse("1.5"), amount.Zero, true)
	assert.Equal(t, "client 4 available 1.5 held 0 total 1.5 locked true", a.String())
}
