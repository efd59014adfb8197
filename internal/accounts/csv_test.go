package accounts

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txengine/internal/amount"
	"github.com/cleared-dev/txengine/internal/id"
	"github.com/cleared-dev/txengine/internal/model"
)

func restore(client id.ClientID, available, held string, locked bool) model.Account {
	return model.RestoreAccount(client, amount.MustParse(available), amount.MustParse(held), locked)
}

func precise(t *testing.T, s string) amount.Amount {
	t.Helper()
	a, err := amount.New(decimal.RequireFromString(s))
	require.NoError(t, err)
	return a
}

func TestWriteAccounts(t *testing.T) {
	accounts := []model.Account{
		restore(1, "1.5", "0", false),
		restore(2, "2", "0", false),
		restore(3, "0", "0", true),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	want, err := os.ReadFile("../../testdata/accounts.csv")
	require.NoError(t, err)
	assert.Equal(t, string(want), buf.String())
}

func TestWriteAccounts_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, nil))
	assert.Equal(t, Header+"\n", buf.String())
}

func TestMarshalAccount(t *testing.T) {
	acct := model.RestoreAccount(9, precise(t, "1.23456"), precise(t, "0.00005"), false)
	assert.Equal(t, []string{"9", "1.2346", "0.0001", "1.2346", "false"}, MarshalAccount(acct))

	acct = restore(10, "2.5000", "1.0", true)
	assert.Equal(t, []string{"10", "2.5", "1", "3.5", "true"}, MarshalAccount(acct))
}

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		restore(4, "10.1234", "0.5", false),
		restore(65535, "0", "7", true),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range accounts {
		assert.Equal(t, accounts[i].Client, got[i].Client)
		assert.True(t, accounts[i].Available().Equal(got[i].Available()))
		assert.True(t, accounts[i].Held().Equal(got[i].Held()))
		assert.Equal(t, accounts[i].Locked(), got[i].Locked())
		assert.NoError(t, got[i].Verify())
	}
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/accounts.csv")
	require.NoError(t, err)
	defer f.Close()

	accounts, err := ReadAccounts(f)
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	assert.EqualValues(t, 3, accounts[2].Client)
	assert.True(t, accounts[2].Locked())
	assert.Equal(t, "1.5", accounts[0].Total().String())
}

func TestUnmarshalAccount_Errors(t *testing.T) {
	tests := []struct {
		row  string
		want string
	}{
		{"x,1,0,1,false", "invalid client id"},
		{"1,abc,0,1,false", "parsing available"},
		{"1,1,-1,0,false", "parsing held"},
		{"1,1,0,1.00001,false", "parsing total"},
		{"1,1,0,1,maybe", "parsing locked"},
		{"1,1,1,1,false", "is not available + held"},
		{"1,1,0", "expected 5 fields"},
	}
	for _, tt := range tests {
		_, err := UnmarshalAccount(strings.Split(tt.row, ","))
		require.Error(t, err, tt.row)
		assert.Contains(t, err.Error(), tt.want, tt.row)
	}
}

func TestReadAccounts_BadInput(t *testing.T) {
	_, err := ReadAccounts(strings.NewReader("id,a,b,c,d\n1,1,0,1,false\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected header")

	_, err = ReadAccounts(strings.NewReader(Header + "\n1,1,0,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading accounts CSV")

	_, err = ReadAccounts(strings.NewReader(Header + "\n1,1,0,1,false\n2,1,0,2,false\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")

	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "accounts.csv")
	accounts := []model.Account{restore(1, "3", "1", false)}

	require.NoError(t, Save(path, accounts))

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].Total().String())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
