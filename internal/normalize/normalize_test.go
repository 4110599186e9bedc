package normalize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentifier(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"交易时间", "交易时间"},
		{"金额(元)", "金额元"},
		{"收/支", "收支"},
		{"Amount (AUD)", "amountaud"},
		{"3rd_party", "col_3rd_party"},
		{"  ", ""},
		{"---", ""},
		{"Pay_Time", "pay_time"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Identifier(c.in), "input %q", c.in)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, KindAmount, KindOf("金额元"))
	require.Equal(t, KindAmount, KindOf("服务费"))
	require.Equal(t, KindAmount, KindOf("退款金额"))
	require.Equal(t, KindText, KindOf("交易对方"))
	require.Equal(t, KindText, KindOf("pay_note"))

	require.Equal(t, "REAL", KindAmount.SQLType())
	require.Equal(t, "TEXT", KindText.SQLType())
}

func TestAmount(t *testing.T) {
	t.Parallel()

	v, ok := Amount("¥1,234.56")
	require.True(t, ok)
	require.InDelta(t, 1234.56, v, 1e-9)

	v, ok = Amount("-20")
	require.True(t, ok)
	require.InDelta(t, -20, v, 1e-9)

	v, ok = Amount("")
	require.False(t, ok)
	require.Zero(t, v)

	v, ok = Amount("N/A")
	require.False(t, ok)
	require.Zero(t, v)

	// Multiple stray separators collapse into an unparsable string.
	_, ok = Amount("1.2.3.4-")
	require.False(t, ok)
}

func TestAmountIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"¥1,234.56", "0.01", "-99", "100,000", "¥0.00"}
	for _, in := range inputs {
		first, ok := Amount(in)
		require.True(t, ok, "input %q", in)
		second, ok := Amount(fmt.Sprintf("%v", first))
		require.True(t, ok)
		require.Equal(t, first, second, "input %q", in)
	}
}
