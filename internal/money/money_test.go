package money

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cents int64
		err   error
	}{
		{name: "integer", input: "100", cents: 10_000},
		{name: "two decimals", input: "200.20", cents: 20_020},
		{name: "one decimal", input: "10.1", cents: 1_010},
		{name: "zero", input: "0", cents: 0},
		{name: "surrounding spaces", input: " 5.05 ", cents: 505},
		{name: "negative", input: "-3.50", cents: -350},
		{name: "eight integer digits", input: "12345678.12", cents: 1_234_567_812},
		{name: "upper bound", input: "99999999.99", cents: 9_999_999_999},
		{name: "three decimals", input: "10.123", err: ErrInvalidFormat},
		{name: "trailing zero past scale", input: "1.500", err: ErrInvalidFormat},
		{name: "nine integer digits", input: "123456789", err: ErrInvalidFormat},
		{name: "too many digits", input: "12345678901.12", err: ErrInvalidFormat},
		{name: "empty", input: "", err: ErrInvalidFormat},
		{name: "not a number", input: "ten", err: ErrInvalidFormat},
		{name: "comma separator", input: "1,50", err: ErrInvalidFormat},
		{name: "exponent", input: "1e2", cents: 10_000},
		{name: "exponent with fraction", input: "1.5E1", cents: 1_500},
		{name: "negative exponent", input: "25e-2", cents: 25},
		{name: "exponent at digit limit", input: "9.9999999e7", cents: 9_999_999_900},
		{name: "zero with huge exponent", input: "0e2000000000", cents: 0},
		{name: "exponent past scale", input: "1e-3", err: ErrInvalidFormat},
		{name: "exponent past digit limit", input: "1e8", err: ErrInvalidFormat},
		{name: "nine digit exponent", input: "1e9", err: ErrInvalidFormat},
		{name: "huge exponent", input: "1e2000000000", err: ErrInvalidFormat},
		{name: "max int exponent", input: "1e2147483647", err: ErrInvalidFormat},
		{name: "huge negative exponent", input: "1e-2147483648", err: ErrInvalidFormat},
		{name: "overlong text", input: "1" + strings.Repeat("0", 100), err: ErrInvalidFormat},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Parse(tt.input)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cents, m.Cents())
		})
	}
}

func TestParseHugeExponentIsFast(t *testing.T) {
	for _, in := range []string{"1e200000", "1e20000000", "1e2000000000", "-7e2147483647"} {
		start := time.Now()
		_, err := Parse(in)
		require.ErrorIs(t, err, ErrInvalidFormat, in)
		if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
			t.Fatalf("Parse(%q) took %s", in, elapsed)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"0.00", "0.01", "0.20", "100.00", "799.80", "12345678.12", "99999999.99"} {
		m, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, m.String())
	}
}

func TestStringPadsScale(t *testing.T) {
	assert.Equal(t, "100.00", MustParse("100").String())
	assert.Equal(t, "10.10", MustParse("10.1").String())
	assert.Equal(t, "-3.50", MustParse("-3.5").String())
}

func TestAdd(t *testing.T) {
	sum, err := MustParse("799.80").Add(MustParse("200.20"))
	require.NoError(t, err)
	assert.Equal(t, "1000.00", sum.String())

	_, err = MustParse("99999999.99").Add(MustParse("0.01"))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestSub(t *testing.T) {
	diff, err := MustParse("1000").Sub(MustParse("200.20"))
	require.NoError(t, err)
	assert.Equal(t, "799.80", diff.String())

	diff, err = MustParse("0.20").Sub(MustParse("0.20"))
	require.NoError(t, err)
	assert.True(t, diff.IsZero())

	_, err = Zero.Sub(MustParse("0.20"))
	require.ErrorIs(t, err, ErrUnderflow)

	_, err = MustParse("99999999.99").Sub(MustParse("-0.01"))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestCompare(t *testing.T) {
	a := MustParse("1.00")
	b := MustParse("1.01")
	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, 0, Compare(a, MustParse("1")))
	assert.True(t, b.IsPositive())
	assert.True(t, MustParse("-1").IsNegative())
}

func TestFromCents(t *testing.T) {
	m, err := FromCents(505)
	require.NoError(t, err)
	assert.Equal(t, "5.05", m.String())

	_, err = FromCents(maxCents + 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestDecimal(t *testing.T) {
	m := MustParse("42.50")
	assert.Equal(t, int64(4_250), m.Cents())
	assert.True(t, m.Decimal().Equal(decimal.RequireFromString("42.5")))
}

func TestJSONText(t *testing.T) {
	for in, want := range map[string]string{`"1.50"`: "1.50", `1.5`: "1.5", ` 2e1 `: "2e1", `null`: ""} {
		got, err := JSONText([]byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := JSONText([]byte(`"unterminated`))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Balance Money `json:"balance"`
	}{Balance: MustParse("799.8")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":"799.80"}`, string(out))

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"0.20","b":100}`), &in))
	assert.Equal(t, int64(20), in.A.Cents())
	assert.Equal(t, int64(10_000), in.B.Cents())

	err = json.Unmarshal([]byte(`{"a":"1.234"}`), &in)
	require.ErrorIs(t, err, ErrInvalidFormat)
}
