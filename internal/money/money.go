// Package money implements the fixed-point amount type used for wallet balances.
//
// A Money value holds an integer number of minor units (cents) with exactly two
// fractional digits. Values are bounded to eight integer digits so that every
// amount fits a NUMERIC(10,2) column. Floating point is never involved: text is
// parsed with shopspring/decimal and arithmetic is exact integer arithmetic.
package money

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of fractional digits carried by every amount.
	Scale = 2
	// MaxIntegerDigits bounds the integer part of an amount.
	MaxIntegerDigits = 8

	maxCents = 99_999_999_99

	// maxTextLen bounds the input handed to the decimal parser.
	maxTextLen = 64
)

var (
	// ErrInvalidFormat is returned when text is not a decimal with at most two
	// fractional digits and at most eight integer digits.
	ErrInvalidFormat = errors.New("invalid amount format")
	// ErrOverflow is returned when an arithmetic result leaves the representable range.
	ErrOverflow = errors.New("amount overflow")
	// ErrUnderflow is returned when a subtraction would produce a negative amount.
	ErrUnderflow = errors.New("amount underflow")
)

var integerLimit = decimal.New(1, MaxIntegerDigits)

// Money is an immutable amount expressed in cents.
type Money struct {
	cents int64
}

// Zero is the zero amount.
var Zero = Money{}

// Parse converts decimal text such as "200.20" into Money.
func Parse(text string) (Money, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Money{}, fmt.Errorf("%w: empty value", ErrInvalidFormat)
	}
	if len(text) > maxTextLen {
		return Money{}, fmt.Errorf("%w: value too long", ErrInvalidFormat)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
	}
	if d.Exponent() < -Scale {
		return Money{}, fmt.Errorf("%w: more than %d decimal places", ErrInvalidFormat, Scale)
	}
	if d.IsZero() {
		return Zero, nil
	}
	// Checked before any comparison: rescaling "1e2000000000" would expand it digit by digit.
	if d.Exponent() > MaxIntegerDigits {
		return Money{}, fmt.Errorf("%w: more than %d digits before the decimal point", ErrInvalidFormat, MaxIntegerDigits)
	}
	if d.Abs().Cmp(integerLimit) >= 0 {
		return Money{}, fmt.Errorf("%w: more than %d digits before the decimal point", ErrInvalidFormat, MaxIntegerDigits)
	}
	return Money{cents: d.Shift(Scale).IntPart()}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(text string) Money {
	m, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return m
}

// FromCents builds an amount from minor units.
func FromCents(cents int64) (Money, error) {
	if cents > maxCents || cents < -maxCents {
		return Money{}, ErrOverflow
	}
	return Money{cents: cents}, nil
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 { return m.cents }

// Decimal returns the amount as a shopspring decimal.
func (m Money) Decimal() decimal.Decimal { return decimal.New(m.cents, -Scale) }

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	return FromCents(m.cents + other.cents)
}

// Sub returns m - other. A negative result is rejected with ErrUnderflow.
func (m Money) Sub(other Money) (Money, error) {
	res, err := FromCents(m.cents - other.cents)
	if err != nil {
		return Money{}, err
	}
	if res.cents < 0 {
		return Money{}, ErrUnderflow
	}
	return res, nil
}

// Cmp compares m with other and returns -1, 0 or +1.
func (m Money) Cmp(other Money) int {
	switch {
	case m.cents < other.cents:
		return -1
	case m.cents > other.cents:
		return 1
	default:
		return 0
	}
}

// Compare returns -1 if a < b, 0 if a == b and +1 if a > b.
func Compare(a, b Money) int { return a.Cmp(b) }

func (m Money) IsZero() bool     { return m.cents == 0 }
func (m Money) IsPositive() bool { return m.cents > 0 }
func (m Money) IsNegative() bool { return m.cents < 0 }

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(Scale)
}

// MarshalText implements encoding.TextMarshaler.
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Money) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalJSON encodes the amount as a JSON string so it never passes through a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number. Numbers are
// parsed from their literal text.
func (m *Money) UnmarshalJSON(data []byte) error {
	text, err := JSONText(data)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return m.UnmarshalText([]byte(text))
}

// JSONText returns the amount text carried by a JSON value: the content of a
// string, or the literal of a bare number. null yields "".
func JSONText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return s, nil
	}
	return string(data), nil
}
