// Package amount implements the non-negative, exact decimal quantity that
// every balance and transaction in the ledger is expressed in.
package amount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxScale is the maximum number of fractional digits accepted on input and
// rendered on output.
const MaxScale = 4

// MaxDigits caps the number of digits, integer and fractional together,
// accepted by Parse.
const MaxDigits = 28

var (
	// ErrNegative is returned when constructing an Amount from a negative value.
	ErrNegative = errors.New("amount cannot be negative")
	// ErrTooPrecise is returned when the input has more than MaxScale fractional digits.
	ErrTooPrecise = errors.New("too many decimal places")
	// ErrMalformed is returned for input that is not plain decimal notation.
	ErrMalformed = errors.New("malformed amount")
	// ErrTooLarge is returned when the input has more than MaxDigits digits.
	ErrTooLarge = errors.New("too many digits")
	// ErrInsufficient is matched by SubtractionError.
	ErrInsufficient = errors.New("subtraction results in negative amount")
)

// SubtractionError reports a subtraction whose result would be negative.
// Both operands are kept so callers can report the deficit.
type SubtractionError struct {
	Minuend    Amount
	Subtrahend Amount
}

func (e *SubtractionError) Error() string {
	return fmt.Sprintf("%s: %s - %s", ErrInsufficient, e.Minuend, e.Subtrahend)
}

// Is makes errors.Is(err, ErrInsufficient) hold for any SubtractionError.
func (e *SubtractionError) Is(target error) bool {
	return target == ErrInsufficient
}

// Deficit returns how much the minuend falls short of the subtrahend.
func (e *SubtractionError) Deficit() Amount {
	return Amount{d: e.Subtrahend.d.Sub(e.Minuend.d)}
}

// Amount is an immutable non-negative decimal. The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{d: decimal.Zero}

// New wraps an already-parsed decimal, rejecting negative values.
func New(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %s", ErrNegative, d)
	}
	return Amount{d: d}, nil
}

// Parse reads a decimal string such as "1.5" or "0.0001". Only an optional
// sign, digits and an optional fraction are accepted; exponents are not.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if err := checkSyntax(s); err != nil {
		return Amount{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if scale := -d.Exponent(); scale > MaxScale {
		return Amount{}, fmt.Errorf("%w: %q has %d, max allowed %d", ErrTooPrecise, s, scale, MaxScale)
	}
	return New(d)
}

// checkSyntax accepts [+-]digits[.digits] with at most MaxDigits digits.
func checkSyntax(s string) error {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	intPart, frac, hasDot := strings.Cut(s, ".")
	if !allDigits(intPart) || (hasDot && !allDigits(frac)) {
		return ErrMalformed
	}
	if n := len(intPart) + len(frac); n > MaxDigits {
		return fmt.Errorf("%w: %d, max allowed %d", ErrTooLarge, n, MaxDigits)
	}
	return nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b.
func Add(a, b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// CheckedSub returns a - b, or a *SubtractionError if b > a.
func CheckedSub(a, b Amount) (Amount, error) {
	if a.d.LessThan(b.d) {
		return Amount{}, &SubtractionError{Minuend: a, Subtrahend: b}
	}
	return Amount{d: a.d.Sub(b.d)}, nil
}

// IsNegative reports whether a is below zero.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// Equal reports whether a and b hold the same value regardless of scale.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// IsZero reports whether a is 0.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// String rounds half away from zero to MaxScale places and drops trailing
// zeros: "1.1001", "2".
func (a Amount) String() string {
	return a.d.Round(MaxScale).String()
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with Parse semantics.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
