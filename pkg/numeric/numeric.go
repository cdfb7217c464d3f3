// Package numeric implements the exact numeric tower: arbitrary-precision
// integers and rationals with promotion, exact comparison and decimal formatting.
package numeric

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrDivisionByZero is returned by Div, Mod and Pow when the divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrNonIntegerExponent is returned by Pow for a fractional exponent.
	ErrNonIntegerExponent = errors.New("exponent must be an integer")
	// ErrExponentTooLarge guards Pow against unbounded allocation.
	ErrExponentTooLarge = errors.New("exponent too large")
)

// MaxExponent bounds the magnitude of an exponent accepted by Pow.
const MaxExponent = 1 << 16

// Number is either an Int or a Rat. Values are immutable: every operation
// returns a fresh value and never modifies its operands.
type Number interface {
	numberTag() // sealed marker
	String() string
	Sign() int
}

// Int is an arbitrary-precision integer.
type Int struct{ v *big.Int }

// Rat is an arbitrary-precision rational in lowest terms with a positive denominator.
type Rat struct{ v *big.Rat }

func (Int) numberTag() {}
func (Rat) numberTag() {}

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
	bigTwo  = big.NewInt(2)
	bigFive = big.NewInt(5)
	bigTen  = big.NewInt(10)
)

// NewInt returns the Int with value x.
func NewInt(x int64) Int { return Int{v: big.NewInt(x)} }

// IntFromBig copies x into a new Int.
func IntFromBig(x *big.Int) Int { return Int{v: new(big.Int).Set(x)} }

// ParseInt reads a base-10 integer literal.
func ParseInt(s string) (Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int{}, fmt.Errorf("invalid integer literal %q", s)
	}
	return Int{v: v}, nil
}

// NewRat returns num/den in lowest terms.
func NewRat(num, den int64) (Rat, error) {
	if den == 0 {
		return Rat{}, ErrDivisionByZero
	}
	return Rat{v: big.NewRat(num, den)}, nil
}

// RatFromBig copies x into a new Rat.
func RatFromBig(x *big.Rat) Rat { return Rat{v: new(big.Rat).Set(x)} }

// ParseDecimal reads a decimal literal such as "3.14" or "-0.5" exactly.
// Plain integers and "a/b" fractions are accepted too.
func ParseDecimal(s string) (Rat, error) {
	if strings.ContainsAny(s, "eE") {
		return Rat{}, fmt.Errorf("invalid decimal literal %q", s)
	}
	v, ok := new(big.Rat).SetString(s)
	if !ok {
		return Rat{}, fmt.Errorf("invalid decimal literal %q", s)
	}
	return Rat{v: v}, nil
}

// MustDecimal is ParseDecimal for trusted table data; it panics on malformed input.
func MustDecimal(s string) Rat {
	r, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (i Int) big() *big.Int {
	if i.v == nil {
		return bigZero
	}
	return i.v
}

func (r Rat) big() *big.Rat {
	if r.v == nil {
		return new(big.Rat)
	}
	return r.v
}

// Big returns a copy of the underlying integer.
func (i Int) Big() *big.Int { return new(big.Int).Set(i.big()) }

// Big returns a copy of the underlying rational.
func (r Rat) Big() *big.Rat { return new(big.Rat).Set(r.big()) }

// Int64 returns the value and whether it fits in an int64.
func (i Int) Int64() (int64, bool) {
	b := i.big()
	return b.Int64(), b.IsInt64()
}

func (i Int) Sign() int      { return i.big().Sign() }
func (r Rat) Sign() int      { return r.big().Sign() }
func (i Int) String() string { return i.big().String() }

// String returns num/den, or just num when the denominator is 1.
func (r Rat) String() string { return r.big().RatString() }

// Num returns the numerator.
func (r Rat) Num() Int { return IntFromBig(r.big().Num()) }

// Den returns the (positive) denominator.
func (r Rat) Den() Int { return IntFromBig(r.big().Denom()) }

// IsInt reports whether the rational has denominator 1.
func (r Rat) IsInt() bool { return r.big().IsInt() }

// ToRat promotes n to a rational; an Int becomes n/1.
func ToRat(n Number) Rat {
	switch x := n.(type) {
	case Int:
		return Rat{v: new(big.Rat).SetInt(x.big())}
	case Rat:
		return x
	}
	panic(fmt.Sprintf("numeric: unknown Number %T", n))
}

func asRat(n Number) *big.Rat { return ToRat(n).big() }

// Add returns a+b. Int+Int stays Int; anything involving a Rat is a Rat.
func Add(a, b Number) Number {
	if x, y, ok := ints(a, b); ok {
		return Int{v: new(big.Int).Add(x, y)}
	}
	return Rat{v: new(big.Rat).Add(asRat(a), asRat(b))}
}

// Sub returns a-b with the same promotion as Add.
func Sub(a, b Number) Number {
	if x, y, ok := ints(a, b); ok {
		return Int{v: new(big.Int).Sub(x, y)}
	}
	return Rat{v: new(big.Rat).Sub(asRat(a), asRat(b))}
}

// Mul returns a*b with the same promotion as Add.
func Mul(a, b Number) Number {
	if x, y, ok := ints(a, b); ok {
		return Int{v: new(big.Int).Mul(x, y)}
	}
	return Rat{v: new(big.Rat).Mul(asRat(a), asRat(b))}
}

// Div returns the exact quotient a/b as a Rat, even when both operands are Ints.
func Div(a, b Number) (Rat, error) {
	if b.Sign() == 0 {
		return Rat{}, ErrDivisionByZero
	}
	return Rat{v: new(big.Rat).Quo(asRat(a), asRat(b))}, nil
}

// Mod returns the truncated remainder a - b*trunc(a/b); its sign follows a.
func Mod(a, b Number) (Number, error) {
	if b.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	if x, y, ok := ints(a, b); ok {
		return Int{v: new(big.Int).Rem(x, y)}, nil
	}
	ra, rb := asRat(a), asRat(b)
	q := new(big.Rat).Quo(ra, rb)
	t := new(big.Int).Quo(q.Num(), q.Denom())
	prod := new(big.Rat).Mul(rb, new(big.Rat).SetInt(t))
	return Rat{v: new(big.Rat).Sub(ra, prod)}, nil
}

// Pow raises a to an integer power. Int ** non-negative Int is an Int; a
// negative exponent yields the exact reciprocal as a Rat.
func Pow(a, b Number) (Number, error) {
	var e *big.Int
	switch x := b.(type) {
	case Int:
		e = x.big()
	case Rat:
		if !x.IsInt() {
			return nil, ErrNonIntegerExponent
		}
		e = x.big().Num()
	}
	if e.CmpAbs(big.NewInt(MaxExponent)) > 0 {
		return nil, ErrExponentTooLarge
	}
	neg := e.Sign() < 0
	abs := new(big.Int).Abs(e)

	var result Number
	switch x := a.(type) {
	case Int:
		result = Int{v: new(big.Int).Exp(x.big(), abs, nil)}
	case Rat:
		num := new(big.Int).Exp(x.big().Num(), abs, nil)
		den := new(big.Int).Exp(x.big().Denom(), abs, nil)
		result = Rat{v: new(big.Rat).SetFrac(num, den)}
	}
	if !neg {
		return result, nil
	}
	return Div(NewInt(1), result)
}

// Neg returns -a.
func Neg(a Number) Number {
	switch x := a.(type) {
	case Int:
		return Int{v: new(big.Int).Neg(x.big())}
	case Rat:
		return Rat{v: new(big.Rat).Neg(x.big())}
	}
	panic(fmt.Sprintf("numeric: unknown Number %T", a))
}

// Abs returns |a|.
func Abs(a Number) Number {
	if a.Sign() < 0 {
		return Neg(a)
	}
	return a
}

// Cmp compares a and b exactly and returns -1, 0 or +1.
func Cmp(a, b Number) int {
	if x, y, ok := ints(a, b); ok {
		return x.Cmp(y)
	}
	return asRat(a).Cmp(asRat(b))
}

// Equal reports exact equality across representations, so Int 2 equals Rat 2/1.
func Equal(a, b Number) bool { return Cmp(a, b) == 0 }

// Floor returns the greatest integer not above a.
func Floor(a Number) Int {
	switch x := a.(type) {
	case Int:
		return x
	case Rat:
		// big.Int.Div is Euclidean; with a positive denominator that is floor.
		return Int{v: new(big.Int).Div(x.big().Num(), x.big().Denom())}
	}
	panic(fmt.Sprintf("numeric: unknown Number %T", a))
}

// Ceil returns the least integer not below a.
func Ceil(a Number) Int {
	f := Floor(a)
	if r, ok := a.(Rat); ok && !r.IsInt() {
		return Int{v: new(big.Int).Add(f.big(), bigOne)}
	}
	return f
}

// Float64 returns the nearest float64. It is only meant for feeding angles
// into floating-point gate matrices.
func Float64(a Number) float64 {
	f, _ := asRat(a).Float64()
	return f
}

func ints(a, b Number) (*big.Int, *big.Int, bool) {
	x, ok1 := a.(Int)
	y, ok2 := b.(Int)
	if !ok1 || !ok2 {
		return nil, nil, false
	}
	return x.big(), y.big(), true
}
