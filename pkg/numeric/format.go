package numeric

import (
	"fmt"
	"math/big"
	"strings"
)

// DefaultPrecision is the number of significant digits used when a rational
// has no finite decimal expansion.
const DefaultPrecision = 50

// Format renders n for display. An Int prints as its exact digits. A Rat whose
// denominator has no prime factors other than 2 and 5 prints as its exact
// decimal expansion. Any other Rat prints rounded to precision significant
// digits followed by a " (~N s.f.)" marker.
func Format(n Number, precision int) string {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	switch x := n.(type) {
	case Int:
		return x.String()
	case Rat:
		if s, ok := exactDecimal(x.big()); ok {
			return s
		}
		return fmt.Sprintf("%s (~%d s.f.)", approximate(x.big(), precision), precision)
	}
	panic(fmt.Sprintf("numeric: unknown Number %T", n))
}

// IsTerminating reports whether r has a finite decimal expansion.
func IsTerminating(r Rat) bool {
	return decimalPlaces(r.big().Denom()) >= 0
}

// decimalPlaces strips factors of 2 and 5 from den. It returns the number of
// decimal places needed, or -1 if another prime factor remains.
func decimalPlaces(den *big.Int) int {
	d := new(big.Int).Set(den)
	twos, fives := 0, 0
	m := new(big.Int)
	for {
		q, r := new(big.Int).QuoRem(d, bigTwo, m)
		if r.Sign() != 0 {
			break
		}
		d = q
		twos++
	}
	for {
		q, r := new(big.Int).QuoRem(d, bigFive, m)
		if r.Sign() != 0 {
			break
		}
		d = q
		fives++
	}
	if d.Cmp(bigOne) != 0 {
		return -1
	}
	return max(twos, fives)
}

func pow10(k int) *big.Int {
	return new(big.Int).Exp(bigTen, big.NewInt(int64(k)), nil)
}

func exactDecimal(r *big.Rat) (string, bool) {
	places := decimalPlaces(r.Denom())
	if places < 0 {
		return "", false
	}
	if places == 0 {
		return r.Num().String(), true
	}
	// num * 10^places / den is an integer holding every digit.
	scaled := new(big.Int).Mul(new(big.Int).Abs(r.Num()), pow10(places))
	scaled.Quo(scaled, r.Denom())
	digits := scaled.String()
	if len(digits) <= places {
		digits = strings.Repeat("0", places-len(digits)+1) + digits
	}
	cut := len(digits) - places
	out := digits[:cut] + "." + digits[cut:]
	if r.Sign() < 0 {
		out = "-" + out
	}
	return out, true
}

// magnitude returns e such that 10^e <= |r| < 10^(e+1). r must be non-zero.
func magnitude(r *big.Rat) int {
	num := new(big.Int).Abs(r.Num())
	den := r.Denom()
	e := len(num.String()) - len(den.String())
	// Check whether |r| < 10^e, in which case the estimate is one too high.
	lhs, rhs := new(big.Int).Set(num), new(big.Int).Set(den)
	if e >= 0 {
		rhs.Mul(rhs, pow10(e))
	} else {
		lhs.Mul(lhs, pow10(-e))
	}
	if lhs.Cmp(rhs) < 0 {
		e--
	}
	return e
}

func approximate(r *big.Rat, precision int) string {
	if r.Sign() == 0 {
		return "0"
	}
	places := precision - 1 - magnitude(r)
	if places < 0 {
		places = 0
	}
	return r.FloatString(places)
}
