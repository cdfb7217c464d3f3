package stdlib

import (
	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/numeric"
)

var (
	kelvinOffset = numeric.MustDecimal("273.15")
	fahrenheit0  = numeric.NewInt(32)
	fiveNinths   = ratio(5, 9)
	nineFifths   = ratio(9, 5)
)

func celsiusFromF(f numeric.Number) numeric.Number {
	return numeric.Mul(numeric.Sub(f, fahrenheit0), fiveNinths)
}

func fahrenheitFromC(c numeric.Number) numeric.Number {
	return numeric.Add(numeric.Mul(c, nineFifths), fahrenheit0)
}

// convert wraps a one-argument numeric conversion as a builtin.
func convert(fn func(numeric.Number) numeric.Number) func(*evaluator.Call, []evaluator.WValue) (evaluator.WValue, error) {
	return func(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
		ns, err := numbers(c, args)
		if err != nil {
			return nil, err
		}
		return evaluator.NewNumber(fn(ns[0])), nil
	}
}

// ftoc(f) → (f - 32) * 5/9
var stdlibFtoC = convert(celsiusFromF)

// ctof(c) → c * 9/5 + 32
var stdlibCtoF = convert(fahrenheitFromC)

// ctok(c) → c + 273.15
var stdlibCtoK = convert(func(c numeric.Number) numeric.Number {
	return numeric.Add(c, kelvinOffset)
})

// ktoc(k) → k - 273.15
var stdlibKtoC = convert(func(k numeric.Number) numeric.Number {
	return numeric.Sub(k, kelvinOffset)
})

// ftok(f) → ctok(ftoc(f))
var stdlibFtoK = convert(func(f numeric.Number) numeric.Number {
	return numeric.Add(celsiusFromF(f), kelvinOffset)
})

// ktof(k) → ctof(ktoc(k))
var stdlibKtoF = convert(func(k numeric.Number) numeric.Number {
	return fahrenheitFromC(numeric.Sub(k, kelvinOffset))
})

// dewpoint(temp, humidity) → temp - (100 - humidity) / 5
//
// This is the linear approximation that holds for relative humidity above
// roughly 50%; temp is in Celsius and humidity in percent.
func stdlibDewpoint(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	ns, err := numbers(c, args)
	if err != nil {
		return nil, err
	}
	deficit := numeric.Mul(numeric.Sub(numeric.NewInt(100), ns[1]), ratio(1, 5))
	return evaluator.NewNumber(numeric.Sub(ns[0], deficit)), nil
}
