package stdlib

import (
	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/numeric"
)

// abs(x) → number
func stdlibAbs(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	ns, err := numbers(c, args)
	if err != nil {
		return nil, err
	}
	return evaluator.NewNumber(numeric.Abs(ns[0])), nil
}

// min(a, b) → the smaller argument, unchanged
func stdlibMin(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	ns, err := numbers(c, args)
	if err != nil {
		return nil, err
	}
	if numeric.Cmp(ns[1], ns[0]) < 0 {
		return args[1], nil
	}
	return args[0], nil
}

// max(a, b) → the larger argument, unchanged
func stdlibMax(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	ns, err := numbers(c, args)
	if err != nil {
		return nil, err
	}
	if numeric.Cmp(ns[1], ns[0]) > 0 {
		return args[1], nil
	}
	return args[0], nil
}

// floor(x) → integer
func stdlibFloor(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	ns, err := numbers(c, args)
	if err != nil {
		return nil, err
	}
	return evaluator.WInt{Value: numeric.Floor(ns[0])}, nil
}

// ceil(x) → integer
func stdlibCeil(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	ns, err := numbers(c, args)
	if err != nil {
		return nil, err
	}
	return evaluator.WInt{Value: numeric.Ceil(ns[0])}, nil
}

// numerator(x) → integer; an integer is its own numerator
func stdlibNumerator(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	ns, err := numbers(c, args)
	if err != nil {
		return nil, err
	}
	return evaluator.WInt{Value: numeric.ToRat(ns[0]).Num()}, nil
}

// denominator(x) → positive integer; 1 for an integer
func stdlibDenominator(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	ns, err := numbers(c, args)
	if err != nil {
		return nil, err
	}
	return evaluator.WInt{Value: numeric.ToRat(ns[0]).Den()}, nil
}
