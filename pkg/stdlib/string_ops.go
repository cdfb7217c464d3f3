package stdlib

import (
	"github.com/zanderlewis/weather/pkg/evaluator"
)

// str(x) → string, formatted exactly as print would write it
func stdlibStr(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	return evaluator.NewString(evaluator.FormatValue(args[0], c.Precision)), nil
}

// type(x) → string naming the value's type
func stdlibType(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	return evaluator.NewString(evaluator.TypeName(args[0])), nil
}
