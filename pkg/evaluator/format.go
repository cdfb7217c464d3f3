package evaluator

import (
	"fmt"
	"strconv"

	"github.com/zanderlewis/weather/pkg/numeric"
)

// FormatValue renders v the way print writes it. Strings print without quotes.
func FormatValue(v WValue, precision int) string {
	switch x := v.(type) {
	case WInt:
		return numeric.Format(x.Value, precision)
	case WRat:
		return numeric.Format(x.Value, precision)
	case WString:
		return x.Value
	case WBool:
		if x.Value {
			return "true"
		}
		return "false"
	case WQubit:
		return fmt.Sprintf("<qubit %s>", x.Handle)
	case *WFunc:
		return fmt.Sprintf("<function %s/%d>", x.Name, len(x.Params))
	case WUnit:
		return "none"
	}
	return "<unknown>"
}

// Repr renders v as the REPL echoes it: like FormatValue but with strings quoted.
func Repr(v WValue, precision int) string {
	if s, ok := v.(WString); ok {
		return strconv.Quote(s.Value)
	}
	return FormatValue(v, precision)
}
