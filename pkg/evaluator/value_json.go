package evaluator

import (
	"encoding/json"

	"github.com/zanderlewis/weather/pkg/numeric"
)

// ValueToJSON marshals a WValue to JSON bytes.
// Integers and terminating rationals become JSON numbers with every digit kept;
// other rationals become {"rational":"n/d"}.
func ValueToJSON(v WValue) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

func valueToRaw(v WValue) any {
	if v == nil {
		return nil
	}

	switch val := v.(type) {
	case WUnit:
		return nil

	case WBool:
		return val.Value

	case WInt:
		return json.Number(val.Value.String())

	case WRat:
		if numeric.IsTerminating(val.Value) {
			return json.Number(numeric.Format(val.Value, numeric.DefaultPrecision))
		}
		return map[string]string{"rational": val.Value.String()}

	case WString:
		return val.Value

	case WQubit:
		return map[string]any{"qubit": val.Handle.ID, "gen": val.Handle.Gen}

	case *WFunc:
		return map[string]any{"function": val.Name, "params": val.Params}
	}

	return nil
}
