// Package help holds the reference text printed by `weather doc`.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zanderlewis/weather/pkg/stdlib"
)

// Version is the interpreter version.
const Version = "0.4.0"

// TopicList is the display order of help topics.
var TopicList = []string{"syntax", "types", "builtins", "constants", "quantum", "config", "diagnostics", "examples"}

// QUICKREF is printed by `weather doc` without a topic.
var QUICKREF = fmt.Sprintf(`Weather v%s: exact arithmetic for weather science, with a qubit simulator

  x = 10 / 4              assignment; division is exact (2.5)
  print(ftoc(98.6))       print a value on its own line
  function f(a, b) { a + b }
  if (x > 1) { ... } else { ... }
  import "units"          run units.wx from the module path

Run 'weather doc <topic>' for details. Topics: %s
`, Version, strings.Join(TopicList, ", "))

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `SYNTAX

Statements end at a line break. '#' starts a comment that runs to the end of the line.

  name = expr                    bind or rebind a variable
  print(expr)                    write the formatted value and a newline
  function name(a, b) { ... }    declare a function; its value is the last statement
  if cond { ... } else if cond { ... } else { ... }
  import "path/to/module"        execute a module's top level in the global scope
  call(name(args))               legacy call statement, same as name(args)

Operators, loosest first:
  or
  and
  == != < <= > >=
  + -
  * / %
  - not                          unary
  **                             power, right associative

Only function calls open a new scope. Blocks share the enclosing scope.
Names resolve lexically: a function sees the scope it was declared in.
`,
	"types": `TYPES

  Int        arbitrary precision integer       42, -7
  Rational   exact rational number             2.5, 1 / 3
  String     text in double quotes             "hello\n"
  Bool       true, false
  Qubit      handle to a simulated qubit
  Function   user-declared function
  Unit       result of statements with no value (printed as none)

Int op Int stays Int except '/', which always yields Rational. A Rational with
denominator 1 prints as an integer. Non-terminating rationals print with
the configured number of significant digits and a "(~N s.f.)" marker.
'**' needs an integer exponent.
`,
	"builtins": "",
	"constants": "",
	"quantum": `QUANTUM

  q = qubit(basis, size)   allocate size qubits in basis state 'basis'; q is qubit 0
  r = qubit_at(q, i)       qubit i of q's register
  hadamard(q) pauli_x(q) pauliy(q) pauliz(q) sgate(q) tgate(q) phase(q, theta)
  cnot(control, target) swap(a, b) toffoli(c1, c2, target) fredkin(control, a, b)
  m = measure(q)           0 or 1; collapses the state, so repeated measures agree
  reset(q)                 measure and return q to |0>
  discard(q)               free the register; later use gives E_INVALID_QUBIT
  p = probability(q, 1)    chance of measuring 1, as an exact decimal

paulix is an alias of pauli_x. Gates return a qubit so calls nest:
measure(hadamard(q)). Two-qubit gates return the target (swap returns a,
fredkin returns the control).
Qubits from different registers are entangled by merging their registers.
Set runtime.seed or WEATHER_SEED, or pass --seed, for reproducible measurements.
`,
	"config": `CONFIG

Configuration is read from the first of:
  --config <path>
  weather.toml, weather.yaml or weather.yml in the working directory
  ~/.config/weather/config.toml

  [runtime]
  precision = 50        significant digits for non-terminating rationals (min 50)
  seed = 42             fixed measurement seed; unset seeds from the clock
  max_call_depth = 1000
  max_qubits = 16       qubits per register, 1 to 24

  [log]
  level = "warn"        debug, info, warn, error
  format = "text"       text or json

  [modules]
  path = ["lib"]        searched after the script's own directory

WEATHER_SEED overrides runtime.seed.
`,
	"diagnostics": `DIAGNOSTICS

  E_LEX                  invalid character, number or string
  E_PARSE                malformed statement or expression
  E_UNEXPECTED_EOF       input ended inside a construct
  E_UNDEFINED_VARIABLE   name has no binding
  E_UNDEFINED_FUNCTION   call of an unknown function
  E_TYPE                 operand or argument of the wrong type
  E_ARGUMENT             wrong number of arguments or value out of range
  E_DIVISION_BY_ZERO     division or modulo by zero
  E_INVALID_QUBIT        use of a discarded or unknown qubit
  E_RECURSION            call depth above runtime.max_call_depth
  E_IMPORT               module missing or failed to parse
  E_DUP_PARAM            repeated parameter name
  E_CONSTANT_ASSIGNMENT  assignment to a builtin constant
  E_IO                   output could not be written
  E_CONFIG               invalid configuration

Exit codes: 0 success, 1 I/O or config, 2 diagnostics, 4 runtime error.
`,
	"examples": `EXAMPLES

  # temperatures
  print(ftoc(212))                 # 100
  print(ctok(-40))                 # 233.15
  print(dewpoint(25, 60))          # 17

  # exact arithmetic
  print(1 / 3 + 1 / 6)             # 0.5
  print(2 ** 100)

  # recursion
  function fact(n) {
    if n <= 1 { 1 } else { n * fact(n - 1) }
  }
  print(fact(30))

  # Bell pair
  a = qubit(0, 2)
  b = qubit_at(a, 1)
  cnot(hadamard(a), b)
  print(measure(a) == measure(b))  # true
`,
}

func init() {
	reg := stdlib.Default()
	Topics["builtins"] = BuiltinIndex(reg)
	Topics["constants"] = ConstantIndex(reg)
}

// MatchTopic finds a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	for _, name := range TopicList {
		if strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic: %s", query)
	default:
		return "", "", fmt.Errorf("ambiguous help topic %q matches %s", query, strings.Join(matches, ", "))
	}
}

// BuiltinIndex lists the registry's builtins with their signatures.
func BuiltinIndex(reg *stdlib.Registry) string {
	var b strings.Builder
	b.WriteString("BUILTINS\n\n")
	names := reg.Names()
	width := 0
	sigs := make(map[string]string, len(names))
	for _, name := range names {
		fn := reg.Get(name)
		sig := fmt.Sprintf("%s(%s)", name, strings.Join(fn.Params, ", "))
		sigs[name] = sig
		width = max(width, len(sig))
	}
	for _, name := range names {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, sigs[name], reg.Get(name).Doc)
	}
	fmt.Fprintf(&b, "\nTotal: %d functions\n", len(names))
	return b.String()
}

// ConstantIndex lists the registry's constants with their descriptions.
func ConstantIndex(reg *stdlib.Registry) string {
	var b strings.Builder
	b.WriteString("CONSTANTS\n\nConstants are exact and cannot be reassigned or called.\n\n")
	names := reg.ConstantNames()
	sort.Strings(names)
	for _, name := range names {
		doc, _ := stdlib.ConstantDoc(name)
		fmt.Fprintf(&b, "  %-12s  %s\n", name, doc)
	}
	return b.String()
}
