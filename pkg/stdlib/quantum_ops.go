package stdlib

import (
	"errors"
	"strconv"

	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/numeric"
	"github.com/zanderlewis/weather/pkg/quantum"
)

// probabilityDigits bounds the decimal places kept when a float probability
// is turned into an exact rational.
const probabilityDigits = 12

// quantumError maps simulator errors onto runtime error codes.
func quantumError(c *evaluator.Call, err error) error {
	code := diagnostics.EArgument
	if errors.Is(err, quantum.ErrInvalidHandle) {
		code = diagnostics.EInvalidQubit
	}
	return &evaluator.RuntimeError{Code: code, Message: c.Name + ": " + err.Error(), Span: &c.Span}
}

// qubits extracts every argument as a qubit handle.
func qubits(c *evaluator.Call, args []evaluator.WValue) ([]quantum.Handle, error) {
	out := make([]quantum.Handle, len(args))
	for i, a := range args {
		q, ok := a.(evaluator.WQubit)
		if !ok {
			return nil, typeError(c, args, "qubits")
		}
		out[i] = q.Handle
	}
	return out, nil
}

func qubitArg(c *evaluator.Call, args []evaluator.WValue) (quantum.Handle, error) {
	q, ok := args[0].(evaluator.WQubit)
	if !ok {
		return quantum.Handle{}, typeError(c, args, "a Qubit first")
	}
	return q.Handle, nil
}

func simH(s *quantum.Simulator, h quantum.Handle) error { return s.H(h) }
func simX(s *quantum.Simulator, h quantum.Handle) error { return s.X(h) }
func simY(s *quantum.Simulator, h quantum.Handle) error { return s.Y(h) }
func simZ(s *quantum.Simulator, h quantum.Handle) error { return s.Z(h) }
func simS(s *quantum.Simulator, h quantum.Handle) error { return s.S(h) }
func simT(s *quantum.Simulator, h quantum.Handle) error { return s.T(h) }

// gate1 wraps a single-qubit gate. Gates return their qubit so calls can nest.
func gate1(apply func(*quantum.Simulator, quantum.Handle) error) func(*evaluator.Call, []evaluator.WValue) (evaluator.WValue, error) {
	return func(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
		hs, err := qubits(c, args)
		if err != nil {
			return nil, err
		}
		if err := apply(c.Sim, hs[0]); err != nil {
			return nil, quantumError(c, err)
		}
		return args[0], nil
	}
}

// qubit(basis, size) → qubit 0 of a new size-qubit register in |basis>
func stdlibQubit(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	basis, err := smallInt(c, args, 0, "basis")
	if err != nil {
		return nil, err
	}
	size, err := smallInt(c, args, 1, "size")
	if err != nil {
		return nil, err
	}
	h, err := c.Sim.Alloc(basis, size)
	if err != nil {
		return nil, quantumError(c, err)
	}
	return evaluator.NewQubit(h), nil
}

// qubit_at(q, i) → qubit i of q's register
func stdlibQubitAt(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	h, err := qubitArg(c, args)
	if err != nil {
		return nil, err
	}
	i, err := smallInt(c, args, 1, "index")
	if err != nil {
		return nil, err
	}
	out, err := c.Sim.QubitAt(h, i)
	if err != nil {
		return nil, quantumError(c, err)
	}
	return evaluator.NewQubit(out), nil
}

// phase(q, theta) → q after a phase shift of theta radians
func stdlibPhase(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	h, err := qubitArg(c, args)
	if err != nil {
		return nil, err
	}
	theta, ok := evaluator.AsNumber(args[1])
	if !ok {
		return nil, typeError(c, args, "(Qubit, number)")
	}
	if err := c.Sim.Phase(h, numeric.Float64(theta)); err != nil {
		return nil, quantumError(c, err)
	}
	return args[0], nil
}

// cnot(control, target) → target
func stdlibCNOT(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	hs, err := qubits(c, args)
	if err != nil {
		return nil, err
	}
	if err := c.Sim.CNOT(hs[0], hs[1]); err != nil {
		return nil, quantumError(c, err)
	}
	return args[1], nil
}

// swap(a, b) → a
func stdlibSwap(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	hs, err := qubits(c, args)
	if err != nil {
		return nil, err
	}
	if err := c.Sim.Swap(hs[0], hs[1]); err != nil {
		return nil, quantumError(c, err)
	}
	return args[0], nil
}

// toffoli(c1, c2, target) → target
func stdlibToffoli(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	hs, err := qubits(c, args)
	if err != nil {
		return nil, err
	}
	if err := c.Sim.Toffoli(hs[0], hs[1], hs[2]); err != nil {
		return nil, quantumError(c, err)
	}
	return args[2], nil
}

// fredkin(control, a, b) → control
func stdlibFredkin(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	hs, err := qubits(c, args)
	if err != nil {
		return nil, err
	}
	if err := c.Sim.Fredkin(hs[0], hs[1], hs[2]); err != nil {
		return nil, quantumError(c, err)
	}
	return args[0], nil
}

// measure(q) → 0 or 1
func stdlibMeasure(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	hs, err := qubits(c, args)
	if err != nil {
		return nil, err
	}
	bit, err := c.Sim.Measure(hs[0])
	if err != nil {
		return nil, quantumError(c, err)
	}
	return evaluator.NewInt(int64(bit)), nil
}

// reset(q) → q, now in |0>
func stdlibReset(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	hs, err := qubits(c, args)
	if err != nil {
		return nil, err
	}
	if err := c.Sim.Reset(hs[0]); err != nil {
		return nil, quantumError(c, err)
	}
	return args[0], nil
}

// discard(q) → none
func stdlibDiscard(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	hs, err := qubits(c, args)
	if err != nil {
		return nil, err
	}
	if err := c.Sim.Discard(hs[0]); err != nil {
		return nil, quantumError(c, err)
	}
	return evaluator.Unit, nil
}

// probability(q, outcome) → rational rounded to 12 decimal places
func stdlibProbability(c *evaluator.Call, args []evaluator.WValue) (evaluator.WValue, error) {
	h, err := qubitArg(c, args)
	if err != nil {
		return nil, err
	}
	outcome, err := smallInt(c, args, 1, "outcome")
	if err != nil {
		return nil, err
	}
	if outcome != 0 && outcome != 1 {
		return nil, argumentError(c, "outcome must be 0 or 1, got %d", outcome)
	}
	p, err := c.Sim.Probability(h, outcome)
	if err != nil {
		return nil, quantumError(c, err)
	}
	r, err := numeric.ParseDecimal(strconv.FormatFloat(p, 'f', probabilityDigits, 64))
	if err != nil {
		return nil, argumentError(c, "%s", err)
	}
	return evaluator.WRat{Value: r}, nil
}
