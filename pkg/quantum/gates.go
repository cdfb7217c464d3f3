package quantum

import (
	"math"
	"math/cmplx"
)

// Matrix is a single-qubit gate in row-major order: [[M[0], M[1]], [M[2], M[3]]].
type Matrix [4]complex128

var invSqrt2 = complex(1/math.Sqrt2, 0)

// Standard single-qubit gates.
var (
	Hadamard = Matrix{invSqrt2, invSqrt2, invSqrt2, -invSqrt2}
	PauliX   = Matrix{0, 1, 1, 0}
	PauliY   = Matrix{0, -1i, 1i, 0}
	PauliZ   = Matrix{1, 0, 0, -1}
	SGate    = Matrix{1, 0, 0, 1i}
	TGate    = Matrix{1, 0, 0, cmplx.Exp(complex(0, math.Pi/4))}
)

// PhaseShift returns diag(1, e^(i*theta)).
func PhaseShift(theta float64) Matrix {
	return Matrix{1, 0, 0, cmplx.Exp(complex(0, theta))}
}

// applyMatrix applies m to the qubit selected by mask, pairing each basis
// state with bit clear against the same state with bit set.
func applyMatrix(amps []complex128, mask int, m Matrix) {
	for i := range amps {
		if i&mask != 0 {
			continue
		}
		j := i | mask
		a0, a1 := amps[i], amps[j]
		amps[i] = m[0]*a0 + m[1]*a1
		amps[j] = m[2]*a0 + m[3]*a1
	}
}

// Apply applies an arbitrary single-qubit matrix to h.
func (s *Simulator) Apply(h Handle, m Matrix) error {
	return s.apply([]Handle{h}, func(amps []complex128, masks []int) {
		applyMatrix(amps, masks[0], m)
	})
}

func (s *Simulator) H(h Handle) error { return s.Apply(h, Hadamard) }
func (s *Simulator) X(h Handle) error { return s.Apply(h, PauliX) }
func (s *Simulator) Y(h Handle) error { return s.Apply(h, PauliY) }
func (s *Simulator) Z(h Handle) error { return s.Apply(h, PauliZ) }
func (s *Simulator) S(h Handle) error { return s.Apply(h, SGate) }
func (s *Simulator) T(h Handle) error { return s.Apply(h, TGate) }

// Phase applies a phase shift of theta radians to the |1> component of h.
func (s *Simulator) Phase(h Handle, theta float64) error {
	return s.Apply(h, PhaseShift(theta))
}

// CNOT flips target wherever control is 1.
func (s *Simulator) CNOT(control, target Handle) error {
	return s.apply([]Handle{control, target}, func(amps []complex128, m []int) {
		for i := range amps {
			if i&m[0] != 0 && i&m[1] == 0 {
				j := i | m[1]
				amps[i], amps[j] = amps[j], amps[i]
			}
		}
	})
}

// Toffoli flips target wherever both controls are 1.
func (s *Simulator) Toffoli(c1, c2, target Handle) error {
	return s.apply([]Handle{c1, c2, target}, func(amps []complex128, m []int) {
		for i := range amps {
			if i&m[0] != 0 && i&m[1] != 0 && i&m[2] == 0 {
				j := i | m[2]
				amps[i], amps[j] = amps[j], amps[i]
			}
		}
	})
}

// Swap exchanges the states of a and b.
func (s *Simulator) Swap(a, b Handle) error {
	return s.apply([]Handle{a, b}, func(amps []complex128, m []int) {
		swapBits(amps, m[0], m[1], 0)
	})
}

// Fredkin swaps a and b wherever control is 1.
func (s *Simulator) Fredkin(control, a, b Handle) error {
	return s.apply([]Handle{control, a, b}, func(amps []complex128, m []int) {
		swapBits(amps, m[1], m[2], m[0])
	})
}

// swapBits exchanges amplitudes of states differing only in bits ma and mb,
// restricted to states where every bit of cond is set.
func swapBits(amps []complex128, ma, mb, cond int) {
	for i := range amps {
		if i&cond != cond {
			continue
		}
		if i&ma != 0 && i&mb == 0 {
			j := i ^ ma ^ mb
			amps[i], amps[j] = amps[j], amps[i]
		}
	}
}
