// Package quantum simulates small qubit registers as complex amplitude vectors.
//
// A Simulator owns every register. Scripts hold Handles, which name one qubit
// and carry a generation so that handles into a discarded register are
// detected instead of silently reaching a reused slot. Qubit k of a register
// corresponds to bit k of the basis-state index.
package quantum

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/tevino/abool/v2"
)

// DefaultMaxQubits bounds the size of any register, including merged ones.
const DefaultMaxQubits = 16

var (
	// ErrInvalidHandle is returned for handles that were never issued or whose register was discarded.
	ErrInvalidHandle = errors.New("invalid qubit handle")
	// ErrSameQubit is returned when a multi-qubit gate names one qubit twice.
	ErrSameQubit = errors.New("gate operands must be distinct qubits")
	// ErrTooManyQubits is returned when a register would exceed the simulator limit.
	ErrTooManyQubits = errors.New("register too large")
	// ErrBasisOutOfRange is returned by Alloc for a basis index outside the register.
	ErrBasisOutOfRange = errors.New("basis state out of range")
)

// Handle names one qubit inside the simulator.
type Handle struct {
	ID  int
	Gen uint32
}

func (h Handle) String() string { return fmt.Sprintf("q%d", h.ID) }

type register struct {
	mu        sync.Mutex
	amps      []complex128
	qubits    []int // slot ids, indexed by bit position
	collapsed *abool.AtomicBool
}

type slot struct {
	reg  *register
	pos  int
	gen  uint32
	live bool
}

// Simulator owns all registers. It is safe for concurrent use; each register
// is mutated by at most one operation at a time.
type Simulator struct {
	mu        sync.RWMutex
	slots     []slot
	free      []int
	maxQubits int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a simulator drawing measurement outcomes from rng. A nil rng
// gets a randomly seeded source.
func New(rng *rand.Rand, maxQubits int) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if maxQubits <= 0 {
		maxQubits = DefaultMaxQubits
	}
	return &Simulator{rng: rng, maxQubits: maxQubits}
}

// NewSeeded creates a simulator whose measurements are reproducible for a given seed.
func NewSeeded(seed uint64, maxQubits int) *Simulator {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), maxQubits)
}

// MaxQubits returns the register size limit.
func (s *Simulator) MaxQubits() int { return s.maxQubits }

// Alloc creates a size-qubit register in computational basis state |basis>
// and returns the handle of its qubit 0.
func (s *Simulator) Alloc(basis, size int) (Handle, error) {
	if size < 1 || size > s.maxQubits {
		return Handle{}, fmt.Errorf("%w: %d qubits requested, limit is %d", ErrTooManyQubits, size, s.maxQubits)
	}
	if basis < 0 || basis >= 1<<size {
		return Handle{}, fmt.Errorf("%w: %d is not a basis state of a %d-qubit register", ErrBasisOutOfRange, basis, size)
	}

	reg := &register{
		amps:      make([]complex128, 1<<size),
		qubits:    make([]int, size),
		collapsed: abool.New(),
	}
	reg.amps[basis] = 1

	s.mu.Lock()
	defer s.mu.Unlock()
	var first Handle
	for pos := 0; pos < size; pos++ {
		id := s.newSlotLocked()
		sl := &s.slots[id]
		sl.reg, sl.pos, sl.live = reg, pos, true
		reg.qubits[pos] = id
		if pos == 0 {
			first = Handle{ID: id, Gen: sl.gen}
		}
	}
	return first, nil
}

func (s *Simulator) newSlotLocked() int {
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		return id
	}
	s.slots = append(s.slots, slot{})
	return len(s.slots) - 1
}

func (s *Simulator) slotLocked(h Handle) (*slot, error) {
	if h.ID < 0 || h.ID >= len(s.slots) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	sl := &s.slots[h.ID]
	if !sl.live || sl.gen != h.Gen {
		return nil, fmt.Errorf("%w: %s refers to a discarded register", ErrInvalidHandle, h)
	}
	return sl, nil
}

// QubitAt returns the handle of qubit i in the register that currently holds h.
func (s *Simulator) QubitAt(h Handle, i int) (Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, err := s.slotLocked(h)
	if err != nil {
		return Handle{}, err
	}
	if i < 0 || i >= len(sl.reg.qubits) {
		return Handle{}, fmt.Errorf("%w: qubit %d of a %d-qubit register", ErrBasisOutOfRange, i, len(sl.reg.qubits))
	}
	id := sl.reg.qubits[i]
	return Handle{ID: id, Gen: s.slots[id].gen}, nil
}

// Size returns the number of qubits in the register holding h.
func (s *Simulator) Size(h Handle) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, err := s.slotLocked(h)
	if err != nil {
		return 0, err
	}
	return len(sl.reg.qubits), nil
}

// Position returns the bit position of h within its register.
func (s *Simulator) Position(h Handle) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, err := s.slotLocked(h)
	if err != nil {
		return 0, err
	}
	return sl.pos, nil
}

// Registers returns the number of live registers.
func (s *Simulator) Registers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[*register]struct{})
	for _, sl := range s.slots {
		if sl.live {
			seen[sl.reg] = struct{}{}
		}
	}
	return len(seen)
}

// resolveLocked maps handles to one register and bit positions. It returns a
// nil register without error when the handles live in different registers.
func (s *Simulator) resolveLocked(hs []Handle) (*register, []int, error) {
	var reg *register
	pos := make([]int, len(hs))
	split := false
	for i, h := range hs {
		sl, err := s.slotLocked(h)
		if err != nil {
			return nil, nil, err
		}
		if reg == nil {
			reg = sl.reg
		} else if sl.reg != reg {
			split = true
		}
		pos[i] = sl.pos
	}
	if split {
		return nil, nil, nil
	}
	return reg, pos, nil
}

// mergeLocked joins the registers of hs into one via tensor product. The first
// register keeps its bit positions; each later one is shifted above it.
func (s *Simulator) mergeLocked(hs []Handle) error {
	base := s.slots[hs[0].ID].reg
	for _, h := range hs[1:] {
		other := s.slots[h.ID].reg
		if other == base {
			continue
		}
		n1, n2 := len(base.qubits), len(other.qubits)
		if n1+n2 > s.maxQubits {
			return fmt.Errorf("%w: joining %d and %d qubits exceeds the limit of %d", ErrTooManyQubits, n1, n2, s.maxQubits)
		}
		amps := make([]complex128, 1<<(n1+n2))
		for i2, a2 := range other.amps {
			if a2 == 0 {
				continue
			}
			for i1, a1 := range base.amps {
				amps[i1|i2<<n1] = a1 * a2
			}
		}
		merged := &register{
			amps:      amps,
			qubits:    append(append([]int(nil), base.qubits...), other.qubits...),
			collapsed: abool.NewBool(base.collapsed.IsSet() && other.collapsed.IsSet()),
		}
		for pos, id := range merged.qubits {
			s.slots[id].reg = merged
			s.slots[id].pos = pos
		}
		base = merged
	}
	return nil
}

func distinct(hs []Handle) error {
	for i := range hs {
		for j := i + 1; j < len(hs); j++ {
			if hs[i].ID == hs[j].ID {
				return fmt.Errorf("%w: %s appears twice", ErrSameQubit, hs[i])
			}
		}
	}
	return nil
}

// apply runs op on the register holding every handle, merging registers first
// if needed. op receives the amplitude vector and one bit mask per handle.
func (s *Simulator) apply(hs []Handle, op func(amps []complex128, masks []int)) error {
	if err := distinct(hs); err != nil {
		return err
	}

	s.mu.RLock()
	reg, pos, err := s.resolveLocked(hs)
	if err != nil || reg != nil {
		defer s.mu.RUnlock()
		if err != nil {
			return err
		}
		runOn(reg, pos, op)
		return nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	reg, pos, err = s.resolveLocked(hs)
	if err != nil {
		return err
	}
	if reg == nil {
		if err := s.mergeLocked(hs); err != nil {
			return err
		}
		if reg, pos, err = s.resolveLocked(hs); err != nil {
			return err
		}
	}
	runOn(reg, pos, op)
	return nil
}

func runOn(reg *register, pos []int, op func(amps []complex128, masks []int)) {
	masks := make([]int, len(pos))
	for i, p := range pos {
		masks[i] = 1 << p
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	op(reg.amps, masks)
	reg.collapsed.UnSet()
}

// Measure samples qubit h, collapses its register to the outcome and returns 0 or 1.
func (s *Simulator) Measure(h Handle) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, err := s.slotLocked(h)
	if err != nil {
		return 0, err
	}
	reg := sl.reg
	mask := 1 << sl.pos

	reg.mu.Lock()
	defer reg.mu.Unlock()

	var p0, p1 float64
	for i, a := range reg.amps {
		pr := real(a)*real(a) + imag(a)*imag(a)
		if i&mask != 0 {
			p1 += pr
		} else {
			p0 += pr
		}
	}

	s.rngMu.Lock()
	r := s.rng.Float64()
	s.rngMu.Unlock()

	outcome := 0
	keep := p0
	if r*(p0+p1) < p1 {
		outcome, keep = 1, p1
	}

	scale := complex(1/math.Sqrt(keep), 0)
	for i := range reg.amps {
		if (i&mask != 0) == (outcome == 1) {
			reg.amps[i] *= scale
		} else {
			reg.amps[i] = 0
		}
	}
	reg.collapsed.Set()
	return outcome, nil
}

// Reset measures h and flips it back to |0> if the outcome was 1.
func (s *Simulator) Reset(h Handle) error {
	outcome, err := s.Measure(h)
	if err != nil {
		return err
	}
	if outcome == 1 {
		return s.X(h)
	}
	return nil
}

// Discard frees the whole register holding h. Every handle into it becomes invalid.
func (s *Simulator) Discard(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, err := s.slotLocked(h)
	if err != nil {
		return err
	}
	for _, id := range sl.reg.qubits {
		q := &s.slots[id]
		q.reg, q.live = nil, false
		q.gen++
		s.free = append(s.free, id)
	}
	return nil
}

// Amplitudes returns a copy of the amplitude vector of the register holding h.
func (s *Simulator) Amplitudes(h Handle) ([]complex128, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, err := s.slotLocked(h)
	if err != nil {
		return nil, err
	}
	sl.reg.mu.Lock()
	defer sl.reg.mu.Unlock()
	return append([]complex128(nil), sl.reg.amps...), nil
}

// Probability returns the marginal probability that measuring h yields outcome.
func (s *Simulator) Probability(h Handle, outcome int) (float64, error) {
	if outcome != 0 && outcome != 1 {
		return 0, fmt.Errorf("%w: outcome must be 0 or 1, got %d", ErrBasisOutOfRange, outcome)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, err := s.slotLocked(h)
	if err != nil {
		return 0, err
	}
	mask := 1 << sl.pos
	sl.reg.mu.Lock()
	defer sl.reg.mu.Unlock()
	var p float64
	for i, a := range sl.reg.amps {
		if (i&mask != 0) == (outcome == 1) {
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return p, nil
}

// Collapsed reports whether the register holding h has been measured and not
// touched by a gate since.
func (s *Simulator) Collapsed(h Handle) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, err := s.slotLocked(h)
	if err != nil {
		return false, err
	}
	return sl.reg.collapsed.IsSet(), nil
}
