package selection

import (
	"fmt"
	"math"
)

// Comparison identifies how an observable is tested against a threshold.
// The comparison kind for a given variable is fixed by the caller's
// catalogue; it is not user-selectable per criterion.
type Comparison int

const (
	// Equal passes when observable == threshold.
	Equal Comparison = iota

	// LowerLimit passes when observable >= threshold.
	LowerLimit

	// UpperLimit passes when observable <= threshold.
	UpperLimit

	// AbsLowerLimit passes when |observable| >= threshold.
	AbsLowerLimit

	// AbsUpperLimit passes when |observable| <= threshold.
	AbsUpperLimit

	numComparisons
)

// Valid reports whether c is one of the defined comparison kinds.
func (c Comparison) Valid() bool {
	return c >= Equal && c < numComparisons
}

// String returns the comparison name used in reports and traces.
func (c Comparison) String() string {
	switch c {
	case Equal:
		return "Equal"
	case LowerLimit:
		return "LowerLimit"
	case UpperLimit:
		return "UpperLimit"
	case AbsLowerLimit:
		return "AbsLowerLimit"
	case AbsUpperLimit:
		return "AbsUpperLimit"
	default:
		return fmt.Sprintf("Comparison(%d)", int(c))
	}
}

// Symbol returns a compact operator form, e.g. "|x| <=" for AbsUpperLimit.
func (c Comparison) Symbol() string {
	switch c {
	case Equal:
		return "=="
	case LowerLimit:
		return ">="
	case UpperLimit:
		return "<="
	case AbsLowerLimit:
		return "|x| >="
	case AbsUpperLimit:
		return "|x| <="
	default:
		return "?"
	}
}

// Criterion is one configured cut: test the observable identified by
// Variable against Threshold under Comparison semantics.
type Criterion struct {
	// Variable is the catalogue index of the constrained quantity.
	// Opaque to this package.
	Variable int

	// Comparison is the test semantics, fixed per variable.
	Comparison Comparison

	// Threshold is the cut value.
	Threshold float64
}

// Pass reports whether an observable satisfies a threshold under the given
// comparison kind. NaN observables fail every kind.
func Pass(observable float64, cmp Comparison, threshold float64) bool {
	switch cmp {
	case Equal:
		return observable == threshold
	case LowerLimit:
		return observable >= threshold
	case UpperLimit:
		return observable <= threshold
	case AbsLowerLimit:
		return math.Abs(observable) >= threshold
	case AbsUpperLimit:
		return math.Abs(observable) <= threshold
	default:
		return false
	}
}

// Set is an ordered collection of criteria, populated once at configuration
// time and read-only afterwards. Registration order defines the bit order of
// the ordinary cut mask.
type Set struct {
	criteria []Criterion
}

// Register appends a criterion. No width bound is enforced here; overflow
// is caught by the consuming engine at finalize time via CheckWidth.
func (s *Set) Register(variable int, cmp Comparison, threshold float64) {
	s.criteria = append(s.criteria, Criterion{
		Variable:   variable,
		Comparison: cmp,
		Threshold:  threshold,
	})
}

// Criteria returns the registered criteria in registration order.
// The returned slice is shared; callers must not mutate it.
func (s *Set) Criteria() []Criterion {
	return s.criteria
}

// Len returns the total number of registered criteria.
func (s *Set) Len() int {
	return len(s.criteria)
}

// Count returns how many criteria constrain the given variable.
// Zero means the variable is inactive and its check is skipped entirely.
func (s *Set) Count(variable int) int {
	n := 0
	for _, c := range s.criteria {
		if c.Variable == variable {
			n++
		}
	}
	return n
}

// Collapse reduces all criteria of one variable to the single tightest
// threshold under the given comparison semantics:
//
//	LowerLimit, AbsLowerLimit: maximum of thresholds (highest floor)
//	UpperLimit, AbsUpperLimit: minimum of thresholds (lowest ceiling)
//	Equal: the registered value (meaningful with exactly one criterion)
//
// The count of matching criteria is returned alongside; a count of zero
// means the collapsed value is meaningless and the check must be skipped.
func (s *Set) Collapse(variable int, cmp Comparison) (float64, int) {
	tightest := 0.0
	n := 0
	for _, c := range s.criteria {
		if c.Variable != variable {
			continue
		}
		if n == 0 {
			tightest = c.Threshold
			n++
			continue
		}
		switch cmp {
		case LowerLimit, AbsLowerLimit:
			tightest = math.Max(tightest, c.Threshold)
		case UpperLimit, AbsUpperLimit:
			tightest = math.Min(tightest, c.Threshold)
		case Equal:
			tightest = c.Threshold
		}
		n++
	}
	return tightest, n
}

// Mask is a bit container for cut outcomes. The carrier is always 64 bits
// wide; the host declares an effective width (8, 16, 32 or 64) and
// CheckWidth guarantees the ordinary criteria fit it.
type Mask uint64

// MaxWidth is the widest supported container in bits.
const MaxWidth = 64

// SetBit sets the bit at the given index.
func (m *Mask) SetBit(bit uint) {
	*m |= 1 << bit
}

// Bit reports whether the bit at the given index is set.
func (m Mask) Bit(bit uint) bool {
	return m&(1<<bit) != 0
}

// TestAndSetBit evaluates observable against threshold and, on pass, sets
// the bit at the current cursor position in mask. The cursor advances once
// per call whether or not the test passed, so bit positions stay aligned
// with registration order. Failure has no other side effect.
func TestAndSetBit(observable float64, cmp Comparison, threshold float64, mask *Mask, bit *uint) {
	if Pass(observable, cmp, threshold) {
		mask.SetBit(*bit)
	}
	*bit++
}

// TestAndSetBitPID applies the absolute-upper-limit test against the
// configured max |n-sigma| and appends the outcome at the next free PID bit.
// Called twice per species: once for the TPC-only value, once for the
// combined TPC+TOF value.
func TestAndSetBitPID(observable, nSigmaMax float64, mask *Mask, bit *uint) {
	TestAndSetBit(observable, AbsUpperLimit, nSigmaMax, mask, bit)
}

// WidthError reports a configuration whose ordinary criteria do not fit the
// declared container width. It is fatal: no evaluation may proceed.
type WidthError struct {
	// Criteria is the number of ordinary (non-PID) criteria configured.
	Criteria int

	// Width is the declared container width in bits.
	Width uint
}

// Error implements the error interface.
func (e *WidthError) Error() string {
	return fmt.Sprintf("selection: %d criteria exceed container width of %d bits", e.Criteria, e.Width)
}

// validWidths are the container widths a host may declare, mirroring the
// unsigned integer sizes a stored mask column can hold.
var validWidths = [...]uint{8, 16, 32, 64}

// CheckWidth verifies that the declared container width is supported and
// that the ordinary criteria count fits it. Returns *WidthError on
// overflow.
func CheckWidth(criteria int, width uint) error {
	supported := false
	for _, w := range validWidths {
		if w == width {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("selection: container width %d not supported (want 8, 16, 32 or 64)", width)
	}
	if uint(criteria) > width {
		return &WidthError{Criteria: criteria, Width: width}
	}
	return nil
}
