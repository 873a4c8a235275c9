package track

import (
	"errors"
	"log/slog"
	"math"

	"github.com/quarkfold/cutflow/internal/selection"
)

// notPropagatedDCA is the sentinel |DCA| in cm beyond which a track is
// treated as never propagated to the primary vertex.
const notPropagatedDCA = 1e3

// Selector evaluates configured track cuts.
//
// Lifecycle: Unconfigured -> Configured (after Finalize) -> Evaluating.
// Register, SetSpecies and the setters are only legal before Finalize;
// evaluation is only legal after. There is no way back: reconfiguration
// means a fresh instance.
//
// Thread-safety model:
//   - construction and Finalize: single goroutine
//   - after Finalize: read-only, safe for concurrent evaluation on
//     independent records
type Selector struct {
	set     selection.Set
	species []Species

	nSigmaOffsetTPC     float64
	nSigmaOffsetTOF     float64
	rejectNotPropagated bool

	// collapsed holds the tightest threshold and criterion count per
	// variable, derived once at Finalize. A zero count disables the check.
	collapsed [numVariables]collapsedCut

	width     uint
	finalized bool

	log *slog.Logger
}

type collapsedCut struct {
	threshold float64
	n         int
}

// SelectorOption configures a Selector at construction.
type SelectorOption func(*Selector)

// WithLogger sets the logger used for evaluation diagnostics.
// Default: slog.Default().
func WithLogger(log *slog.Logger) SelectorOption {
	return func(s *Selector) {
		s.log = log
	}
}

// NewSelector creates an empty, unconfigured Selector.
func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register appends one criterion per threshold for the given variable, in
// order. The comparison kind comes from the catalogue. No width bound is
// enforced here; overflow surfaces at Finalize.
func (s *Selector) Register(v Variable, thresholds ...float64) error {
	if s.finalized {
		return &ConfigError{
			Code:    ErrCodeRegisterAfterFinalize,
			Message: "selector already finalized",
			Subject: v.Name(),
		}
	}
	if !v.Valid() {
		return newUnknownVariableError(v.Name())
	}
	for _, th := range thresholds {
		s.set.Register(int(v), v.Comparison(), th)
	}
	return nil
}

// SetSpecies records which particle species need n-sigma evaluation.
// Must be called before Finalize for any configuration with PID cuts.
func (s *Selector) SetSpecies(species ...Species) error {
	if s.finalized {
		return &ConfigError{
			Code:    ErrCodeRegisterAfterFinalize,
			Message: "selector already finalized",
		}
	}
	for _, sp := range species {
		if !sp.Valid() {
			return newUnknownSpeciesError(string(sp))
		}
	}
	s.species = append(s.species, species...)
	return nil
}

// SetNSigmaOffsets sets the TPC and TOF n-sigma biases subtracted from
// every residual before testing.
func (s *Selector) SetNSigmaOffsets(tpc, tof float64) {
	s.nSigmaOffsetTPC = tpc
	s.nSigmaOffsetTOF = tof
}

// SetRejectNotPropagated enables rejection of tracks whose |DCA| exceeds
// the not-propagated sentinel on the fast path.
func (s *Selector) SetRejectNotPropagated(reject bool) {
	s.rejectNotPropagated = reject
}

// Species returns the configured species in registration order.
func (s *Selector) Species() []Species {
	return s.species
}

// OrdinaryCriteria returns the number of registered non-PID criteria, the
// count the container width must accommodate.
func (s *Selector) OrdinaryCriteria() int {
	return s.set.Len() - s.set.Count(int(VarPIDNSigmaMax))
}

// Width returns the declared container width in bits, zero before Finalize.
func (s *Selector) Width() uint {
	return s.width
}

// Finalized reports whether the selector is ready to evaluate.
func (s *Selector) Finalized() bool {
	return s.finalized
}

// SigmaPIDMax returns the collapsed PID |n-sigma| bound, zero when no PID
// cut is configured. Meaningful after Finalize.
func (s *Selector) SigmaPIDMax() float64 {
	return s.collapsed[VarPIDNSigmaMax].threshold
}

// Finalize collapses thresholds and verifies the ordinary criteria fit the
// declared container width. A width overflow is a fatal configuration
// error: the selector stays unconfigured and must not evaluate.
func (s *Selector) Finalize(width uint) error {
	if s.finalized {
		return &ConfigError{
			Code:    ErrCodeAlreadyFinalized,
			Message: "selector already finalized",
		}
	}
	if err := selection.CheckWidth(s.OrdinaryCriteria(), width); err != nil {
		var we *selection.WidthError
		if errors.As(err, &we) {
			return &ConfigError{
				Code:    ErrCodeWidthOverflow,
				Message: we.Error(),
			}
		}
		return err
	}
	for v := Variable(0); v < numVariables; v++ {
		th, n := s.set.Collapse(int(v), v.Comparison())
		s.collapsed[v] = collapsedCut{threshold: th, n: n}
	}
	s.width = width
	s.finalized = true
	return nil
}

// IsSelectedMinimal is the fast rejection path for streaming pipelines.
//
// Checks run in fixed catalogue order and short-circuit on the first
// failing active check. Sign is not part of the fast path. The "3D" DCA
// here is dcaXY alone (legacy semantics carried from the original
// selection; the full container path uses the xy/z combination instead).
// The PID portion passes when any configured species has an
// offset-corrected TPC residual strictly inside the collapsed bound.
func (s *Selector) IsSelectedMinimal(r *Record) bool {
	if !s.finalized {
		s.log.Error("minimal evaluation before finalize rejected")
		return false
	}

	if c := s.collapsed[VarPtMin]; c.n > 0 && r.Pt < c.threshold {
		return false
	}
	if c := s.collapsed[VarPtMax]; c.n > 0 && r.Pt > c.threshold {
		return false
	}
	if c := s.collapsed[VarEtaMax]; c.n > 0 && math.Abs(r.Eta) > c.threshold {
		return false
	}
	if c := s.collapsed[VarTPCNClsMin]; c.n > 0 && float64(r.TPCNClsFound) < c.threshold {
		return false
	}
	if c := s.collapsed[VarTPCFClsMin]; c.n > 0 && r.TPCCrossedRowsOverFindable < c.threshold {
		return false
	}
	if c := s.collapsed[VarTPCCRowsMin]; c.n > 0 && float64(r.TPCNClsCrossedRows) < c.threshold {
		return false
	}
	if c := s.collapsed[VarTPCSClsMax]; c.n > 0 && float64(r.TPCNClsShared) > c.threshold {
		return false
	}
	if c := s.collapsed[VarTPCFracSClsMax]; c.n > 0 && r.TPCFractionSharedCls > c.threshold {
		return false
	}
	if c := s.collapsed[VarITSNClsMin]; c.n > 0 && float64(r.ITSNCls) < c.threshold {
		return false
	}
	if c := s.collapsed[VarITSNClsIbMin]; c.n > 0 && float64(r.ITSNClsInnerBarrel) < c.threshold {
		return false
	}
	if c := s.collapsed[VarDCAxyMax]; c.n > 0 && math.Abs(r.DCAxy) > c.threshold {
		return false
	}
	if c := s.collapsed[VarDCAzMax]; c.n > 0 && math.Abs(r.DCAz) > c.threshold {
		return false
	}

	// Fast-path 3D DCA is dcaXY, not the xy/z combination.
	dca := r.DCAxy
	if c := s.collapsed[VarDCAMin]; c.n > 0 && math.Abs(dca) < c.threshold {
		return false
	}
	if s.rejectNotPropagated && math.Abs(dca) > notPropagatedDCA {
		return false
	}

	if c := s.collapsed[VarPIDNSigmaMax]; c.n > 0 {
		fulfilled := false
		for _, sp := range s.species {
			if math.Abs(r.NSigmaTPC(sp)-s.nSigmaOffsetTPC) < c.threshold {
				fulfilled = true
			}
		}
		if !fulfilled {
			return false
		}
	}
	return true
}

// CutContainer runs the full evaluation and returns the two-part bit
// container: ordinary cut bits in registration order, then PID bits (two
// per species per PID criterion: TPC-only, then combined TPC+TOF).
//
// Unlike the fast path, the DCAMin observable here is the Euclidean
// combination of dcaXY and dcaZ. The divergence is intentional.
func (s *Selector) CutContainer(r *Record) (cuts, pid selection.Mask) {
	if !s.finalized {
		s.log.Error("container evaluation before finalize rejected")
		return 0, 0
	}

	dca := r.DCACombined()
	var cutBit, pidBit uint
	for _, c := range s.set.Criteria() {
		v := Variable(c.Variable)
		if v == VarPIDNSigmaMax {
			for _, sp := range s.species {
				tpc := r.NSigmaTPC(sp) - s.nSigmaOffsetTPC
				tof := r.NSigmaTOF(sp) - s.nSigmaOffsetTOF
				comb := math.Hypot(tpc, tof)
				selection.TestAndSetBitPID(tpc, c.Threshold, &pid, &pidBit)
				selection.TestAndSetBitPID(comb, c.Threshold, &pid, &pidBit)
			}
			continue
		}

		obs, ok := s.observable(r, v, dca)
		if !ok {
			// Unknown kind: the bit stays unset but the cursor advances so
			// later bits keep their registered positions.
			s.log.Debug("skipping criterion with unknown variable", "variable", int(v))
			cutBit++
			continue
		}
		selection.TestAndSetBit(obs, c.Comparison, c.Threshold, &cuts, &cutBit)
	}
	return cuts, pid
}

// observable extracts the value a variable constrains. The false return
// covers uncatalogued variables; callers skip those criteria silently.
func (s *Selector) observable(r *Record, v Variable, dca float64) (float64, bool) {
	switch v {
	case VarSign:
		return float64(r.Sign), true
	case VarPtMin, VarPtMax:
		return r.Pt, true
	case VarEtaMax:
		return r.Eta, true
	case VarTPCNClsMin:
		return float64(r.TPCNClsFound), true
	case VarTPCFClsMin:
		return r.TPCCrossedRowsOverFindable, true
	case VarTPCCRowsMin:
		return float64(r.TPCNClsCrossedRows), true
	case VarTPCSClsMax:
		return float64(r.TPCNClsShared), true
	case VarTPCFracSClsMax:
		return r.TPCFractionSharedCls, true
	case VarITSNClsMin:
		return float64(r.ITSNCls), true
	case VarITSNClsIbMin:
		return float64(r.ITSNClsInnerBarrel), true
	case VarDCAxyMax:
		return r.DCAxy, true
	case VarDCAzMax:
		return r.DCAz, true
	case VarDCAMin:
		return dca, true
	default:
		return 0, false
	}
}

// OrdinaryLayout returns the non-PID criteria in bit order: entry i holds
// the criterion whose outcome lands in bit i of the ordinary mask.
func (s *Selector) OrdinaryLayout() []selection.Criterion {
	layout := make([]selection.Criterion, 0, s.OrdinaryCriteria())
	for _, c := range s.set.Criteria() {
		if Variable(c.Variable) != VarPIDNSigmaMax {
			layout = append(layout, c)
		}
	}
	return layout
}

// PIDBit describes one position of the PID mask.
type PIDBit struct {
	// Species is the hypothesis tested at this bit.
	Species Species

	// Combined is false for the TPC-only bit, true for the TPC+TOF bit.
	Combined bool

	// NSigmaMax is the bound of the criterion that produced the bit.
	NSigmaMax float64
}

// PIDLayout returns the PID mask layout in bit order: for each PID
// criterion in registration order, two entries per configured species.
func (s *Selector) PIDLayout() []PIDBit {
	var layout []PIDBit
	for _, c := range s.set.Criteria() {
		if Variable(c.Variable) != VarPIDNSigmaMax {
			continue
		}
		for _, sp := range s.species {
			layout = append(layout,
				PIDBit{Species: sp, Combined: false, NSigmaMax: c.Threshold},
				PIDBit{Species: sp, Combined: true, NSigmaMax: c.Threshold},
			)
		}
	}
	return layout
}

// Observable returns the value of r constrained by v, as the container
// path sees it: for DCAMin that is the combined xy/z DCA. The false
// return covers PID and uncatalogued variables, which have no single
// scalar observable.
func (s *Selector) Observable(r *Record, v Variable) (float64, bool) {
	if v == VarPIDNSigmaMax {
		return 0, false
	}
	return s.observable(r, v, r.DCACombined())
}

// CollapsedBound returns the fast-path threshold for v after collapsing
// and the number of criteria that collapsed into it. A zero count means
// the variable takes no part in the fast path. Meaningful after Finalize.
func (s *Selector) CollapsedBound(v Variable) (float64, int) {
	if !v.Valid() {
		return 0, 0
	}
	c := s.collapsed[v]
	return c.threshold, c.n
}
