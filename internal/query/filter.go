package query

import (
	"fmt"
	"strings"

	"github.com/quarkfold/cutflow/internal/track"
)

// Filter is a typed query over one run's candidates. Nil pointer fields
// and empty slices mean "no constraint".
type Filter struct {
	// RunID selects the run. Required.
	RunID string

	// Selected keeps only candidates with the given final verdict.
	Selected *bool

	// Sign keeps only candidates with the given charge sign.
	Sign *int

	// PtMin and PtMax bound the transverse momentum, inclusive.
	PtMin *float64
	PtMax *float64

	// EtaAbsMax bounds |eta|, inclusive.
	EtaAbsMax *float64

	// CutPassed and CutFailed name config variables whose ordinary
	// bits must all be set, respectively all be clear. A variable cut
	// more than once contributes every one of its bits.
	CutPassed []string
	CutFailed []string

	// PIDPassed holds selectors of the form "species:detector" with
	// detector tpc or comb, e.g. "pi:tpc". Every resolved PID bit must
	// be set.
	PIDPassed []string

	// Limit caps the row count when non-nil. Must be positive.
	Limit *int
}

// Resolver maps config variable names and PID selectors to the stored
// mask bit positions of one finalized selector. Queries against a run
// must resolve through the run's own config; bit positions are not
// portable between configs.
type Resolver struct {
	ordinary map[string]uint64
	pid      map[string]uint64
}

// NewResolver captures the bit layout of a finalized selector.
func NewResolver(sel *track.Selector) *Resolver {
	r := &Resolver{
		ordinary: make(map[string]uint64),
		pid:      make(map[string]uint64),
	}
	for bit, c := range sel.OrdinaryLayout() {
		name := track.Variable(c.Variable).Name()
		r.ordinary[name] |= 1 << uint(bit)
	}
	for bit, pb := range sel.PIDLayout() {
		r.pid[pidKey(pb.Species, pb.Combined)] |= 1 << uint(bit)
	}
	return r
}

// OrdinaryMask returns the OR of all ordinary bits testing the named
// variable, and whether the config cuts it at all.
func (r *Resolver) OrdinaryMask(variable string) (uint64, bool) {
	v, ok := track.FindVariable(variable)
	if !ok {
		return 0, false
	}
	mask, ok := r.ordinary[v.Name()]
	return mask, ok
}

// PIDMask returns the OR of all PID bits for the species under the
// given detector mode, and whether the config tests that species.
func (r *Resolver) PIDMask(sp track.Species, combined bool) (uint64, bool) {
	mask, ok := r.pid[pidKey(sp, combined)]
	return mask, ok
}

func pidKey(sp track.Species, combined bool) string {
	if combined {
		return string(sp) + ":comb"
	}
	return string(sp) + ":tpc"
}

// ParsePIDSelector splits a "species:detector" selector. The species
// accepts short codes and full names; the detector must be tpc or comb.
func ParsePIDSelector(s string) (track.Species, bool, error) {
	name, det, ok := strings.Cut(s, ":")
	if !ok {
		return "", false, fmt.Errorf("pid selector %q: want species:detector", s)
	}
	sp, err := track.ParseSpecies(name)
	if err != nil {
		return "", false, fmt.Errorf("pid selector %q: %w", s, err)
	}
	switch det {
	case "tpc":
		return sp, false, nil
	case "comb":
		return sp, true, nil
	default:
		return "", false, fmt.Errorf("pid selector %q: detector must be tpc or comb", s)
	}
}
