package track

import "math"

// Record is the read-only observable bag for one reconstructed track.
// The engine never mutates it. Field tags follow the line-oriented JSON
// input format and the YAML scenario fixtures.
type Record struct {
	// Sign is the reconstructed charge sign, +1 or -1.
	Sign int `json:"sign" yaml:"sign"`

	// Pt is the transverse momentum in GeV/c.
	Pt float64 `json:"pt" yaml:"pt"`

	// Eta is the pseudorapidity.
	Eta float64 `json:"eta" yaml:"eta"`

	// Phi is the azimuthal angle in radians. QA only.
	Phi float64 `json:"phi" yaml:"phi"`

	// P is the total momentum in GeV/c. QA only.
	P float64 `json:"p" yaml:"p"`

	// TPCNClsFindable is the findable TPC cluster count. QA only.
	TPCNClsFindable int `json:"tpc_ncls_findable" yaml:"tpc_ncls_findable"`

	// TPCNClsFound is the found TPC cluster count.
	TPCNClsFound int `json:"tpc_ncls_found" yaml:"tpc_ncls_found"`

	// TPCCrossedRowsOverFindable is the crossed-rows / findable-clusters ratio.
	TPCCrossedRowsOverFindable float64 `json:"tpc_crossed_rows_over_findable" yaml:"tpc_crossed_rows_over_findable"`

	// TPCNClsCrossedRows is the crossed TPC row count.
	TPCNClsCrossedRows int `json:"tpc_ncls_crossed_rows" yaml:"tpc_ncls_crossed_rows"`

	// TPCNClsShared is the shared TPC cluster count.
	TPCNClsShared int `json:"tpc_ncls_shared" yaml:"tpc_ncls_shared"`

	// TPCFractionSharedCls is the shared TPC cluster fraction.
	TPCFractionSharedCls float64 `json:"tpc_fraction_shared_cls" yaml:"tpc_fraction_shared_cls"`

	// ITSNCls is the total ITS cluster count.
	ITSNCls int `json:"its_ncls" yaml:"its_ncls"`

	// ITSNClsInnerBarrel is the inner-barrel ITS cluster count.
	ITSNClsInnerBarrel int `json:"its_ncls_ib" yaml:"its_ncls_ib"`

	// DCAxy is the transverse distance of closest approach in cm.
	DCAxy float64 `json:"dca_xy" yaml:"dca_xy"`

	// DCAz is the longitudinal distance of closest approach in cm.
	DCAz float64 `json:"dca_z" yaml:"dca_z"`

	// TPCSignal is the TPC dE/dx signal. QA only.
	TPCSignal float64 `json:"tpc_signal" yaml:"tpc_signal"`

	// TPCNSigma holds per-species TPC n-sigma residuals. Absent species
	// read as +Inf and fail every PID bound.
	TPCNSigma map[Species]float64 `json:"tpc_nsigma,omitempty" yaml:"tpc_nsigma,omitempty"`

	// TOFNSigma holds per-species TOF n-sigma residuals, same convention.
	TOFNSigma map[Species]float64 `json:"tof_nsigma,omitempty" yaml:"tof_nsigma,omitempty"`
}

// NSigmaTPC returns the TPC n-sigma for the species hypothesis, +Inf when
// the record carries no measurement for it.
func (r *Record) NSigmaTPC(s Species) float64 {
	if v, ok := r.TPCNSigma[s]; ok {
		return v
	}
	return math.Inf(1)
}

// NSigmaTOF returns the TOF n-sigma for the species hypothesis, +Inf when
// the record carries no measurement for it.
func (r *Record) NSigmaTOF(s Species) float64 {
	if v, ok := r.TOFNSigma[s]; ok {
		return v
	}
	return math.Inf(1)
}

// DCACombined returns the xy/z Euclidean combination used by the full
// container path and the QA dca plot.
func (r *Record) DCACombined() float64 {
	return math.Hypot(r.DCAxy, r.DCAz)
}
