package track

import "math"

// Recorder is the diagnostic sink the engine fills. One-value fills are
// plain counts along a single axis; two-value fills are (x, y) pairs.
// Implementations own their thread safety; the engine only appends and
// never reads back.
type Recorder interface {
	Fill(category, name string, values ...float64)
}

// FillQA forwards the record's observables and derived n-sigma
// combinations to the sink under the given category key. Selection
// outcomes are unaffected by anything that happens here.
func (s *Selector) FillQA(rec Recorder, category string, r *Record) {
	if rec == nil {
		return
	}

	rec.Fill(category, "pt", r.Pt)
	rec.Fill(category, "eta", r.Eta)
	rec.Fill(category, "phi", r.Phi)
	rec.Fill(category, "tpc_findable", float64(r.TPCNClsFindable))
	rec.Fill(category, "tpc_found", float64(r.TPCNClsFound))
	rec.Fill(category, "tpc_crossed_over_findable", r.TPCCrossedRowsOverFindable)
	rec.Fill(category, "tpc_crossed_rows", float64(r.TPCNClsCrossedRows))
	rec.Fill(category, "tpc_findable_vs_crossed", float64(r.TPCNClsFindable), float64(r.TPCNClsCrossedRows))
	rec.Fill(category, "tpc_shared", float64(r.TPCNClsShared))
	rec.Fill(category, "tpc_shared_fraction", r.TPCFractionSharedCls)
	rec.Fill(category, "its_clusters", float64(r.ITSNCls))
	rec.Fill(category, "its_clusters_ib", float64(r.ITSNClsInnerBarrel))
	rec.Fill(category, "dca_xy", r.Pt, r.DCAxy)
	rec.Fill(category, "dca_z", r.Pt, r.DCAz)
	rec.Fill(category, "dca", r.Pt, r.DCACombined())
	rec.Fill(category, "tpc_dedx", r.P, r.TPCSignal)

	// Catalogue order keeps the fill sequence deterministic; species the
	// record has no measurement for are left out rather than filled with
	// sentinels.
	for _, sp := range AllSpecies() {
		tpc, hasTPC := r.TPCNSigma[sp]
		tof, hasTOF := r.TOFNSigma[sp]
		if hasTPC {
			rec.Fill(category, "nsigma_tpc_"+string(sp), r.P, tpc)
		}
		if hasTOF {
			rec.Fill(category, "nsigma_tof_"+string(sp), r.P, tof)
		}
		if hasTPC && hasTOF {
			rec.Fill(category, "nsigma_comb_"+string(sp), r.P, math.Hypot(tpc, tof))
		}
	}
}
