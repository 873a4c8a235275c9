package testutil

import "github.com/quarkfold/cutflow/internal/track"

// GoodRecord returns a track that comfortably passes the reference cut
// sets used across the test suites: a positive 0.75 GeV/c pion-like
// track at mid-rapidity with healthy TPC/ITS cluster counts, small
// DCAs and sub-sigma PID residuals. Tests tweak individual fields to
// drive specific cuts past their thresholds.
func GoodRecord(mods ...func(*track.Record)) *track.Record {
	r := &track.Record{
		Sign:                       1,
		Pt:                         0.75,
		Eta:                        0.2,
		Phi:                        1.3,
		P:                          0.77,
		TPCNClsFindable:            100,
		TPCNClsFound:               95,
		TPCCrossedRowsOverFindable: 0.9,
		TPCNClsCrossedRows:         88,
		TPCNClsShared:              2,
		TPCFractionSharedCls:       0.02,
		ITSNCls:                    6,
		ITSNClsInnerBarrel:         2,
		DCAxy:                      0.02,
		DCAz:                       0.05,
		TPCSignal:                  72.5,
		TPCNSigma: map[track.Species]float64{
			track.SpeciesPion:   0.4,
			track.SpeciesProton: 2.1,
		},
		TOFNSigma: map[track.Species]float64{
			track.SpeciesPion:   0.6,
			track.SpeciesProton: 2.4,
		},
	}
	for _, mod := range mods {
		mod(r)
	}
	return r
}
