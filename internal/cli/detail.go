package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/selection"
	"github.com/quarkfold/cutflow/internal/track"
)

// BitDetail is one decoded ordinary-mask bit: the criterion behind the
// bit, the value the track presented and whether the bit is set.
type BitDetail struct {
	Bit        int     `json:"bit"`
	Variable   string  `json:"variable"`
	Comparison string  `json:"comparison"`
	Threshold  float64 `json:"threshold"`
	Observed   float64 `json:"observed"`
	Pass       bool    `json:"pass"`
}

// PIDBitDetail is one decoded PID-mask bit. Observed is the
// offset-corrected residual the bit tested: the TPC residual for tpc
// bits, the TPC/TOF combination for comb bits.
type PIDBitDetail struct {
	Bit       int     `json:"bit"`
	Species   string  `json:"species"`
	Detector  string  `json:"detector"`
	NSigmaMax float64 `json:"nsigma_max"`
	Observed  float64 `json:"observed"`
	Pass      bool    `json:"pass"`
}

// decodeBits expands the two masks of one evaluated track into per-bit
// rows. The selector supplies the bit layout, the config the PID
// offsets, the record the observables. Pass reflects the mask bits as
// given, so stored masks decode to what the original run saw even if
// the decode recomputes observables.
func decodeBits(sel *track.Selector, cfg *cutset.Config, r *track.Record, cuts, pid selection.Mask) ([]BitDetail, []PIDBitDetail) {
	ordinary := sel.OrdinaryLayout()
	bits := make([]BitDetail, 0, len(ordinary))
	for i, c := range ordinary {
		v := track.Variable(c.Variable)
		obs, _ := sel.Observable(r, v)
		bits = append(bits, BitDetail{
			Bit:        i,
			Variable:   v.Name(),
			Comparison: c.Comparison.Symbol(),
			Threshold:  c.Threshold,
			Observed:   obs,
			Pass:       cuts.Bit(uint(i)),
		})
	}

	layout := sel.PIDLayout()
	pidBits := make([]PIDBitDetail, 0, len(layout))
	for i, pb := range layout {
		tpc := r.NSigmaTPC(pb.Species) - cfg.PID.NSigmaOffsetTPC
		obs := tpc
		if pb.Combined {
			tof := r.NSigmaTOF(pb.Species) - cfg.PID.NSigmaOffsetTOF
			obs = math.Hypot(tpc, tof)
		}
		pidBits = append(pidBits, PIDBitDetail{
			Bit:       i,
			Species:   string(pb.Species),
			Detector:  detectorName(pb.Combined),
			NSigmaMax: pb.NSigmaMax,
			Observed:  obs,
			Pass:      pid.Bit(uint(i)),
		})
	}
	return bits, pidBits
}

// writeBitDetail renders the per-bit rows in the shared text layout.
func writeBitDetail(w io.Writer, bits []BitDetail, pidBits []PIDBitDetail) {
	fmt.Fprintf(w, "=== Ordinary bits ===\n")
	for _, b := range bits {
		fmt.Fprintf(w, "  [%d] %s %s %g: observed %g, %s\n",
			b.Bit, b.Variable, b.Comparison, b.Threshold, b.Observed, passWord(b.Pass))
	}
	if len(pidBits) > 0 {
		fmt.Fprintf(w, "=== PID bits ===\n")
		for _, b := range pidBits {
			fmt.Fprintf(w, "  [%d] %s %s |nsigma| <= %g: observed %g, %s\n",
				b.Bit, b.Species, b.Detector, b.NSigmaMax, b.Observed, passWord(b.Pass))
		}
	}
}

func passWord(pass bool) string {
	if pass {
		return "pass"
	}
	return "fail"
}
