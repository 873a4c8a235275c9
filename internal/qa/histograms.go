package qa

import (
	"math"
	"sort"
	"sync"
)

// Axis is one binned dimension of a histogram.
type Axis struct {
	Bins int
	Min  float64
	Max  float64
}

// width returns the size of one bin.
func (a Axis) width() float64 {
	return (a.Max - a.Min) / float64(a.Bins)
}

// lookup places v on the axis. ok is false when v falls outside
// [Min, Max) or is NaN; under reports which side it fell off.
func (a Axis) lookup(v float64) (bin int, under, ok bool) {
	if math.IsNaN(v) {
		return 0, false, false
	}
	if v < a.Min {
		return 0, true, false
	}
	if v >= a.Max {
		return 0, false, false
	}
	bin = int((v - a.Min) / a.width())
	if bin >= a.Bins {
		bin = a.Bins - 1
	}
	return bin, false, true
}

// speciesCodes matches the track catalogue order. Kept local so the
// sink has no dependency on the evaluation packages.
var speciesCodes = []string{"el", "pi", "ka", "pr", "de"}

// axisCatalogue maps fill names to their binning. The entries mirror
// the upstream QA registry; changing an axis silently invalidates any
// persisted counts for that name.
var axisCatalogue = buildCatalogue()

func buildCatalogue() map[string][]Axis {
	pAxis := Axis{100, 0, 10}
	nSigmaAxis := Axis{200, -4.975, 5.025}
	clustersAxis := Axis{163, -0.5, 162.5}
	rowsAxis := Axis{163, 0, 163}

	c := map[string][]Axis{
		"pt":                        {{240, 0, 6}},
		"eta":                       {{200, -1.5, 1.5}},
		"phi":                       {{200, 0, 2 * math.Pi}},
		"tpc_findable":              {clustersAxis},
		"tpc_found":                 {clustersAxis},
		"tpc_crossed_over_findable": {{100, 0.5, 1.5}},
		"tpc_crossed_rows":          {rowsAxis},
		"tpc_findable_vs_crossed":   {rowsAxis, rowsAxis},
		"tpc_shared":                {clustersAxis},
		"tpc_shared_fraction":       {{100, 0, 100}},
		"its_clusters":              {{10, -0.5, 9.5}},
		"its_clusters_ib":           {{10, -0.5, 9.5}},
		"dca_xy":                    {pAxis, {500, -5, 5}},
		"dca_z":                     {pAxis, {500, -5, 5}},
		"dca":                       {pAxis, {301, 0, 1.5}},
		"tpc_dedx":                  {pAxis, {1000, 0, 1000}},
	}
	for _, sp := range speciesCodes {
		c["nsigma_tpc_"+sp] = []Axis{pAxis, nSigmaAxis}
		c["nsigma_tof_"+sp] = []Axis{pAxis, nSigmaAxis}
		c["nsigma_comb_"+sp] = []Axis{pAxis, nSigmaAxis}
	}
	return c
}

// Axes returns the catalogue binning for a fill name.
func Axes(name string) ([]Axis, bool) {
	axes, ok := axisCatalogue[name]
	return axes, ok
}

// histogram holds the counts for one (category, name) pair. Bins are
// flattened row-major for 2D; out-of-range fills land in under/over.
type histogram struct {
	axes  []Axis
	bins  []uint64
	under uint64
	over  uint64
}

func newHistogram(axes []Axis) *histogram {
	n := 1
	for _, a := range axes {
		n *= a.Bins
	}
	return &histogram{axes: axes, bins: make([]uint64, n)}
}

func (h *histogram) fill(values []float64) {
	flat := 0
	for i, a := range h.axes {
		bin, under, ok := a.lookup(values[i])
		if !ok {
			if under {
				h.under++
			} else {
				h.over++
			}
			return
		}
		flat = flat*a.Bins + bin
	}
	h.bins[flat]++
}

func (h *histogram) entries() uint64 {
	total := h.under + h.over
	for _, c := range h.bins {
		total += c
	}
	return total
}

type histKey struct {
	category string
	name     string
}

// Histograms is the standard Recorder implementation backed by the
// fixed axis catalogue.
type Histograms struct {
	mu      sync.Mutex
	hists   map[histKey]*histogram
	dropped uint64
}

// New returns an empty sink.
func New() *Histograms {
	return &Histograms{hists: make(map[histKey]*histogram)}
}

// Fill bins the values into the histogram for (category, name),
// creating it on first use. Unknown names and arity mismatches are
// counted as dropped.
func (h *Histograms) Fill(category, name string, values ...float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	axes, ok := axisCatalogue[name]
	if !ok || len(values) != len(axes) {
		h.dropped++
		return
	}

	key := histKey{category: category, name: name}
	hist := h.hists[key]
	if hist == nil {
		hist = newHistogram(axes)
		h.hists[key] = hist
	}
	hist.fill(values)
}

// Dropped returns how many fills were rejected for unknown names or
// wrong arity.
func (h *Histograms) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Entries returns the total fill count routed to one histogram,
// including under/overflow.
func (h *Histograms) Entries(category, name string) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	hist := h.hists[histKey{category: category, name: name}]
	if hist == nil {
		return 0
	}
	return hist.entries()
}

// BinCount is one non-zero histogram bin in a snapshot. Bin is the
// row-major flat index; UnderflowBin and the histogram's total bin
// count mark the two out-of-range buckets.
type BinCount struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Dim      int    `json:"dim"`
	Bin      int    `json:"bin"`
	Count    uint64 `json:"count"`
}

// UnderflowBin is the pseudo bin index for fills below axis range.
// Overflow uses the histogram's total bin count.
const UnderflowBin = -1

// Snapshot returns every non-zero bin sorted by category, name, bin.
// The result is stable across identical fill sequences.
func (h *Histograms) Snapshot() []BinCount {
	h.mu.Lock()
	defer h.mu.Unlock()

	keys := make([]histKey, 0, len(h.hists))
	for k := range h.hists {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return keys[i].category < keys[j].category
		}
		return keys[i].name < keys[j].name
	})

	var out []BinCount
	for _, k := range keys {
		hist := h.hists[k]
		if hist.under > 0 {
			out = append(out, BinCount{k.category, k.name, len(hist.axes), UnderflowBin, hist.under})
		}
		for bin, c := range hist.bins {
			if c > 0 {
				out = append(out, BinCount{k.category, k.name, len(hist.axes), bin, c})
			}
		}
		if hist.over > 0 {
			out = append(out, BinCount{k.category, k.name, len(hist.axes), len(hist.bins), hist.over})
		}
	}
	return out
}

// Discard is a Recorder that drops every fill. Used when a run does
// not want diagnostics.
type Discard struct{}

// Fill implements the Recorder contract as a no-op.
func (Discard) Fill(string, string, ...float64) {}
