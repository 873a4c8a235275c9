package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureRecorder collects fills for assertions.
type captureRecorder struct {
	fills []capturedFill
}

type capturedFill struct {
	category string
	name     string
	values   []float64
}

func (c *captureRecorder) Fill(category, name string, values ...float64) {
	c.fills = append(c.fills, capturedFill{category: category, name: name, values: values})
}

func (c *captureRecorder) find(name string) (capturedFill, bool) {
	for _, f := range c.fills {
		if f.name == name {
			return f, true
		}
	}
	return capturedFill{}, false
}

func TestFillQA(t *testing.T) {
	s := newSelector(t)
	rec := &captureRecorder{}
	r := goodTrack()

	s.FillQA(rec, "track/primary", r)

	// Base observables, 1D.
	pt, ok := rec.find("pt")
	require.True(t, ok)
	assert.Equal(t, "track/primary", pt.category)
	assert.Equal(t, []float64{1.2}, pt.values)

	// Correlated observables, 2D against pt or p.
	dcaXY, ok := rec.find("dca_xy")
	require.True(t, ok)
	assert.Equal(t, []float64{1.2, 0.02}, dcaXY.values)

	dedx, ok := rec.find("tpc_dedx")
	require.True(t, ok)
	assert.Equal(t, []float64{1.4, 75}, dedx.values)

	findableVsCrossed, ok := rec.find("tpc_findable_vs_crossed")
	require.True(t, ok)
	assert.Equal(t, []float64{140, 110}, findableVsCrossed.values)

	// n-sigma fills only for measured species, combined only when both
	// detectors measured.
	_, ok = rec.find("nsigma_tpc_pi")
	assert.True(t, ok)
	_, ok = rec.find("nsigma_comb_pi")
	assert.True(t, ok)
	_, ok = rec.find("nsigma_tpc_ka")
	assert.False(t, ok)
	_, ok = rec.find("nsigma_comb_ka")
	assert.False(t, ok)
}

func TestFillQANilRecorder(t *testing.T) {
	s := newSelector(t)
	assert.NotPanics(t, func() { s.FillQA(nil, "track/primary", goodTrack()) })
}

func TestFillQADoesNotAffectSelection(t *testing.T) {
	s := newSelector(t)
	r := goodTrack()

	before, beforePID := s.CutContainer(r)
	s.FillQA(&captureRecorder{}, "track/primary", r)
	after, afterPID := s.CutContainer(r)

	assert.Equal(t, before, after)
	assert.Equal(t, beforePID, afterPID)
}
