package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarkfold/cutflow/internal/track"
)

// testSelector builds a finalized selector with a known bit layout:
//
//	ordinary: bit 0 PtMin(0.4), bit 1 PtMin(0.5), bit 2 EtaMax(0.8),
//	          bit 3 TPCnClsMin(80)
//	pid:      bit 0 pi:tpc, bit 1 pi:comb, bit 2 pr:tpc, bit 3 pr:comb
func testSelector(t *testing.T) *track.Selector {
	t.Helper()
	sel := track.NewSelector()
	require.NoError(t, sel.Register(track.VarPtMin, 0.4, 0.5))
	require.NoError(t, sel.Register(track.VarEtaMax, 0.8))
	require.NoError(t, sel.Register(track.VarTPCNClsMin, 80))
	require.NoError(t, sel.Register(track.VarPIDNSigmaMax, 3.0))
	require.NoError(t, sel.SetSpecies(track.SpeciesPion, track.SpeciesProton))
	require.NoError(t, sel.Finalize(32))
	return sel
}

func TestNewResolver_OrdinaryMasks(t *testing.T) {
	r := NewResolver(testSelector(t))

	tests := []struct {
		variable string
		mask     uint64
		ok       bool
	}{
		{"PtMin", 0b0011, true}, // two thresholds, two bits
		{"EtaMax", 0b0100, true},
		{"TPCnClsMin", 0b1000, true},
		{"DCAxyMax", 0, false}, // catalogued but not cut here
		{"Bogus", 0, false},    // not catalogued at all
	}

	for _, tt := range tests {
		mask, ok := r.OrdinaryMask(tt.variable)
		assert.Equal(t, tt.ok, ok, tt.variable)
		assert.Equal(t, tt.mask, mask, tt.variable)
	}
}

func TestNewResolver_PIDMasks(t *testing.T) {
	r := NewResolver(testSelector(t))

	tests := []struct {
		species  track.Species
		combined bool
		mask     uint64
		ok       bool
	}{
		{track.SpeciesPion, false, 1 << 0, true},
		{track.SpeciesPion, true, 1 << 1, true},
		{track.SpeciesProton, false, 1 << 2, true},
		{track.SpeciesProton, true, 1 << 3, true},
		{track.SpeciesKaon, false, 0, false}, // not configured
	}

	for _, tt := range tests {
		mask, ok := r.PIDMask(tt.species, tt.combined)
		assert.Equal(t, tt.ok, ok, "%s combined=%v", tt.species, tt.combined)
		assert.Equal(t, tt.mask, mask, "%s combined=%v", tt.species, tt.combined)
	}
}

func TestParsePIDSelector(t *testing.T) {
	tests := []struct {
		in       string
		species  track.Species
		combined bool
		wantErr  bool
	}{
		{"pi:tpc", track.SpeciesPion, false, false},
		{"pi:comb", track.SpeciesPion, true, false},
		{"proton:comb", track.SpeciesProton, true, false}, // full name accepted
		{"pi", "", false, true},                           // missing detector
		{"mu:tpc", "", false, true},                       // unknown species
		{"pi:tof", "", false, true},                       // unknown detector
	}

	for _, tt := range tests {
		sp, combined, err := ParsePIDSelector(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.species, sp, tt.in)
		assert.Equal(t, tt.combined, combined, tt.in)
	}
}
