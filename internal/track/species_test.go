package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecies(t *testing.T) {
	tests := []struct {
		in   string
		want Species
	}{
		{"el", SpeciesElectron},
		{"pi", SpeciesPion},
		{"ka", SpeciesKaon},
		{"pr", SpeciesProton},
		{"de", SpeciesDeuteron},
		{"electron", SpeciesElectron},
		{"pion", SpeciesPion},
		{"kaon", SpeciesKaon},
		{"proton", SpeciesProton},
		{"deuteron", SpeciesDeuteron},
	}
	for _, tt := range tests {
		got, err := ParseSpecies(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseSpecies("muon")
	assert.Error(t, err)
	_, err = ParseSpecies("")
	assert.Error(t, err)
	_, err = ParseSpecies("PI")
	assert.Error(t, err, "codes are case-sensitive")
}

func TestAllSpeciesOrder(t *testing.T) {
	all := AllSpecies()
	require.Len(t, all, 5)
	assert.Equal(t, SpeciesElectron, all[0])
	assert.Equal(t, SpeciesDeuteron, all[4])
	for _, sp := range all {
		assert.True(t, sp.Valid())
	}
	assert.False(t, Species("mu").Valid())
}
