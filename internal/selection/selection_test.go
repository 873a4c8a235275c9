package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPass(t *testing.T) {
	tests := []struct {
		name       string
		observable float64
		cmp        Comparison
		threshold  float64
		want       bool
	}{
		{"equal match", 1.0, Equal, 1.0, true},
		{"equal mismatch", -1.0, Equal, 1.0, false},
		{"lower limit above", 0.6, LowerLimit, 0.5, true},
		{"lower limit boundary passes", 0.5, LowerLimit, 0.5, true},
		{"lower limit below", 0.4, LowerLimit, 0.5, false},
		{"upper limit below", 3.9, UpperLimit, 4.0, true},
		{"upper limit boundary passes", 4.0, UpperLimit, 4.0, true},
		{"upper limit above", 4.1, UpperLimit, 4.0, false},
		{"abs lower limit negative", -0.7, AbsLowerLimit, 0.5, true},
		{"abs lower limit boundary", -0.5, AbsLowerLimit, 0.5, true},
		{"abs lower limit inside", 0.2, AbsLowerLimit, 0.5, false},
		{"abs upper limit inside", 0.7, AbsUpperLimit, 0.8, true},
		{"abs upper limit negative boundary", -0.8, AbsUpperLimit, 0.8, true},
		{"abs upper limit just above", 0.8 + 1e-9, AbsUpperLimit, 0.8, false},
		{"abs upper limit negative outside", -0.9, AbsUpperLimit, 0.8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pass(tt.observable, tt.cmp, tt.threshold))
		})
	}
}

func TestPassNaNFailsEveryComparison(t *testing.T) {
	nan := math.NaN()
	for _, cmp := range []Comparison{Equal, LowerLimit, UpperLimit, AbsLowerLimit, AbsUpperLimit} {
		assert.False(t, Pass(nan, cmp, 1.0), "NaN must fail %s", cmp)
	}
	// NaN as threshold behaves the same way.
	assert.False(t, Pass(1.0, Equal, nan))
	assert.False(t, Pass(1.0, LowerLimit, nan))
}

func TestPassInvalidComparison(t *testing.T) {
	assert.False(t, Pass(1.0, Comparison(99), 1.0))
}

func TestComparisonString(t *testing.T) {
	assert.Equal(t, "AbsUpperLimit", AbsUpperLimit.String())
	assert.Equal(t, "Comparison(99)", Comparison(99).String())
	assert.True(t, LowerLimit.Valid())
	assert.False(t, Comparison(99).Valid())
	assert.False(t, Comparison(-1).Valid())
}

func TestTestAndSetBitAdvancesCursorOnFailure(t *testing.T) {
	var mask Mask
	var bit uint

	// First criterion fails: no bit, cursor still advances.
	TestAndSetBit(0.1, LowerLimit, 0.5, &mask, &bit)
	assert.Equal(t, Mask(0), mask)
	assert.Equal(t, uint(1), bit)

	// Second criterion passes: bit 1 set, never bit 0.
	TestAndSetBit(0.6, LowerLimit, 0.5, &mask, &bit)
	assert.False(t, mask.Bit(0))
	assert.True(t, mask.Bit(1))
	assert.Equal(t, uint(2), bit)
}

func TestTestAndSetBitStableOrder(t *testing.T) {
	// The bit for the criterion evaluated at position i is always bit i,
	// independent of which other criteria pass.
	criteria := []Criterion{
		{Variable: 0, Comparison: LowerLimit, Threshold: 0.5},
		{Variable: 1, Comparison: UpperLimit, Threshold: 1.0},
		{Variable: 2, Comparison: AbsUpperLimit, Threshold: 0.8},
	}
	observables := map[int]float64{0: 0.7, 1: 2.0, 2: 0.3}

	var mask Mask
	var bit uint
	for _, c := range criteria {
		TestAndSetBit(observables[c.Variable], c.Comparison, c.Threshold, &mask, &bit)
	}

	assert.True(t, mask.Bit(0))
	assert.False(t, mask.Bit(1))
	assert.True(t, mask.Bit(2))
	assert.Equal(t, uint(3), bit)
}

func TestTestAndSetBitPID(t *testing.T) {
	var mask Mask
	var bit uint

	TestAndSetBitPID(2.9, 3.0, &mask, &bit)  // inside
	TestAndSetBitPID(-3.0, 3.0, &mask, &bit) // negative boundary
	TestAndSetBitPID(3.1, 3.0, &mask, &bit)  // outside

	assert.True(t, mask.Bit(0))
	assert.True(t, mask.Bit(1))
	assert.False(t, mask.Bit(2))
	assert.Equal(t, uint(3), bit)
}

func TestSetRegisterAndCount(t *testing.T) {
	var s Set
	s.Register(3, AbsUpperLimit, 0.8)
	s.Register(1, LowerLimit, 0.2)
	s.Register(1, LowerLimit, 0.5)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.Count(1))
	assert.Equal(t, 1, s.Count(3))
	assert.Equal(t, 0, s.Count(7))

	// Registration order preserved.
	crit := s.Criteria()
	require.Len(t, crit, 3)
	assert.Equal(t, 3, crit[0].Variable)
	assert.Equal(t, 1, crit[1].Variable)
	assert.Equal(t, 0.5, crit[2].Threshold)
}

func TestCollapse(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []float64
		cmp        Comparison
		want       float64
	}{
		{"lower limit keeps max", []float64{0.2, 0.5}, LowerLimit, 0.5},
		{"lower limit order independent", []float64{0.5, 0.2}, LowerLimit, 0.5},
		{"upper limit keeps min", []float64{4.0, 2.5, 3.0}, UpperLimit, 2.5},
		{"abs upper limit keeps min", []float64{0.9, 0.8}, AbsUpperLimit, 0.8},
		{"abs lower limit keeps max", []float64{0.05, 0.1}, AbsLowerLimit, 0.1},
		{"equal keeps value", []float64{1.0}, Equal, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Set
			for _, th := range tt.thresholds {
				s.Register(0, tt.cmp, th)
			}
			got, n := s.Collapse(0, tt.cmp)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.thresholds), n)
		})
	}
}

func TestCollapseInactiveVariable(t *testing.T) {
	var s Set
	s.Register(1, LowerLimit, 0.5)

	_, n := s.Collapse(2, LowerLimit)
	assert.Equal(t, 0, n, "count zero means the check is skipped")
}

func TestCheckWidth(t *testing.T) {
	// Nine criteria cannot fit an 8-bit container.
	err := CheckWidth(9, 8)
	require.Error(t, err)
	var we *WidthError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, 9, we.Criteria)
	assert.Equal(t, uint(8), we.Width)

	// Exactly eight fit.
	assert.NoError(t, CheckWidth(8, 8))
	assert.NoError(t, CheckWidth(0, 8))
	assert.NoError(t, CheckWidth(33, 64))

	// Unsupported widths are rejected outright.
	assert.Error(t, CheckWidth(1, 12))
	assert.Error(t, CheckWidth(1, 0))
	assert.Error(t, CheckWidth(1, 128))
}

func TestMaskBits(t *testing.T) {
	var m Mask
	m.SetBit(0)
	m.SetBit(13)
	m.SetBit(63)

	assert.True(t, m.Bit(0))
	assert.False(t, m.Bit(1))
	assert.True(t, m.Bit(13))
	assert.True(t, m.Bit(63))
	assert.Equal(t, Mask(1|1<<13|1<<63), m)
}
