package track

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordNSigmaMissingReadsInf(t *testing.T) {
	r := &Record{TPCNSigma: map[Species]float64{SpeciesPion: 1.5}}

	assert.Equal(t, 1.5, r.NSigmaTPC(SpeciesPion))
	assert.True(t, math.IsInf(r.NSigmaTPC(SpeciesKaon), 1))
	assert.True(t, math.IsInf(r.NSigmaTOF(SpeciesPion), 1), "nil map reads +Inf too")
}

func TestRecordDCACombined(t *testing.T) {
	r := &Record{DCAxy: 3, DCAz: 4}
	assert.Equal(t, 5.0, r.DCACombined())

	r = &Record{DCAxy: -0.1, DCAz: 0}
	assert.Equal(t, 0.1, r.DCACombined())
}

func TestRecordJSONShape(t *testing.T) {
	// The line-oriented input format depends on these exact keys.
	line := `{"sign":-1,"pt":0.87,"eta":-0.12,"tpc_ncls_found":104,
		"tpc_crossed_rows_over_findable":0.91,"dca_xy":0.004,"dca_z":-0.011,
		"tpc_nsigma":{"pi":0.4,"pr":3.2},"tof_nsigma":{"pi":1.1}}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(line), &r))

	assert.Equal(t, -1, r.Sign)
	assert.Equal(t, 0.87, r.Pt)
	assert.Equal(t, 104, r.TPCNClsFound)
	assert.Equal(t, 0.4, r.NSigmaTPC(SpeciesPion))
	assert.Equal(t, 3.2, r.NSigmaTPC(SpeciesProton))
	assert.Equal(t, 1.1, r.NSigmaTOF(SpeciesPion))
	assert.True(t, math.IsInf(r.NSigmaTOF(SpeciesProton), 1))
}
