package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrBool(b bool) *bool        { return &b }
func ptrInt(i int) *int           { return &i }
func ptrFloat(f float64) *float64 { return &f }

func TestValidate_FullFilter(t *testing.T) {
	r := NewResolver(testSelector(t))
	f := Filter{
		RunID:     "run-1",
		Selected:  ptrBool(true),
		Sign:      ptrInt(-1),
		PtMin:     ptrFloat(0.4),
		PtMax:     ptrFloat(2.5),
		EtaAbsMax: ptrFloat(0.8),
		CutPassed: []string{"PtMin", "TPCnClsMin"},
		CutFailed: []string{"EtaMax"},
		PIDPassed: []string{"pi:tpc", "pr:comb"},
		Limit:     ptrInt(100),
	}
	require.NoError(t, Validate(f, r))
}

func TestValidate_Errors(t *testing.T) {
	r := NewResolver(testSelector(t))

	tests := []struct {
		name    string
		filter  Filter
		wantErr string
	}{
		{
			name:    "missing run id",
			filter:  Filter{},
			wantErr: "run id required",
		},
		{
			name:    "contradictory pt bounds",
			filter:  Filter{RunID: "r", PtMin: ptrFloat(2.0), PtMax: ptrFloat(0.5)},
			wantErr: "contradictory pt bounds",
		},
		{
			name:    "negative eta bound",
			filter:  Filter{RunID: "r", EtaAbsMax: ptrFloat(-0.8)},
			wantErr: "negative |eta| bound",
		},
		{
			name:    "zero limit",
			filter:  Filter{RunID: "r", Limit: ptrInt(0)},
			wantErr: "limit must be positive",
		},
		{
			name:    "negative limit",
			filter:  Filter{RunID: "r", Limit: ptrInt(-5)},
			wantErr: "limit must be positive",
		},
		{
			name:    "unknown variable",
			filter:  Filter{RunID: "r", CutPassed: []string{"Bogus"}},
			wantErr: `"Bogus" is not cut by this config`,
		},
		{
			name:    "catalogued but uncut variable",
			filter:  Filter{RunID: "r", CutPassed: []string{"DCAxyMax"}},
			wantErr: `"DCAxyMax" is not cut by this config`,
		},
		{
			name:    "uncut variable in failed list",
			filter:  Filter{RunID: "r", CutFailed: []string{"DCAzMax"}},
			wantErr: `"DCAzMax" is not cut by this config`,
		},
		{
			name:    "pass and fail contradiction",
			filter:  Filter{RunID: "r", CutPassed: []string{"PtMin"}, CutFailed: []string{"PtMin"}},
			wantErr: "required to both pass and fail",
		},
		{
			name:    "malformed pid selector",
			filter:  Filter{RunID: "r", PIDPassed: []string{"pi"}},
			wantErr: "want species:detector",
		},
		{
			name:    "unknown pid species",
			filter:  Filter{RunID: "r", PIDPassed: []string{"mu:tpc"}},
			wantErr: "unknown species",
		},
		{
			name:    "unknown pid detector",
			filter:  Filter{RunID: "r", PIDPassed: []string{"pi:tof"}},
			wantErr: "detector must be tpc or comb",
		},
		{
			name:    "untested pid species",
			filter:  Filter{RunID: "r", PIDPassed: []string{"ka:tpc"}},
			wantErr: `"ka" is not tested by this config`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filter, r)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_BoundsTouchingIsLegal(t *testing.T) {
	r := NewResolver(testSelector(t))
	f := Filter{RunID: "r", PtMin: ptrFloat(0.5), PtMax: ptrFloat(0.5)}
	assert.NoError(t, Validate(f, r))
}
