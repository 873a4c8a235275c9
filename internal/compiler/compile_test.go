package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarkfold/cutflow/internal/cutset"
)

func compileString(t *testing.T, src string) (*cutset.Config, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	return CompileConfig(v.LookupPath(cue.ParsePath("config")))
}

func TestCompileConfigBasic(t *testing.T) {
	cfg, err := compileString(t, `
		config: {
			name: "primary"
			containerWidth: 32

			cuts: [
				{variable: "PtMin", thresholds: [0.4, 0.5]},
				{variable: "EtaMax", thresholds: [0.8]},
				{variable: "TPCnClsMin", thresholds: [80]},
				{variable: "PIDnSigmaMax", thresholds: [3.0]},
			]

			pid: {
				species: ["pi", "pr"]
				nSigmaOffsetTPC: 0.5
				nSigmaOffsetTOF: -0.1
			}

			rejectNotPropagated: true
		}
	`)

	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Name)
	assert.Equal(t, uint(32), cfg.ContainerWidth)
	require.Len(t, cfg.Cuts, 4)
	assert.Equal(t, cutset.Cut{Variable: "PtMin", Thresholds: []float64{0.4, 0.5}}, cfg.Cuts[0])
	assert.Equal(t, cutset.Cut{Variable: "TPCnClsMin", Thresholds: []float64{80}}, cfg.Cuts[2])
	assert.Equal(t, []string{"pi", "pr"}, cfg.PID.Species)
	assert.Equal(t, 0.5, cfg.PID.NSigmaOffsetTPC)
	assert.Equal(t, -0.1, cfg.PID.NSigmaOffsetTOF)
	assert.True(t, cfg.RejectNotPropagated)
}

func TestCompileConfigMinimal(t *testing.T) {
	cfg, err := compileString(t, `
		config: {
			name: "min"
			containerWidth: 8
			cuts: [{variable: "PtMin", thresholds: [0.4]}]
		}
	`)

	require.NoError(t, err)
	assert.Equal(t, "min", cfg.Name)
	assert.Empty(t, cfg.PID.Species)
	assert.False(t, cfg.RejectNotPropagated)
}

func TestCompileConfigMatchesHandBuilt(t *testing.T) {
	compiled, err := compileString(t, `
		config: {
			name: "primary"
			containerWidth: 32
			cuts: [
				{variable: "PtMin", thresholds: [0.4]},
				{variable: "PIDnSigmaMax", thresholds: [3.0]},
			]
			pid: species: ["pi"]
		}
	`)
	require.NoError(t, err)

	hand := &cutset.Config{
		Name:           "primary",
		ContainerWidth: 32,
		Cuts: []cutset.Cut{
			{Variable: "PtMin", Thresholds: []float64{0.4}},
			{Variable: "PIDnSigmaMax", Thresholds: []float64{3.0}},
		},
		PID: cutset.PIDConfig{Species: []string{"pi"}},
	}

	assert.Equal(t, cutset.MustFingerprint(hand), cutset.MustFingerprint(compiled),
		"compiled and hand-built configs share one identity")
}

func TestCompileConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		code  string
		field string
	}{
		{
			"missing name",
			`config: {containerWidth: 8, cuts: [{variable: "PtMin", thresholds: [0.4]}]}`,
			cutset.CodeMissingField, "name",
		},
		{
			"missing width",
			`config: {name: "x", cuts: [{variable: "PtMin", thresholds: [0.4]}]}`,
			cutset.CodeMissingField, "container_width",
		},
		{
			"negative width",
			`config: {name: "x", containerWidth: -8, cuts: [{variable: "PtMin", thresholds: [0.4]}]}`,
			cutset.CodeBadWidth, "container_width",
		},
		{
			"unsupported width",
			`config: {name: "x", containerWidth: 12, cuts: [{variable: "PtMin", thresholds: [0.4]}]}`,
			cutset.CodeBadWidth, "container_width",
		},
		{
			"no cuts",
			`config: {name: "x", containerWidth: 8}`,
			cutset.CodeEmptyCuts, "cuts",
		},
		{
			"unknown variable",
			`config: {name: "x", containerWidth: 8, cuts: [{variable: "PtFloor", thresholds: [0.4]}]}`,
			cutset.CodeUnknownVariable, "cuts[0].variable",
		},
		{
			"missing thresholds",
			`config: {name: "x", containerWidth: 8, cuts: [{variable: "PtMin"}]}`,
			cutset.CodeBadThresholds, "cuts[0].thresholds",
		},
		{
			"bad species",
			`config: {
				name: "x", containerWidth: 8
				cuts: [{variable: "PIDnSigmaMax", thresholds: [3.0]}]
				pid: species: ["muon"]
			}`,
			cutset.CodeBadSpecies, "pid.species[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src)
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.code, ce.Code)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileConfigCUETypeError(t *testing.T) {
	_, err := compileString(t, `config: {name: 42, containerWidth: 8, cuts: []}`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CodeCUE, ce.Code)
}

func TestCompileConfigParseError(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`config: {name: "x" containerWidth 8}`)

	_, err := CompileConfig(v.LookupPath(cue.ParsePath("config")))
	require.Error(t, err)
	assert.True(t, IsCompileError(err))
}

func TestCompileErrorPosition(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`config: {
		name: "x"
		containerWidth: 8
		cuts: [{variable: "PtFloor", thresholds: [0.4]}]
	}`)

	_, err := CompileConfig(v.LookupPath(cue.ParsePath("config")))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid(), "validation errors carry source positions")
	assert.Contains(t, ce.Error(), "E102")
}
