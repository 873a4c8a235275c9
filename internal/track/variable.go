package track

import (
	"fmt"

	"github.com/quarkfold/cutflow/internal/selection"
)

// Variable identifies one of the track selection quantities. The constant
// order is fixed: it defines the ordinary bit order of the cut container
// and the check order of the fast path.
type Variable int

const (
	// VarSign constrains the track charge sign.
	VarSign Variable = iota

	// VarPtMin is the transverse momentum floor.
	VarPtMin

	// VarPtMax is the transverse momentum ceiling.
	VarPtMax

	// VarEtaMax is the |pseudorapidity| ceiling.
	VarEtaMax

	// VarTPCNClsMin is the minimum number of found TPC clusters.
	VarTPCNClsMin

	// VarTPCFClsMin is the minimum crossed-rows-over-findable fraction.
	VarTPCFClsMin

	// VarTPCCRowsMin is the minimum number of crossed TPC rows.
	VarTPCCRowsMin

	// VarTPCSClsMax is the maximum number of shared TPC clusters.
	VarTPCSClsMax

	// VarTPCFracSClsMax is the maximum shared TPC cluster fraction.
	VarTPCFracSClsMax

	// VarITSNClsMin is the minimum number of ITS clusters.
	VarITSNClsMin

	// VarITSNClsIbMin is the minimum number of inner-barrel ITS clusters.
	VarITSNClsIbMin

	// VarDCAxyMax is the |DCA_xy| ceiling.
	VarDCAxyMax

	// VarDCAzMax is the |DCA_z| ceiling.
	VarDCAzMax

	// VarDCAMin is the |DCA| floor.
	VarDCAMin

	// VarPIDNSigmaMax is the |n-sigma| ceiling for particle identification.
	// Handled specially: excluded from the ordinary bit count, expanded to
	// two PID bits per configured species.
	VarPIDNSigmaMax

	numVariables
)

type variableInfo struct {
	name string
	cmp  selection.Comparison
	help string
}

// variableTable is the static catalogue. The names are the config-facing
// identifiers; the comparison kind per variable is immutable.
var variableTable = [numVariables]variableInfo{
	VarSign:           {"Sign", selection.Equal, "Sign of the track"},
	VarPtMin:          {"PtMin", selection.LowerLimit, "Minimal pT (GeV/c)"},
	VarPtMax:          {"PtMax", selection.UpperLimit, "Maximal pT (GeV/c)"},
	VarEtaMax:         {"EtaMax", selection.AbsUpperLimit, "Maximal eta"},
	VarTPCNClsMin:     {"TPCnClsMin", selection.LowerLimit, "Minimum number of TPC clusters"},
	VarTPCFClsMin:     {"TPCfClsMin", selection.LowerLimit, "Minimum fraction of crossed rows/findable clusters"},
	VarTPCCRowsMin:    {"TPCcRowsMin", selection.LowerLimit, "Minimum number of crossed TPC rows"},
	VarTPCSClsMax:     {"TPCsClsMax", selection.UpperLimit, "Maximal number of shared TPC clusters"},
	VarTPCFracSClsMax: {"TPCfracsClsMax", selection.UpperLimit, "Maximal fraction of shared TPC clusters"},
	VarITSNClsMin:     {"ITSnClsMin", selection.LowerLimit, "Minimum number of ITS clusters"},
	VarITSNClsIbMin:   {"ITSnClsIbMin", selection.LowerLimit, "Minimum number of ITS clusters in the inner barrel"},
	VarDCAxyMax:       {"DCAxyMax", selection.AbsUpperLimit, "Maximal DCA_xy (cm)"},
	VarDCAzMax:        {"DCAzMax", selection.AbsUpperLimit, "Maximal DCA_z (cm)"},
	VarDCAMin:         {"DCAMin", selection.AbsLowerLimit, "Minimal DCA (cm)"},
	VarPIDNSigmaMax:   {"PIDnSigmaMax", selection.AbsUpperLimit, "Maximal PID (nSigma)"},
}

// The catalogue must cover every enum value. A hole here is a programmer
// error, caught before anything can evaluate against garbage entries.
func init() {
	for v, info := range variableTable {
		if info.name == "" || info.help == "" || !info.cmp.Valid() {
			panic(fmt.Sprintf("track: incomplete catalogue entry for variable %d", v))
		}
	}
}

// Valid reports whether v is a catalogued variable.
func (v Variable) Valid() bool {
	return v >= 0 && v < numVariables
}

// Name returns the config-facing identifier, e.g. "TPCnClsMin".
func (v Variable) Name() string {
	if !v.Valid() {
		return fmt.Sprintf("Variable(%d)", int(v))
	}
	return variableTable[v].name
}

// Comparison returns the fixed comparison kind for the variable.
// Panics on an uncatalogued variable; callers validate first.
func (v Variable) Comparison() selection.Comparison {
	if !v.Valid() {
		panic(fmt.Sprintf("track: comparison lookup for invalid variable %d", int(v)))
	}
	return variableTable[v].cmp
}

// Help returns the human-readable description for the variable.
func (v Variable) Help() string {
	if !v.Valid() {
		return ""
	}
	return variableTable[v].help
}

// String implements fmt.Stringer with the config-facing name.
func (v Variable) String() string {
	return v.Name()
}

// FindVariable resolves a config-facing name to its variable and reports
// whether the name is known.
func FindVariable(name string) (Variable, bool) {
	for v := Variable(0); v < numVariables; v++ {
		if variableTable[v].name == name {
			return v, true
		}
	}
	return 0, false
}

// Variables returns all catalogued variables in bit order.
func Variables() []Variable {
	vars := make([]Variable, numVariables)
	for i := range vars {
		vars[i] = Variable(i)
	}
	return vars
}
