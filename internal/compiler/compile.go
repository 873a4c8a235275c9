package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/quarkfold/cutflow/internal/cutset"
)

// CodeCUE is the code for errors CUE itself reports: parse failures,
// type mismatches, unification conflicts. Structural errors reuse the
// cutset validation codes.
const CodeCUE = "E003"

// CompileError is a compilation failure with source position. Field is
// the config-relative path when known ("cuts[2].variable"), or "cue"
// for parser-level errors.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Code, e.Field, e.Message)
}

// IsCompileError reports whether err is (or wraps) a CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// CompileConfig parses a CUE value into a validated cutset.Config.
//
// The value should be the config struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`config: {name: "primary", ...}`)
//	cfg, err := CompileConfig(v.LookupPath(cue.ParsePath("config")))
//
// Validation runs through cutset.Config.Validate, the same path
// hand-built configs take; this function only adds CUE extraction and
// source positions.
func CompileConfig(v cue.Value) (*cutset.Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	cfg := &cutset.Config{}
	pos := positionIndex{config: v.Pos()}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Code:    cutset.CodeMissingField,
			Field:   "name",
			Message: "name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	cfg.Name = name
	pos.name = nameVal.Pos()

	widthVal := v.LookupPath(cue.ParsePath("containerWidth"))
	if !widthVal.Exists() {
		return nil, &CompileError{
			Code:    cutset.CodeMissingField,
			Field:   "container_width",
			Message: "containerWidth is required",
			Pos:     v.Pos(),
		}
	}
	width, err := widthVal.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if width < 0 {
		return nil, &CompileError{
			Code:    cutset.CodeBadWidth,
			Field:   "container_width",
			Message: fmt.Sprintf("containerWidth must be positive, got %d", width),
			Pos:     widthVal.Pos(),
		}
	}
	cfg.ContainerWidth = uint(width)
	pos.width = widthVal.Pos()

	cutsVal := v.LookupPath(cue.ParsePath("cuts"))
	if cutsVal.Exists() {
		iter, err := cutsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			cut, err := compileCut(iter.Value(), i)
			if err != nil {
				return nil, err
			}
			cfg.Cuts = append(cfg.Cuts, cut)
			pos.cuts = append(pos.cuts, iter.Value().Pos())
		}
	}

	pidVal := v.LookupPath(cue.ParsePath("pid"))
	if pidVal.Exists() {
		if err := compilePID(pidVal, cfg, &pos); err != nil {
			return nil, err
		}
	}

	rnpVal := v.LookupPath(cue.ParsePath("rejectNotPropagated"))
	if rnpVal.Exists() {
		rnp, err := rnpVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		cfg.RejectNotPropagated = rnp
	}

	if err := cfg.Validate(); err != nil {
		var ve *cutset.ValidationError
		if errors.As(err, &ve) {
			return nil, &CompileError{
				Code:    ve.Code,
				Field:   ve.Path,
				Message: ve.Message,
				Pos:     pos.lookup(ve.Path),
			}
		}
		return nil, err
	}
	return cfg, nil
}

func compileCut(v cue.Value, index int) (cutset.Cut, error) {
	var cut cutset.Cut

	varVal := v.LookupPath(cue.ParsePath("variable"))
	if !varVal.Exists() {
		return cut, &CompileError{
			Code:    cutset.CodeMissingField,
			Field:   fmt.Sprintf("cuts[%d].variable", index),
			Message: "variable is required",
			Pos:     v.Pos(),
		}
	}
	variable, err := varVal.String()
	if err != nil {
		return cut, formatCUEError(err)
	}
	cut.Variable = variable

	thVal := v.LookupPath(cue.ParsePath("thresholds"))
	if !thVal.Exists() {
		return cut, &CompileError{
			Code:    cutset.CodeBadThresholds,
			Field:   fmt.Sprintf("cuts[%d].thresholds", index),
			Message: "thresholds are required",
			Pos:     v.Pos(),
		}
	}
	thIter, err := thVal.List()
	if err != nil {
		return cut, formatCUEError(err)
	}
	for thIter.Next() {
		f, err := thIter.Value().Float64()
		if err != nil {
			return cut, formatCUEError(err)
		}
		cut.Thresholds = append(cut.Thresholds, f)
	}
	return cut, nil
}

func compilePID(v cue.Value, cfg *cutset.Config, pos *positionIndex) error {
	spVal := v.LookupPath(cue.ParsePath("species"))
	if spVal.Exists() {
		iter, err := spVal.List()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			sp, err := iter.Value().String()
			if err != nil {
				return formatCUEError(err)
			}
			cfg.PID.Species = append(cfg.PID.Species, sp)
			pos.species = append(pos.species, iter.Value().Pos())
		}
	}

	for _, field := range []struct {
		path string
		dst  *float64
	}{
		{"nSigmaOffsetTPC", &cfg.PID.NSigmaOffsetTPC},
		{"nSigmaOffsetTOF", &cfg.PID.NSigmaOffsetTOF},
	} {
		fv := v.LookupPath(cue.ParsePath(field.path))
		if !fv.Exists() {
			continue
		}
		f, err := fv.Float64()
		if err != nil {
			return formatCUEError(err)
		}
		*field.dst = f
	}
	return nil
}

// positionIndex remembers where config elements came from so that
// validation errors, which only know config-relative paths, can point
// back into the source file.
type positionIndex struct {
	config  token.Pos
	name    token.Pos
	width   token.Pos
	cuts    []token.Pos
	species []token.Pos
}

func (p *positionIndex) lookup(path string) token.Pos {
	switch {
	case path == "name":
		return p.name
	case path == "container_width":
		return p.width
	default:
	}
	var i int
	if _, err := fmt.Sscanf(path, "cuts[%d]", &i); err == nil && i < len(p.cuts) {
		return p.cuts[i]
	}
	if _, err := fmt.Sscanf(path, "pid.species[%d]", &i); err == nil && i < len(p.species) {
		return p.species[i]
	}
	return p.config
}

// formatCUEError extracts position info from CUE's own errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Code:    CodeCUE,
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &CompileError{Code: CodeCUE, Field: "cue", Message: first.Error()}
}
