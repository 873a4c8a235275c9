package cutset

import (
	"fmt"
	"math"

	"github.com/quarkfold/cutflow/internal/track"
)

// Cut activates one catalogue variable with one criterion per listed
// threshold. Repeating a variable across cuts is legal and yields
// separate container bits.
type Cut struct {
	Variable   string    `json:"variable" yaml:"variable"`
	Thresholds []float64 `json:"thresholds" yaml:"thresholds"`
}

// PIDConfig carries the species hypotheses and detector offsets used by
// PID cuts. Species order fixes the PID bit layout.
type PIDConfig struct {
	Species         []string `json:"species,omitempty" yaml:"species,omitempty"`
	NSigmaOffsetTPC float64  `json:"nsigma_offset_tpc,omitempty" yaml:"nsigma_offset_tpc,omitempty"`
	NSigmaOffsetTOF float64  `json:"nsigma_offset_tof,omitempty" yaml:"nsigma_offset_tof,omitempty"`
}

// Config is one complete cut set.
type Config struct {
	Name                string    `json:"name" yaml:"name"`
	ContainerWidth      uint      `json:"container_width" yaml:"container_width"`
	Cuts                []Cut     `json:"cuts" yaml:"cuts"`
	PID                 PIDConfig `json:"pid" yaml:"pid"`
	RejectNotPropagated bool      `json:"reject_not_propagated,omitempty" yaml:"reject_not_propagated,omitempty"`
}

// Validate performs the structural checks every config passes through,
// whether it came from the compiler, a harness scenario or test code.
// The first problem found is returned as a *ValidationError. Width
// overflow is not checked here; that is Finalize's job and depends on
// the criteria count, not the config shape.
func (c *Config) Validate() error {
	if c.Name == "" {
		return &ValidationError{Code: CodeMissingField, Path: "name", Message: "config name is required"}
	}
	if c.ContainerWidth == 0 {
		return &ValidationError{Code: CodeMissingField, Path: "container_width", Message: "container width is required"}
	}
	switch c.ContainerWidth {
	case 8, 16, 32, 64:
	default:
		return &ValidationError{
			Code:    CodeBadWidth,
			Path:    "container_width",
			Message: fmt.Sprintf("container width must be 8, 16, 32 or 64, got %d", c.ContainerWidth),
		}
	}
	if len(c.Cuts) == 0 {
		return &ValidationError{Code: CodeEmptyCuts, Path: "cuts", Message: "at least one cut is required"}
	}

	pidActive := false
	for i, cut := range c.Cuts {
		v, ok := track.FindVariable(cut.Variable)
		if !ok {
			return &ValidationError{
				Code:    CodeUnknownVariable,
				Path:    fmt.Sprintf("cuts[%d].variable", i),
				Message: fmt.Sprintf("unknown variable %q", cut.Variable),
			}
		}
		if v == track.VarPIDNSigmaMax {
			pidActive = true
		}
		if len(cut.Thresholds) == 0 {
			return &ValidationError{
				Code:    CodeBadThresholds,
				Path:    fmt.Sprintf("cuts[%d].thresholds", i),
				Message: fmt.Sprintf("cut %q needs at least one threshold", cut.Variable),
			}
		}
		for j, th := range cut.Thresholds {
			if math.IsNaN(th) || math.IsInf(th, 0) {
				return &ValidationError{
					Code:    CodeBadThresholds,
					Path:    fmt.Sprintf("cuts[%d].thresholds[%d]", i, j),
					Message: fmt.Sprintf("threshold for %q must be finite", cut.Variable),
				}
			}
		}
	}

	seen := make(map[track.Species]bool, len(c.PID.Species))
	for i, name := range c.PID.Species {
		sp, err := track.ParseSpecies(name)
		if err != nil {
			return &ValidationError{
				Code:    CodeBadSpecies,
				Path:    fmt.Sprintf("pid.species[%d]", i),
				Message: fmt.Sprintf("unknown species %q", name),
			}
		}
		if seen[sp] {
			return &ValidationError{
				Code:    CodeBadSpecies,
				Path:    fmt.Sprintf("pid.species[%d]", i),
				Message: fmt.Sprintf("species %q listed twice", name),
			}
		}
		seen[sp] = true
	}
	if pidActive && len(c.PID.Species) == 0 {
		return &ValidationError{
			Code:    CodeBadSpecies,
			Path:    "pid.species",
			Message: "a PIDnSigmaMax cut requires at least one species",
		}
	}
	for _, off := range []struct {
		path  string
		value float64
	}{
		{"pid.nsigma_offset_tpc", c.PID.NSigmaOffsetTPC},
		{"pid.nsigma_offset_tof", c.PID.NSigmaOffsetTOF},
	} {
		if math.IsNaN(off.value) || math.IsInf(off.value, 0) {
			return &ValidationError{
				Code:    CodeBadThresholds,
				Path:    off.path,
				Message: "offset must be finite",
			}
		}
	}
	return nil
}

// BuildSelector validates the config and assembles a finalized selector
// from it. Cuts register in listed order; a width overflow surfaces as
// the selector's own configuration error, wrapped with the config name.
func BuildSelector(c *Config, opts ...track.SelectorOption) (*track.Selector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s := track.NewSelector(opts...)
	for _, cut := range c.Cuts {
		v, _ := track.FindVariable(cut.Variable)
		if err := s.Register(v, cut.Thresholds...); err != nil {
			return nil, fmt.Errorf("config %q: register %s: %w", c.Name, cut.Variable, err)
		}
	}

	species := make([]track.Species, 0, len(c.PID.Species))
	for _, name := range c.PID.Species {
		sp, _ := track.ParseSpecies(name)
		species = append(species, sp)
	}
	if len(species) > 0 {
		if err := s.SetSpecies(species...); err != nil {
			return nil, fmt.Errorf("config %q: species: %w", c.Name, err)
		}
	}
	s.SetNSigmaOffsets(c.PID.NSigmaOffsetTPC, c.PID.NSigmaOffsetTOF)
	s.SetRejectNotPropagated(c.RejectNotPropagated)

	if err := s.Finalize(c.ContainerWidth); err != nil {
		return nil, fmt.Errorf("config %q: %w", c.Name, err)
	}
	return s, nil
}

// normalized returns a copy with representation-only differences
// removed, so that semantically equal configs canonicalize to the same
// bytes. Today that is one rule: an empty species list and an absent
// one are the same config.
func (c *Config) normalized() *Config {
	n := *c
	if len(n.PID.Species) == 0 {
		n.PID.Species = nil
	}
	return &n
}
