package harness

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/track"
)

// Scenario defines one conformance scenario: an inline cut configuration,
// the track records to evaluate and the expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the cut configuration under test. It goes through the
	// same validation and build path as a compiled CUE config.
	Config cutset.Config `yaml:"config"`

	// Tracks are the records to evaluate, indexed from zero in the
	// order listed.
	Tracks []track.Record `yaml:"tracks"`

	// Expect declares the outcomes to check.
	Expect Expectation `yaml:"expect"`
}

// Expectation is the set of checks a scenario runs against its outcomes.
// Clauses are independent; an absent clause asserts nothing.
type Expectation struct {
	// FinalizeError asserts that selector construction fails and the
	// error message contains this fragment. Scenarios with this clause
	// evaluate no tracks and allow no other clause.
	FinalizeError string `yaml:"finalize_error,omitempty"`

	// Selected is the exact set of track indexes the fast path must
	// accept. A present-but-empty list asserts every track is rejected;
	// an absent one asserts nothing about selection.
	Selected *[]int `yaml:"selected,omitempty"`

	// Masks pins the container masks of individual tracks.
	Masks []MaskExpect `yaml:"masks,omitempty"`

	// Diverge probes tracks where the fast path and the container
	// disagree.
	Diverge []DivergenceProbe `yaml:"diverge,omitempty"`
}

// MaskExpect pins the cut and/or PID mask of one track. Mask values are
// decimal or 0x-prefixed hex strings; an empty string skips that mask.
type MaskExpect struct {
	Track int    `yaml:"track"`
	Cut   string `yaml:"cut,omitempty"`
	PID   string `yaml:"pid,omitempty"`
}

// DivergenceProbe asserts the fast-path verdict for one track. Minimal is
// the expected verdict; AllCuts, when true, additionally requires every
// ordinary container bit set, pinning a track the container fully accepts
// while the fast path rejects it.
type DivergenceProbe struct {
	Track   int  `yaml:"track"`
	Minimal bool `yaml:"minimal"`
	AllCuts bool `yaml:"all_cuts,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Returns an error if
// the file doesn't exist, is malformed, contains unknown fields (typos),
// or fails structural validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	// Strict decoding catches typos like "mask:" vs "masks:".
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// validateScenario checks the scenario shape: required fields, expectation
// indexes in range, mask literals parseable. Config content is not checked
// here; Run sends it through the same validation as any other config.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Expect.FinalizeError != "" {
		if s.Expect.Selected != nil || len(s.Expect.Masks) > 0 || len(s.Expect.Diverge) > 0 {
			return fmt.Errorf("finalize_error excludes all other expectation clauses")
		}
		return nil
	}

	if len(s.Tracks) == 0 {
		return fmt.Errorf("tracks list is required and must be non-empty")
	}
	if s.Expect.Selected == nil && len(s.Expect.Masks) == 0 && len(s.Expect.Diverge) == 0 {
		return fmt.Errorf("expect needs at least one clause")
	}

	if s.Expect.Selected != nil {
		for i, idx := range *s.Expect.Selected {
			if idx < 0 || idx >= len(s.Tracks) {
				return fmt.Errorf("expect.selected[%d]: track index %d out of range", i, idx)
			}
		}
	}
	for i, m := range s.Expect.Masks {
		if m.Track < 0 || m.Track >= len(s.Tracks) {
			return fmt.Errorf("expect.masks[%d]: track index %d out of range", i, m.Track)
		}
		if m.Cut == "" && m.PID == "" {
			return fmt.Errorf("expect.masks[%d]: at least one of cut, pid is required", i)
		}
		if m.Cut != "" {
			if _, err := ParseMask(m.Cut); err != nil {
				return fmt.Errorf("expect.masks[%d].cut: %w", i, err)
			}
		}
		if m.PID != "" {
			if _, err := ParseMask(m.PID); err != nil {
				return fmt.Errorf("expect.masks[%d].pid: %w", i, err)
			}
		}
	}
	for i, d := range s.Expect.Diverge {
		if d.Track < 0 || d.Track >= len(s.Tracks) {
			return fmt.Errorf("expect.diverge[%d]: track index %d out of range", i, d.Track)
		}
	}
	return nil
}

// ParseMask parses a mask literal from a scenario file. Decimal and
// 0x-prefixed hexadecimal are accepted.
func ParseMask(s string) (uint64, error) {
	lit := strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		lit, base = lit[2:], 16
	}
	if lit == "" {
		return 0, fmt.Errorf("empty mask literal")
	}
	v, err := strconv.ParseUint(lit, base, 64)
	if err != nil {
		return 0, fmt.Errorf("bad mask literal %q", s)
	}
	return v, nil
}
