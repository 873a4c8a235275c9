package query

import "fmt"

// Validate checks a filter against the structural rules and the bit
// layout of the run's config.
//
// Rules:
//  1. RunID is required
//  2. Bounds must be satisfiable - PtMin <= PtMax, EtaAbsMax >= 0
//  3. Cut and PID names must resolve through the resolver; a variable
//     the config never cuts is rejected rather than silently matching
//     everything
//  4. A variable cannot be required to pass and fail at once
//  5. Limit, when set, must be positive
//
// Validate is a pure function with no side effects.
func Validate(f Filter, r *Resolver) error {
	if f.RunID == "" {
		return fmt.Errorf("query: run id required")
	}

	if f.PtMin != nil && f.PtMax != nil && *f.PtMin > *f.PtMax {
		return fmt.Errorf("query: contradictory pt bounds %v > %v", *f.PtMin, *f.PtMax)
	}
	if f.EtaAbsMax != nil && *f.EtaAbsMax < 0 {
		return fmt.Errorf("query: negative |eta| bound %v", *f.EtaAbsMax)
	}
	if f.Limit != nil && *f.Limit <= 0 {
		return fmt.Errorf("query: limit must be positive, got %d", *f.Limit)
	}

	failed := make(map[string]bool, len(f.CutFailed))
	for _, name := range f.CutFailed {
		if _, ok := r.OrdinaryMask(name); !ok {
			return fmt.Errorf("query: variable %q is not cut by this config", name)
		}
		failed[name] = true
	}
	for _, name := range f.CutPassed {
		if _, ok := r.OrdinaryMask(name); !ok {
			return fmt.Errorf("query: variable %q is not cut by this config", name)
		}
		if failed[name] {
			return fmt.Errorf("query: variable %q required to both pass and fail", name)
		}
	}

	for _, s := range f.PIDPassed {
		sp, combined, err := ParsePIDSelector(s)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		if _, ok := r.PIDMask(sp, combined); !ok {
			return fmt.Errorf("query: species %q is not tested by this config", sp)
		}
	}

	return nil
}
