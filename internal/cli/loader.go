package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/quarkfold/cutflow/internal/compiler"
	"github.com/quarkfold/cutflow/internal/cutset"
)

// LoadMode controls how errors are handled during config loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Loader error codes. Parse and schema problems keep the
// compiler.CompileError codes instead.
const (
	ErrCodeNotFound = "E001" // path not found or unreadable
	ErrCodeNoFiles  = "E002" // no .cue files under the given paths
)

// LoadedConfig pairs a compiled config with its source file.
type LoadedConfig struct {
	File   string
	Config *cutset.Config
}

// LoadResult contains the configs compiled from a set of paths.
type LoadResult struct {
	Configs   []LoadedConfig
	FileCount int // number of .cue files found
}

// LoadError reports a loader-level problem: unreadable paths, empty
// directories, missing config fields, duplicate names.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // source position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadConfigs compiles cut configs from the given paths. Each path may
// be a .cue file or a directory searched recursively. Every file
// compiles on its own, contributing exactly one config under its
// top-level "config" field; configs never unify across files.
//
// In LoadModeFailFast the first error returns immediately with a nil
// result. In LoadModeCollectAll compilation continues past errors and
// the partial result comes back alongside everything found. A config
// name reused across files is an error on the later file.
func LoadConfigs(paths []string, mode LoadMode) (*LoadResult, []error) {
	files, err := findCUEFiles(paths)
	if err != nil {
		return nil, []error{err}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{
			Code:    ErrCodeNoFiles,
			Message: fmt.Sprintf("no .cue files under %s", strings.Join(paths, ", ")),
		}}
	}

	ctx := cuecontext.New()
	result := &LoadResult{FileCount: len(files)}
	var errs []error
	byName := make(map[string]string) // config name -> defining file

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			errs = append(errs, &LoadError{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("reading %s: %v", file, err),
			})
			if mode == LoadModeFailFast {
				return nil, errs
			}
			continue
		}

		v := ctx.CompileBytes(data, cue.Filename(file))
		cv := v.LookupPath(cue.ParsePath("config"))
		if v.Err() == nil && !cv.Exists() {
			errs = append(errs, &LoadError{
				Code:    cutset.CodeMissingField,
				Message: fmt.Sprintf("%s: top-level \"config\" field is required", file),
			})
			if mode == LoadModeFailFast {
				return nil, errs
			}
			continue
		}

		cfg, err := compiler.CompileConfig(cv)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return nil, errs
			}
			continue
		}

		if prev, dup := byName[cfg.Name]; dup {
			errs = append(errs, &LoadError{
				Code:    cutset.CodeDuplicateName,
				Message: fmt.Sprintf("config %q in %s already defined in %s", cfg.Name, file, prev),
			})
			if mode == LoadModeFailFast {
				return nil, errs
			}
			continue
		}
		byName[cfg.Name] = file
		result.Configs = append(result.Configs, LoadedConfig{File: file, Config: cfg})
	}

	return result, errs
}

// findCUEFiles expands paths into .cue files: plain files must carry the
// extension, directories walk recursively. The result is sorted and
// deduplicated so load order never depends on argument order.
func findCUEFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("path not found: %s", path),
			}
		}
		if !info.IsDir() {
			if filepath.Ext(path) != ".cue" {
				return nil, &LoadError{
					Code:    ErrCodeNoFiles,
					Message: fmt.Sprintf("not a .cue file: %s", path),
				}
			}
			files = append(files, path)
			continue
		}

		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && filepath.Ext(p) == ".cue" {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("scanning %s: %v", path, err),
			}
		}
	}
	sort.Strings(files)
	return slices.Compact(files), nil
}

// selectConfig picks the config a command should work on: the only one
// loaded when name is empty, or the one matching name.
func selectConfig(res *LoadResult, name string) (*cutset.Config, error) {
	if name == "" {
		if len(res.Configs) == 1 {
			return res.Configs[0].Config, nil
		}
		names := make([]string, 0, len(res.Configs))
		for _, lc := range res.Configs {
			names = append(names, lc.Config.Name)
		}
		return nil, fmt.Errorf("%d configs loaded, pick one with --name (%s)", len(res.Configs), strings.Join(names, ", "))
	}
	for _, lc := range res.Configs {
		if lc.Config.Name == name {
			return lc.Config, nil
		}
	}
	return nil, fmt.Errorf("no config named %q", name)
}
